// Package session owns the per-user state of the companion: the tracked
// instruments, the last evidence snapshot and summary, and the conversation.
// Nothing is shared between sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"marketcompanion/internal/conversation"
	"marketcompanion/internal/evidence"
	"marketcompanion/internal/llm"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrNoInstruments = errors.New("session has no instruments")
	ErrEmptyQuestion = errors.New("question is empty")
	ErrTooMany       = errors.New("too many instruments")
)

// Aggregator gathers evidence for a set of instruments.
//
//go:generate mockgen -package=session_test -destination=mock_deps_test.go -source=session.go Aggregator,Gateway
type Aggregator interface {
	FetchAll(ctx context.Context, instruments []evidence.Instrument) map[evidence.Instrument]*evidence.Bundle
}

// Gateway is the model side of a session.
type Gateway interface {
	Synthesize(ctx context.Context, instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle) (llm.SummaryResult, error)
	Respond(ctx context.Context, question string, instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle, history []conversation.Turn) (string, error)
}

// Store keeps sessions in memory for the life of the process.
type Store struct {
	agg    Aggregator
	gw     Gateway
	window int
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	// coalesces concurrent refreshes of the same session
	sf singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithHistoryWindow limits the turns replayed to the model. 0 replays all.
func WithHistoryWindow(n int) Option {
	return func(s *Store) { s.window = n }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func NewStore(agg Aggregator, gw Gateway, opts ...Option) *Store {
	s := &Store{
		agg:      agg,
		gw:       gw,
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "session").Logger()
	return s
}

// Create starts a session tracking the given raw symbols.
func (s *Store) Create(raw []string) *Session {
	sess := &Session{
		ID:          uuid.NewString(),
		CreatedAt:   s.now(),
		store:       s,
		instruments: evidence.ParseInstruments(raw),
		conv:        conversation.New(conversation.WithWindow(conversation.LastTurns(s.window))),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.Info().Str("session", sess.ID).Strs("instruments", evidence.Strings(sess.instruments)).Msg("session created")
	return sess
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// IDs lists the live sessions, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Session is one user's companion state.
type Session struct {
	ID        string
	CreatedAt time.Time

	store *Store
	conv  *conversation.State

	mu          sync.RWMutex
	instruments []evidence.Instrument
	snapshot    map[evidence.Instrument]*evidence.Bundle
	summary     *Summary
	updatedAt   time.Time

	// serializes Ask so each exchange sees the previous one
	askMu sync.Mutex
}

// Summary is the last synthesis together with whether it is the fallback.
type Summary struct {
	Result      llm.SummaryResult `json:"result"`
	Degraded    bool              `json:"degraded"`
	Error       string            `json:"error,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// View is the externally visible state of a session.
type View struct {
	ID          string     `json:"id"`
	Instruments []string   `json:"tickers"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	HasSummary  bool       `json:"has_summary"`
	Turns       int        `json:"turns"`
}

func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{
		ID:          s.ID,
		Instruments: evidence.Strings(s.instruments),
		CreatedAt:   s.CreatedAt,
		HasSummary:  s.summary != nil,
		Turns:       s.conv.Len(),
	}
	if !s.updatedAt.IsZero() {
		t := s.updatedAt
		v.UpdatedAt = &t
	}
	return v
}

func (s *Session) Instruments() []evidence.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]evidence.Instrument(nil), s.instruments...)
}

// SetInstruments replaces the tracked instruments.
func (s *Session) SetInstruments(raw []string) []evidence.Instrument {
	parsed := evidence.ParseInstruments(raw)
	s.mu.Lock()
	s.instruments = parsed
	s.mu.Unlock()
	return parsed
}

// AddInstruments appends new symbols, ignoring ones already tracked.
func (s *Session) AddInstruments(raw []string) []evidence.Instrument {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := append(evidence.Strings(s.instruments), raw...)
	s.instruments = evidence.ParseInstruments(merged)
	return append([]evidence.Instrument(nil), s.instruments...)
}

// RemoveInstrument stops tracking symbol and reports whether it was tracked.
func (s *Session) RemoveInstrument(symbol string) bool {
	parsed := evidence.ParseInstruments([]string{symbol})
	if len(parsed) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sym := range s.instruments {
		if sym == parsed[0] {
			s.instruments = append(s.instruments[:i:i], s.instruments[i+1:]...)
			return true
		}
	}
	return false
}

// InstrumentEdit describes one change to the tracked list. Replace, when
// set, is the new base list; Add is appended to it and Remove dropped from it.
type InstrumentEdit struct {
	Replace *[]string
	Add     []string
	Remove  []string
}

// EditInstruments applies e in one step. When limit is positive and the
// resulting list is longer, the session is left unchanged and ErrTooMany is
// returned.
func (s *Session) EditInstruments(e InstrumentEdit, limit int) ([]evidence.Instrument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := evidence.Strings(s.instruments)
	if e.Replace != nil {
		base = *e.Replace
	}
	merged := evidence.ParseInstruments(append(append([]string(nil), base...), e.Add...))
	drop := make(map[evidence.Instrument]struct{}, len(e.Remove))
	for _, sym := range evidence.ParseInstruments(e.Remove) {
		drop[sym] = struct{}{}
	}
	next := merged[:0:0]
	for _, sym := range merged {
		if _, ok := drop[sym]; !ok {
			next = append(next, sym)
		}
	}
	if limit > 0 && len(next) > limit {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooMany, len(next), limit)
	}
	s.instruments = next
	return append([]evidence.Instrument(nil), next...), nil
}

// Refresh fetches evidence for the tracked instruments, synthesizes a
// summary and records both. Concurrent calls for one session share a single
// fetch, which is not cancelled when the first caller goes away.
func (s *Session) Refresh(ctx context.Context) (Summary, error) {
	// The shared call outlives any one caller; the aggregator deadline and
	// the model timeout bound it instead.
	shared := context.WithoutCancel(ctx)
	v, err, coalesced := s.store.sf.Do(s.ID, func() (any, error) {
		return s.refresh(shared)
	})
	if err != nil {
		return Summary{}, err
	}
	if coalesced {
		s.store.log.Debug().Str("session", s.ID).Msg("refresh coalesced")
	}
	return v.(Summary), nil
}

func (s *Session) refresh(ctx context.Context) (Summary, error) {
	instruments := s.Instruments()
	if len(instruments) == 0 {
		return Summary{}, ErrNoInstruments
	}
	bundles := s.store.agg.FetchAll(ctx, instruments)
	res, synthErr := s.store.gw.Synthesize(ctx, instruments, bundles)

	now := s.store.now()
	sum := Summary{Result: res, Degraded: synthErr != nil, GeneratedAt: now}
	if synthErr != nil {
		sum.Error = synthErr.Error()
	}

	s.mu.Lock()
	s.snapshot = bundles
	s.summary = &sum
	s.updatedAt = now
	s.mu.Unlock()

	s.store.log.Info().
		Str("session", s.ID).
		Int("instruments", len(instruments)).
		Bool("degraded", sum.Degraded).
		Msg("session refreshed")
	return sum, nil
}

// Answer is the result of one chat exchange.
type Answer struct {
	Content  string `json:"content"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

// Ask answers question grounded in the last snapshot and appends the
// exchange to the conversation. Evidence is fetched first when the session
// has never been refreshed.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	s.askMu.Lock()
	defer s.askMu.Unlock()

	instruments, bundles := s.Snapshot()
	if bundles == nil {
		instruments = s.Instruments()
		if len(instruments) > 0 {
			bundles = s.store.agg.FetchAll(ctx, instruments)
			s.mu.Lock()
			s.snapshot = bundles
			s.updatedAt = s.store.now()
			s.mu.Unlock()
		}
	}

	content, err := s.store.gw.Respond(ctx, question, instruments, bundles, s.conv.Replay())
	s.conv.AppendExchange(question, content)

	ans := Answer{Content: content, Degraded: err != nil}
	if err != nil {
		ans.Error = err.Error()
	}
	return ans, nil
}

// Snapshot returns the tracked instruments and the last fetched bundles, nil
// when nothing was fetched yet. Bundles for instruments added since the last
// refresh are absent.
func (s *Session) Snapshot() ([]evidence.Instrument, map[evidence.Instrument]*evidence.Bundle) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instruments := append([]evidence.Instrument(nil), s.instruments...)
	if s.snapshot == nil {
		return instruments, nil
	}
	out := make(map[evidence.Instrument]*evidence.Bundle, len(s.snapshot))
	for k, v := range s.snapshot {
		out[k] = v
	}
	return instruments, out
}

// Summary returns the last synthesis, if any.
func (s *Session) Summary() (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return Summary{}, false
	}
	return *s.summary, true
}

// History returns the full conversation in order.
func (s *Session) History() []conversation.Turn { return s.conv.History() }
