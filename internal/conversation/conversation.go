// Package conversation holds the append-only turn log of one chat session.
package conversation

import (
	"fmt"
	"sync"
	"time"
)

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the replayable roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// Turn is one message in the conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Window selects which part of the history is replayed to the model.
type Window func([]Turn) []Turn

// Unbounded replays every turn.
func Unbounded(turns []Turn) []Turn { return turns }

// LastTurns replays only the most recent n turns. n <= 0 is Unbounded.
func LastTurns(n int) Window {
	if n <= 0 {
		return Unbounded
	}
	return func(turns []Turn) []Turn {
		if len(turns) <= n {
			return turns
		}
		return turns[len(turns)-n:]
	}
}

// Option configures a State.
type Option func(*State)

// WithWindow sets the replay window.
func WithWindow(w Window) Option {
	return func(s *State) {
		if w != nil {
			s.window = w
		}
	}
}

// State is an append-only, insertion-ordered log of turns. It is safe for
// concurrent use.
type State struct {
	mu     sync.RWMutex
	turns  []Turn
	window Window
	now    func() time.Time
}

func New(opts ...Option) *State {
	s := &State{window: Unbounded, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds turn at the end of the log. Turns with a role other than user
// or assistant are rejected.
func (s *State) Append(turn Turn) error {
	if !turn.Role.Valid() {
		return fmt.Errorf("conversation: invalid role %q", turn.Role)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
	return nil
}

// AppendExchange appends a user question and the assistant answer together.
func (s *State) AppendExchange(question, answer string) {
	now := s.now()
	s.mu.Lock()
	s.turns = append(s.turns,
		Turn{Role: RoleUser, Content: question, CreatedAt: now},
		Turn{Role: RoleAssistant, Content: answer, CreatedAt: now},
	)
	s.mu.Unlock()
}

// History returns a copy of every turn in insertion order.
func (s *State) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Replay returns the windowed view of the history sent to the model.
func (s *State) Replay() []Turn {
	return s.window(s.History())
}

// Len returns the number of turns.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
