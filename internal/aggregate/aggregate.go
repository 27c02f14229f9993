// Package aggregate fans evidence requests out to every provider for every
// instrument and merges the results into one bundle per instrument.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"marketcompanion/internal/evidence"
	"marketcompanion/internal/source"
)

var errNotConfigured = errors.New("provider not configured")

// Config bounds the fan-out.
type Config struct {
	// SourceTimeout bounds each provider call.
	SourceTimeout time.Duration
	// Deadline bounds the whole FetchAll call.
	Deadline time.Duration
	// MaxConcurrency is the worker pool size.
	MaxConcurrency int
}

// DefaultConfig returns a 10s per-call timeout, a 25s overall deadline and
// eight workers.
func DefaultConfig() Config {
	return Config{SourceTimeout: 10 * time.Second, Deadline: 25 * time.Second, MaxConcurrency: 8}
}

// Aggregator gathers quote, news and social evidence. Any of the sources
// may be nil, in which case that field is reported as unavailable.
type Aggregator struct {
	quotes source.QuoteSource
	news   source.NewsSource
	social source.SocialSource
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

func New(quotes source.QuoteSource, news source.NewsSource, social source.SocialSource, cfg Config, log zerolog.Logger) *Aggregator {
	def := DefaultConfig()
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = def.SourceTimeout
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = def.Deadline
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	return &Aggregator{
		quotes: quotes,
		news:   news,
		social: social,
		cfg:    cfg,
		log:    log.With().Str("component", "aggregate").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FetchAll returns exactly one bundle per distinct instrument. A provider
// failure only sets the matching error field; it never cancels other calls.
// Calls that had not started when the deadline passed are reported as
// unavailable.
func (a *Aggregator) FetchAll(ctx context.Context, instruments []evidence.Instrument) map[evidence.Instrument]*evidence.Bundle {
	out := make(map[evidence.Instrument]*evidence.Bundle, len(instruments))
	bundles := make([]*evidence.Bundle, 0, len(instruments))
	for _, sym := range instruments {
		if _, ok := out[sym]; ok {
			continue
		}
		b := evidence.NewBundle(sym)
		out[sym] = b
		bundles = append(bundles, b)
	}
	if len(bundles) == 0 {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Deadline)
	defer cancel()

	// Tasks never return an error, so one failure cannot cancel its siblings.
	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrency)
	for _, b := range bundles {
		g.Go(func() error { a.fetchQuote(ctx, b); return nil })
		g.Go(func() error { a.fetchNews(ctx, b); return nil })
		g.Go(func() error { a.fetchPosts(ctx, b); return nil })
	}
	_ = g.Wait()

	fetched := a.now()
	for _, b := range bundles {
		b.FetchedAt = fetched
		if err := b.Partial(); err != nil {
			a.log.Debug().Err(err).Str("symbol", string(b.Symbol)).Msg("partial evidence")
		}
	}
	return out
}

func (a *Aggregator) fetchQuote(ctx context.Context, b *evidence.Bundle) {
	name := sourceName(a.quotes, "quote")
	a.call(ctx, name, b.Symbol, func(se *evidence.SourceError) { b.QuoteErr = se }, func(ctx context.Context) error {
		if a.quotes == nil {
			return errNotConfigured
		}
		q, err := a.quotes.Quote(ctx, b.Symbol)
		if err != nil {
			return err
		}
		b.Quote = &q
		return nil
	})
}

func (a *Aggregator) fetchNews(ctx context.Context, b *evidence.Bundle) {
	name := sourceName(a.news, "news")
	a.call(ctx, name, b.Symbol, func(se *evidence.SourceError) { b.NewsErr = se }, func(ctx context.Context) error {
		if a.news == nil {
			return errNotConfigured
		}
		items, err := a.news.News(ctx, b.Symbol)
		if err != nil {
			return err
		}
		if items != nil {
			b.News = items
		}
		return nil
	})
}

func (a *Aggregator) fetchPosts(ctx context.Context, b *evidence.Bundle) {
	name := sourceName(a.social, "social")
	a.call(ctx, name, b.Symbol, func(se *evidence.SourceError) { b.PostsErr = se }, func(ctx context.Context) error {
		if a.social == nil {
			return errNotConfigured
		}
		posts, err := a.social.Posts(ctx, b.Symbol)
		if err != nil {
			return err
		}
		if posts != nil {
			b.Posts = posts
		}
		return nil
	})
}

// call runs fn under the per-call timeout and routes any error, including a
// recovered panic, into fail.
func (a *Aggregator) call(ctx context.Context, provider string, sym evidence.Instrument, fail func(*evidence.SourceError), fn func(context.Context) error) {
	report := func(err error) {
		se := source.Classify(provider, sym, err)
		a.log.Warn().
			Str("provider", provider).
			Str("symbol", string(sym)).
			Int("status", se.StatusCode).
			Err(err).
			Msg("source call failed")
		fail(se)
	}
	defer func() {
		if r := recover(); r != nil {
			report(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		report(fmt.Errorf("fetch deadline: %w", err))
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
	defer cancel()
	if err := fn(callCtx); err != nil {
		report(err)
	}
}

type named interface{ Name() string }

func sourceName(s named, fallback string) string {
	if s == nil {
		return fallback
	}
	return s.Name()
}

// ProbeAll checks every prober concurrently and reports reachability by name.
func (a *Aggregator) ProbeAll(ctx context.Context, probers ...source.Prober) map[string]bool {
	out := make(map[string]bool, len(probers))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrency)
	for _, p := range probers {
		if p == nil {
			continue
		}
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
			defer cancel()
			err := p.Probe(callCtx)
			if err != nil {
				a.log.Warn().Str("provider", p.Name()).Err(err).Msg("probe failed")
			}
			mu.Lock()
			out[p.Name()] = err == nil
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
