// Package source defines the per-provider clients the aggregator fans out to.
// Each client fetches one kind of evidence for one instrument and reports
// failures as *evidence.SourceError.
package source

import (
	"context"
	"errors"

	"marketcompanion/internal/evidence"
	"marketcompanion/internal/httpx"
)

// QuoteSource fetches the latest quote for an instrument.
//
//go:generate mockgen -package=aggregate_test -destination=../aggregate/mock_sources_test.go -source=source.go
type QuoteSource interface {
	Name() string
	Quote(ctx context.Context, symbol evidence.Instrument) (evidence.Quote, error)
}

// NewsSource fetches recent articles for an instrument, newest first.
type NewsSource interface {
	Name() string
	News(ctx context.Context, symbol evidence.Instrument) ([]evidence.NewsItem, error)
}

// SocialSource fetches forum posts mentioning an instrument, highest score first.
type SocialSource interface {
	Name() string
	Posts(ctx context.Context, symbol evidence.Instrument) ([]evidence.SocialPost, error)
}

// Prober checks that a provider is reachable with a minimal request.
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// Classify converts a transport or decode error into a SourceError.
func Classify(provider string, symbol evidence.Instrument, err error) *evidence.SourceError {
	if err == nil {
		return nil
	}
	var se *evidence.SourceError
	if errors.As(err, &se) {
		return se
	}
	var st *httpx.StatusError
	if errors.As(err, &st) {
		return evidence.Unavailable(provider, symbol, st.Code, err)
	}
	var de *httpx.DecodeError
	if errors.As(err, &de) {
		return evidence.Malformed(provider, symbol, err)
	}
	return evidence.AsSourceError(provider, symbol, err)
}
