package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable covers non-2xx responses, timeouts and network failures.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedResponse is an unexpected payload shape from a provider or the model.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrPartialData marks a bundle with one or more failed fields. Never fatal.
	ErrPartialData = errors.New("partial data")
	// ErrLLMInvocation covers quota, timeout or invalid output from the model.
	ErrLLMInvocation = errors.New("llm invocation failed")
	// ErrConfiguration is a missing required credential at startup.
	ErrConfiguration = errors.New("configuration error")
)

// SourceError is a per-call failure from one provider for one instrument.
type SourceError struct {
	Provider   string     `json:"provider"`
	Symbol     Instrument `json:"symbol"`
	Kind       error      `json:"-"`
	StatusCode int        `json:"status_code,omitempty"`
	Message    string     `json:"message"`
}

func (e *SourceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.Symbol != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Symbol))
	}
	b.WriteString(": ")
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *SourceError) Unwrap() error { return e.Kind }

// MarshalJSON adds the rendered error string so callers can show it inline.
func (e *SourceError) MarshalJSON() ([]byte, error) {
	type alias SourceError
	kind := ""
	if e.Kind != nil {
		kind = e.Kind.Error()
	}
	return json.Marshal(struct {
		*alias
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}{alias: (*alias)(e), Kind: kind, Error: e.Error()})
}

// Unavailable builds a SourceUnavailable error.
func Unavailable(provider string, symbol Instrument, status int, err error) *SourceError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &SourceError{Provider: provider, Symbol: symbol, Kind: ErrSourceUnavailable, StatusCode: status, Message: msg}
}

// Malformed builds a MalformedResponse error.
func Malformed(provider string, symbol Instrument, err error) *SourceError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &SourceError{Provider: provider, Symbol: symbol, Kind: ErrMalformedResponse, Message: msg}
}

// AsSourceError converts any error into a SourceError for provider and symbol.
// Errors that already are SourceErrors pass through unchanged.
func AsSourceError(provider string, symbol Instrument, err error) *SourceError {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, ErrMalformedResponse) {
		return Malformed(provider, symbol, err)
	}
	return Unavailable(provider, symbol, 0, err)
}

// PartialDataError lists the evidence fields that could not be fetched.
type PartialDataError struct {
	Symbol  Instrument
	Missing []string
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("%s: partial data, missing %s", e.Symbol, strings.Join(e.Missing, ", "))
}

func (e *PartialDataError) Unwrap() error { return ErrPartialData }

// ConfigurationError is returned at startup when a required setting is absent.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
