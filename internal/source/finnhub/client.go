// Package finnhub is the quote provider client.
package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"marketcompanion/internal/evidence"
	"marketcompanion/internal/httpx"
	"marketcompanion/internal/source"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	providerName   = "finnhub"
	probeSymbol    = "AAPL"
)

var errNoQuote = fmt.Errorf("%w: empty quote", evidence.ErrMalformedResponse)

// Client is a client for the quote API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient httpx.HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// token is sent as the access-token query parameter.
	token string
}

var (
	_ source.QuoteSource = (*Client)(nil)
	_ source.Prober      = (*Client)(nil)
)

// Option is a configuration option for the quote client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// New creates a new quote client.
func New(token string, options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		token:      token,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return providerName }

// quoteResponse mirrors the provider payload: c=current, pc=previous close.
type quoteResponse struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
}

// Quote fetches the latest quote for symbol.
func (c *Client) Quote(ctx context.Context, symbol evidence.Instrument) (evidence.Quote, error) {
	raw, err := c.get(ctx, symbol)
	if err != nil {
		return evidence.Quote{}, source.Classify(providerName, symbol, err)
	}
	if raw.Current == 0 && raw.PreviousClose == 0 {
		return evidence.Quote{}, source.Classify(providerName, symbol, errNoQuote)
	}
	return evidence.NewQuote(raw.Current, raw.PreviousClose, raw.High, raw.Low, raw.Open), nil
}

// Probe fetches a well-known symbol.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.get(ctx, probeSymbol)
	return err
}

func (c *Client) get(ctx context.Context, symbol evidence.Instrument) (quoteResponse, error) {
	var out quoteResponse
	if symbol == "" {
		return out, errors.New("empty symbol")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote", http.NoBody)
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	q := req.URL.Query()
	q.Set("symbol", string(symbol))
	q.Set("token", c.token)
	req.URL.RawQuery = q.Encode()

	if err := httpx.GetJSON(c.httpClient, req, &out); err != nil {
		return out, err
	}
	return out, nil
}

