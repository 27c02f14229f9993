// Package newsapi is the news provider client.
package newsapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"marketcompanion/internal/evidence"
	"marketcompanion/internal/httpx"
	"marketcompanion/internal/source"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"
	providerName   = "newsapi"

	// MaxArticles caps the articles kept per instrument.
	MaxArticles = 5
)

// Config controls the news query.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
	PageSize int
}

// Client queries the everything endpoint for recency-sorted articles.
type Client struct {
	cfg    Config
	client httpx.HTTPClient
}

var (
	_ source.NewsSource = (*Client)(nil)
	_ source.Prober     = (*Client)(nil)
)

// New returns a news client. A nil hc uses http.DefaultClient.
func New(cfg Config, hc httpx.HTTPClient) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxArticles {
		cfg.PageSize = MaxArticles
	}
	return &Client{cfg: cfg, client: hc}
}

func (c *Client) Name() string { return providerName }

type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type apiResponse struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

// Query builds the keyword query for symbol.
func Query(symbol evidence.Instrument) string {
	s := string(symbol)
	return fmt.Sprintf("%s stock OR %s earnings OR %s financial", s, s, s)
}

// News returns at most MaxArticles articles for symbol, newest first.
func (c *Client) News(ctx context.Context, symbol evidence.Instrument) ([]evidence.NewsItem, error) {
	api, err := c.everything(ctx, Query(symbol), c.cfg.PageSize)
	if err != nil {
		return nil, source.Classify(providerName, symbol, err)
	}
	n := len(api.Articles)
	if n > MaxArticles {
		n = MaxArticles
	}
	out := make([]evidence.NewsItem, 0, n)
	for _, a := range api.Articles[:n] {
		out = append(out, evidence.NewsItem{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
		})
	}
	return out, nil
}

// Probe runs a one-article query.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.everything(ctx, "stocks", 1)
	return err
}

func (c *Client) everything(ctx context.Context, query string, pageSize int) (apiResponse, error) {
	var api apiResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+"/everything", http.NoBody)
	if err != nil {
		return api, fmt.Errorf("creating request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("apiKey", c.cfg.APIKey)
	q.Set("language", c.cfg.Language)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(pageSize))
	req.URL.RawQuery = q.Encode()

	if err := httpx.GetJSON(c.client, req, &api); err != nil {
		return api, err
	}
	if strings.EqualFold(api.Status, "error") {
		return api, fmt.Errorf("%w: %s: %s", evidence.ErrMalformedResponse, api.Code, api.Message)
	}
	return api, nil
}
