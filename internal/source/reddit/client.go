// Package reddit is the social provider client. It searches a fixed set of
// investing forums for posts mentioning an instrument.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"marketcompanion/internal/evidence"
	"marketcompanion/internal/httpx"
	"marketcompanion/internal/source"
)

const (
	defaultBaseURL = "https://www.reddit.com"
	providerName   = "reddit"
	permalinkHost  = "https://reddit.com"

	// MaxChannels bounds how many forums are searched per instrument.
	MaxChannels = 5
	// MaxPosts caps the merged result per instrument.
	MaxPosts = 5
	// DefaultPostsPerChannel is the per-forum search limit.
	DefaultPostsPerChannel = 3
)

// DefaultChannels are searched when none are configured.
var DefaultChannels = []string{"investing", "stocks", "SecurityAnalysis", "ValueInvesting", "wallstreetbets"}

// Client searches forums one at a time and merges the results.
type Client struct {
	baseURL         string
	channels        []string
	postsPerChannel int
	httpClient      httpx.HTTPClient
}

var (
	_ source.SocialSource = (*Client)(nil)
	_ source.Prober       = (*Client)(nil)
)

// Option is a configuration option for the social client.
type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithChannels replaces the searched forums. At most MaxChannels are kept.
func WithChannels(channels ...string) Option {
	return func(c *Client) {
		var out []string
		for _, ch := range channels {
			ch = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ch), "r/"))
			if ch != "" {
				out = append(out, ch)
			}
		}
		if len(out) > MaxChannels {
			out = out[:MaxChannels]
		}
		if len(out) > 0 {
			c.channels = out
		}
	}
}

func WithPostsPerChannel(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.postsPerChannel = n
		}
	}
}

func WithHTTPClient(httpClient httpx.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a social client. The HTTP client must send a User-Agent;
// httpx.Client does.
func New(options ...Option) *Client {
	c := &Client{
		baseURL:         defaultBaseURL,
		channels:        DefaultChannels,
		postsPerChannel: DefaultPostsPerChannel,
		httpClient:      httpx.New(0),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return providerName }

// Channels returns the searched forums.
func (c *Client) Channels() []string { return append([]string(nil), c.channels...) }

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title       string  `json:"title"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
}

func (p post) toEvidence(channel string) evidence.SocialPost {
	sec := int64(p.CreatedUTC)
	ch := p.Subreddit
	if ch == "" {
		ch = channel
	}
	link := ""
	if p.Permalink != "" {
		link = permalinkHost + p.Permalink
	}
	return evidence.SocialPost{
		Title:       p.Title,
		Score:       p.Score,
		NumComments: p.NumComments,
		CreatedUTC:  time.Unix(sec, 0).UTC(),
		Channel:     ch,
		URL:         link,
		Excerpt:     evidence.Excerpt(p.Selftext),
	}
}

// Posts searches every channel for symbol, skipping channels that fail, and
// returns the top MaxPosts by score. It errors only when every channel failed,
// so callers can tell an outage from a symbol nobody is discussing; the
// rendered prompt is the same in both cases.
func (c *Client) Posts(ctx context.Context, symbol evidence.Instrument) ([]evidence.SocialPost, error) {
	var (
		all  []evidence.SocialPost
		errs []error
	)
	for _, ch := range c.channels {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		got, err := c.search(ctx, ch, symbol)
		if err != nil {
			errs = append(errs, fmt.Errorf("r/%s: %w", ch, err))
			continue
		}
		all = append(all, got...)
	}
	if len(all) == 0 && len(errs) > 0 {
		return nil, source.Classify(providerName, symbol, errors.Join(errs...))
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > MaxPosts {
		all = all[:MaxPosts]
	}
	if all == nil {
		all = []evidence.SocialPost{}
	}
	return all, nil
}

// Probe reads one hot post from the first channel.
func (c *Client) Probe(ctx context.Context) error {
	u := fmt.Sprintf("%s/r/%s/hot.json?limit=1", c.baseURL, url.PathEscape(c.channels[0]))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	var l listing
	return httpx.GetJSON(c.httpClient, req, &l)
}

func (c *Client) search(ctx context.Context, channel string, symbol evidence.Instrument) ([]evidence.SocialPost, error) {
	u := fmt.Sprintf("%s/r/%s/search.json", c.baseURL, url.PathEscape(channel))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", string(symbol))
	q.Set("restrict_sr", "1")
	q.Set("sort", "new")
	q.Set("limit", strconv.Itoa(c.postsPerChannel))
	req.URL.RawQuery = q.Encode()

	var l listing
	if err := httpx.GetJSON(c.httpClient, req, &l); err != nil {
		return nil, err
	}
	out := make([]evidence.SocialPost, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		out = append(out, child.Data.toEvidence(channel))
	}
	return out, nil
}
