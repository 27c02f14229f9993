// Package evidence holds the per-instrument market signals gathered from the
// quote, news and social providers, and the error taxonomy used when one of
// them fails.
package evidence

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Instrument is an upper-case ticker symbol. It is the identity key for all evidence.
type Instrument string

// ParseInstruments trims and upper-cases raw symbols, drops empties and
// de-duplicates while keeping the first occurrence.
func ParseInstruments(raw []string) []Instrument {
	out := make([]Instrument, 0, len(raw))
	seen := make(map[Instrument]struct{}, len(raw))
	for _, r := range raw {
		s := Instrument(strings.ToUpper(strings.TrimSpace(r)))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Strings returns the symbols as plain strings.
func Strings(in []Instrument) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

// Quote is a normalized price snapshot for one instrument.
type Quote struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
}

// NewQuote derives change and change percent from the current price and the
// previous close. Price, change and change percent are rounded to two decimals.
// Change is zero when either input is zero and change percent is zero when
// the previous close is zero.
func NewQuote(price, previousClose, high, low, open float64) Quote {
	c := decimal.NewFromFloat(price)
	pc := decimal.NewFromFloat(previousClose)

	change := decimal.Zero
	if !c.IsZero() && !pc.IsZero() {
		change = c.Sub(pc)
	}
	pct := decimal.Zero
	if !pc.IsZero() {
		pct = change.Div(pc).Mul(decimal.NewFromInt(100))
	}

	return Quote{
		Price:         c.Round(2).InexactFloat64(),
		Change:        change.Round(2).InexactFloat64(),
		ChangePercent: pct.Round(2).InexactFloat64(),
		High:          high,
		Low:           low,
		Open:          open,
		PreviousClose: previousClose,
	}
}

// NewsItem is one article returned by the news provider.
type NewsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	SourceName  string `json:"source_name"`
}

// SocialPost is one forum post mentioning an instrument.
type SocialPost struct {
	Title       string    `json:"title"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedUTC  time.Time `json:"created_utc"`
	Channel     string    `json:"channel"`
	URL         string    `json:"url"`
	Excerpt     string    `json:"excerpt"`
}

// ExcerptLimit is the maximum number of characters kept from a post body.
const ExcerptLimit = 200

// Excerpt truncates body to ExcerptLimit characters, appending "..." when
// anything was cut.
func Excerpt(body string) string {
	r := []rune(body)
	if len(r) <= ExcerptLimit {
		return body
	}
	return string(r[:ExcerptLimit]) + "..."
}

// Bundle is the evidence gathered for a single instrument. Each field is
// filled independently: a failure in one never prevents the others.
type Bundle struct {
	Symbol    Instrument   `json:"symbol"`
	Quote     *Quote       `json:"quote,omitempty"`
	QuoteErr  *SourceError `json:"quote_error,omitempty"`
	News      []NewsItem   `json:"news"`
	NewsErr   *SourceError `json:"news_error,omitempty"`
	Posts     []SocialPost `json:"posts"`
	PostsErr  *SourceError `json:"posts_error,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// NewBundle returns an empty bundle for symbol with non-nil slices.
func NewBundle(symbol Instrument) *Bundle {
	return &Bundle{Symbol: symbol, News: []NewsItem{}, Posts: []SocialPost{}}
}

// Empty reports whether the bundle carries no quote, no quote error, no news
// and no posts.
func (b *Bundle) Empty() bool {
	if b == nil {
		return true
	}
	return b.Quote == nil && b.QuoteErr == nil && len(b.News) == 0 && len(b.Posts) == 0
}

// Partial returns a PartialDataError naming each failed field, or nil when
// every provider answered.
func (b *Bundle) Partial() error {
	if b == nil {
		return nil
	}
	var missing []string
	if b.QuoteErr != nil {
		missing = append(missing, "quote")
	}
	if b.NewsErr != nil {
		missing = append(missing, "news")
	}
	if b.PostsErr != nil {
		missing = append(missing, "posts")
	}
	if len(missing) == 0 {
		return nil
	}
	return &PartialDataError{Symbol: b.Symbol, Missing: missing}
}
