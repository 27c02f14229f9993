// Package prompt renders aggregated evidence into the bounded text blocks
// sent to the language model.
package prompt

import (
	"fmt"
	"strings"

	"marketcompanion/internal/evidence"
)

const (
	// MaxNewsHeadlines is the hard ceiling on headlines per instrument.
	MaxNewsHeadlines = 5
	// MaxSocialPosts is the hard ceiling on social posts per instrument.
	MaxSocialPosts = 5

	// Placeholder stands in for evidence that is entirely absent.
	Placeholder = "No market data available"

	quotesHeader = "STOCK PRICES:"
	newsHeader   = "NEWS HEADLINES:"
	socialHeader = "SOCIAL SENTIMENT:"
)

// Caps bounds how much of a bundle one rendering form includes.
type Caps struct {
	News  int
	Posts int
}

var (
	DefaultSynthesisCaps    = Caps{News: 5, Posts: 2}
	DefaultConversationCaps = Caps{News: 5, Posts: 2}
)

func (c Caps) clamp(def Caps) Caps {
	if c.News <= 0 {
		c.News = def.News
	}
	if c.Posts <= 0 {
		c.Posts = def.Posts
	}
	c.News = min(c.News, MaxNewsHeadlines)
	c.Posts = min(c.Posts, MaxSocialPosts)
	return c
}

// Builder renders both prompt forms. It holds no state beyond its caps and
// the same input always yields the same text.
type Builder struct {
	synthesis    Caps
	conversation Caps
}

// NewBuilder returns a Builder. Non-positive caps take the defaults and
// every cap is clamped to the hard ceilings.
func NewBuilder(synthesis, conversation Caps) *Builder {
	return &Builder{
		synthesis:    synthesis.clamp(DefaultSynthesisCaps),
		conversation: conversation.clamp(DefaultConversationCaps),
	}
}

// Default returns a Builder with the default caps.
func Default() *Builder { return NewBuilder(DefaultSynthesisCaps, DefaultConversationCaps) }

func (b *Builder) SynthesisCaps() Caps    { return b.synthesis }
func (b *Builder) ConversationCaps() Caps { return b.conversation }

// RenderSynthesisEvidence renders the evidence block embedded in the
// synthesis request.
func (b *Builder) RenderSynthesisEvidence(instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle) string {
	return render(instruments, bundles, b.synthesis)
}

// RenderConversationPreamble renders the system message that grounds a chat
// exchange in the evidence.
func (b *Builder) RenderConversationPreamble(instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle) string {
	var sb strings.Builder
	sb.WriteString(conversationRole)
	sb.WriteString("\n\nUser context:\n")
	sb.WriteString(render(instruments, bundles, b.conversation))
	sb.WriteString("\n\n")
	sb.WriteString(conversationClosing)
	return sb.String()
}

// SynthesisPrompt is the single user message asking for the four-field
// summary.
func (b *Builder) SynthesisPrompt(instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle) string {
	return fmt.Sprintf(synthesisTemplate, joinSymbols(instruments), b.RenderSynthesisEvidence(instruments, bundles))
}

// UserTurn formats a chat question together with the tracked instruments.
func UserTurn(question string, instruments []evidence.Instrument) string {
	return fmt.Sprintf("Portfolio tickers: %s\n\nUser question: %s", joinSymbols(instruments), question)
}

// ClassifyPrompt is the single user message asking for a sentiment
// classification of text.
func ClassifyPrompt(text string) string {
	return fmt.Sprintf(classifyTemplate, text)
}

func joinSymbols(instruments []evidence.Instrument) string {
	return strings.Join(evidence.Strings(instruments), ", ")
}

func render(instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle, caps Caps) string {
	ordered := make([]*evidence.Bundle, 0, len(instruments))
	empty := true
	for _, sym := range instruments {
		bundle, ok := bundles[sym]
		if !ok || bundle == nil {
			continue
		}
		ordered = append(ordered, bundle)
		if !bundle.Empty() {
			empty = false
		}
	}
	if empty {
		return Placeholder
	}

	var lines []string
	section := func(header string, body []string) {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, header)
		if len(body) == 0 {
			body = []string{"  " + Placeholder}
		}
		lines = append(lines, body...)
	}

	var quotes, news, posts []string
	for _, bundle := range ordered {
		sym := string(bundle.Symbol)
		switch {
		case bundle.Quote != nil:
			q := bundle.Quote
			quotes = append(quotes, fmt.Sprintf("  %s: $%.2f (%+.2f%%) %s", sym, q.Price, q.ChangePercent, marker(q.ChangePercent)))
		case bundle.QuoteErr != nil:
			quotes = append(quotes, fmt.Sprintf("  %s: Error: %s", sym, bundle.QuoteErr.Error()))
		}

		if n := min(len(bundle.News), caps.News); n > 0 {
			news = append(news, "  "+sym+":")
			for _, item := range bundle.News[:n] {
				news = append(news, "    - "+orDefault(item.Title, "No title"))
			}
		}

		if n := min(len(bundle.Posts), caps.Posts); n > 0 {
			posts = append(posts, "  "+sym+":")
			for _, p := range bundle.Posts[:n] {
				posts = append(posts, fmt.Sprintf("    - %s (Score: %d %s)", orDefault(p.Title, "No title"), p.Score, marker(float64(p.Score))))
			}
		}
	}

	section(quotesHeader, quotes)
	section(newsHeader, news)
	section(socialHeader, posts)
	return strings.Join(lines, "\n")
}

func marker(v float64) string {
	switch {
	case v > 0:
		return "▲"
	case v < 0:
		return "▼"
	default:
		return "▶"
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
