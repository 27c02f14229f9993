// Package app wires the provider clients, aggregator and model gateway from
// configuration. The server and CLI programs share it.
package app

import (
	"github.com/rs/zerolog"

	"marketcompanion/internal/aggregate"
	"marketcompanion/internal/config"
	"marketcompanion/internal/httpx"
	"marketcompanion/internal/llm"
	"marketcompanion/internal/prompt"
	"marketcompanion/internal/source"
	"marketcompanion/internal/source/finnhub"
	"marketcompanion/internal/source/newsapi"
	"marketcompanion/internal/source/reddit"
)

type App struct {
	Config     config.Config
	HTTP       *httpx.Client
	Quotes     *finnhub.Client
	News       *newsapi.Client
	Social     *reddit.Client
	Aggregator *aggregate.Aggregator
	Prompts    *prompt.Builder
	Gateway    *llm.Gateway
}

// Build constructs every component. A missing model key still yields a
// gateway; its calls degrade to fallbacks.
func Build(cfg config.Config, log zerolog.Logger) *App {
	// Per-call deadlines come from the aggregator's contexts; the client
	// timeout is a backstop.
	hc := httpx.New(cfg.Fetch.Deadline())

	quotes := finnhub.New(cfg.Finnhub.APIKey,
		finnhub.WithBaseURL(cfg.Finnhub.BaseURL),
		finnhub.WithHTTPClient(hc),
	)
	news := newsapi.New(newsapi.Config{
		BaseURL:  cfg.NewsAPI.BaseURL,
		APIKey:   cfg.NewsAPI.APIKey,
		Language: cfg.NewsAPI.Language,
		PageSize: cfg.NewsAPI.PageSize,
	}, hc)
	social := reddit.New(
		reddit.WithBaseURL(cfg.Reddit.BaseURL),
		reddit.WithChannels(cfg.Reddit.Channels...),
		reddit.WithPostsPerChannel(cfg.Reddit.PostsPerChannel),
		reddit.WithHTTPClient(hc),
	)

	agg := aggregate.New(quotes, news, social, aggregate.Config{
		SourceTimeout:  cfg.Fetch.SourceTimeout(),
		Deadline:       cfg.Fetch.Deadline(),
		MaxConcurrency: cfg.Fetch.MaxConcurrency,
	}, log)

	prompts := prompt.NewBuilder(
		prompt.Caps{News: cfg.Prompt.SynthesisNews, Posts: cfg.Prompt.SynthesisPosts},
		prompt.Caps{News: cfg.Prompt.ConversationNews, Posts: cfg.Prompt.ConversationPosts},
	)

	gw := llm.New(
		llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout()),
		prompts,
		llm.Config{
			Model:              cfg.LLM.Model,
			SynthesisMaxTokens: cfg.LLM.SynthesisMaxTokens,
			ChatMaxTokens:      cfg.LLM.ChatMaxTokens,
			ClassifyMaxTokens:  cfg.LLM.ClassifyMaxTokens,
			Timeout:            cfg.LLM.Timeout(),
		},
		log,
	)

	return &App{
		Config:     cfg,
		HTTP:       hc,
		Quotes:     quotes,
		News:       news,
		Social:     social,
		Aggregator: agg,
		Prompts:    prompts,
		Gateway:    gw,
	}
}

// Probers lists every reachable endpoint: the three providers and the model.
func (a *App) Probers() []source.Prober {
	return []source.Prober{a.Quotes, a.News, a.Social, a.Gateway}
}
