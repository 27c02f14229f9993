package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"marketcompanion/internal/evidence"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Log struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

type Finnhub struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type NewsAPI struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Language string `json:"language"`
	PageSize int    `json:"page_size"`
}

type Reddit struct {
	BaseURL         string   `json:"base_url"`
	Channels        []string `json:"channels"`
	PostsPerChannel int      `json:"posts_per_channel"`
}

// Fetch bounds the aggregator fan-out.
type Fetch struct {
	SourceTimeoutSec int `json:"source_timeout_sec"`
	DeadlineSec      int `json:"deadline_sec"`
	MaxConcurrency   int `json:"max_concurrency"`
}

type LLM struct {
	APIKey             string `json:"api_key"`
	BaseURL            string `json:"base_url"`
	Model              string `json:"model"`
	SynthesisMaxTokens int    `json:"synthesis_max_tokens"`
	ChatMaxTokens      int    `json:"chat_max_tokens"`
	ClassifyMaxTokens  int    `json:"classify_max_tokens"`
	TimeoutSec         int    `json:"timeout_sec"`
}

// Prompt holds the per-instrument render caps for both prompt forms.
type Prompt struct {
	SynthesisNews     int `json:"synthesis_news"`
	SynthesisPosts    int `json:"synthesis_posts"`
	ConversationNews  int `json:"conversation_news"`
	ConversationPosts int `json:"conversation_posts"`
}

type Conversation struct {
	// HistoryWindow caps how many past turns are replayed to the model.
	// 0 replays the full history.
	HistoryWindow int `json:"history_window"`
}

type Config struct {
	Server       Server       `json:"server"`
	Log          Log          `json:"log"`
	Finnhub      Finnhub      `json:"finnhub"`
	NewsAPI      NewsAPI      `json:"newsapi"`
	Reddit       Reddit       `json:"reddit"`
	Fetch        Fetch        `json:"fetch"`
	LLM          LLM          `json:"llm"`
	Prompt       Prompt       `json:"prompt"`
	Conversation Conversation `json:"conversation"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 90},
		Log:    Log{Level: "info", Pretty: true},
		Finnhub: Finnhub{BaseURL: "https://finnhub.io/api/v1"},
		NewsAPI: NewsAPI{
			BaseURL:  "https://newsapi.org/v2",
			Language: "en",
			PageSize: 5,
		},
		Reddit: Reddit{
			BaseURL:         "https://www.reddit.com",
			Channels:        []string{"investing", "stocks", "SecurityAnalysis", "ValueInvesting", "wallstreetbets"},
			PostsPerChannel: 3,
		},
		Fetch: Fetch{SourceTimeoutSec: 10, DeadlineSec: 25, MaxConcurrency: 8},
		LLM: LLM{
			BaseURL:            "https://api.openai.com/v1",
			Model:              "o3",
			SynthesisMaxTokens: 1024,
			ChatMaxTokens:      1024,
			ClassifyMaxTokens:  256,
			TimeoutSec:         60,
		},
		Prompt: Prompt{SynthesisNews: 5, SynthesisPosts: 2, ConversationNews: 5, ConversationPosts: 2},
	}
}

// Load reads JSON config from path. If path is empty, config.json in the
// working directory is used when present. A .env file is loaded into the
// process environment next, then environment variables override select
// fields, and non-positive limits fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	applyEnv(&cfg)
	applyFloors(&cfg)
	return cfg, nil
}

// Validate reports the only fatal startup condition: a missing model key.
// Provider keys are optional; without them each call degrades on its own.
func (c Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return &evidence.ConfigurationError{Key: "OPENAI_API_KEY", Reason: "required to reach the language model"}
	}
	return nil
}

// Warnings lists optional settings that are missing.
func (c Config) Warnings() []string {
	var out []string
	if c.Finnhub.APIKey == "" {
		out = append(out, "FINNHUB_API_KEY not set; quotes will be unavailable")
	}
	if c.NewsAPI.APIKey == "" {
		out = append(out, "NEWS_API_KEY not set; news will be unavailable")
	}
	return out
}

func (f Fetch) SourceTimeout() time.Duration { return time.Duration(f.SourceTimeoutSec) * time.Second }
func (f Fetch) Deadline() time.Duration      { return time.Duration(f.DeadlineSec) * time.Second }
func (l LLM) Timeout() time.Duration         { return time.Duration(l.TimeoutSec) * time.Second }

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	setInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	setBool("LOG_PRETTY", &cfg.Log.Pretty)

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		cfg.Finnhub.BaseURL = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.NewsAPI.APIKey = v
	}
	if v := os.Getenv("NEWS_API_BASE_URL"); v != "" {
		cfg.NewsAPI.BaseURL = v
	}
	if v := os.Getenv("REDDIT_BASE_URL"); v != "" {
		cfg.Reddit.BaseURL = v
	}
	if v := os.Getenv("SOCIAL_CHANNELS"); v != "" {
		cfg.Reddit.Channels = splitCSV(v)
	}

	setInt("SOURCE_TIMEOUT_SEC", &cfg.Fetch.SourceTimeoutSec)
	setInt("FETCH_DEADLINE_SEC", &cfg.Fetch.DeadlineSec)
	setInt("FETCH_CONCURRENCY", &cfg.Fetch.MaxConcurrency)

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	setInt("LLM_SYNTHESIS_MAX_TOKENS", &cfg.LLM.SynthesisMaxTokens)
	setInt("LLM_CHAT_MAX_TOKENS", &cfg.LLM.ChatMaxTokens)
	setInt("LLM_CLASSIFY_MAX_TOKENS", &cfg.LLM.ClassifyMaxTokens)
	setInt("LLM_TIMEOUT_SEC", &cfg.LLM.TimeoutSec)

	setInt("HISTORY_WINDOW", &cfg.Conversation.HistoryWindow)
}

// applyFloors replaces non-positive limits with defaults so no ceiling is
// ever silently unlimited.
func applyFloors(cfg *Config) {
	def := Default()
	floor := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	floor(&cfg.Server.RequestTimeoutSec, def.Server.RequestTimeoutSec)
	floor(&cfg.NewsAPI.PageSize, def.NewsAPI.PageSize)
	floor(&cfg.Reddit.PostsPerChannel, def.Reddit.PostsPerChannel)
	floor(&cfg.Fetch.SourceTimeoutSec, def.Fetch.SourceTimeoutSec)
	floor(&cfg.Fetch.DeadlineSec, def.Fetch.DeadlineSec)
	floor(&cfg.Fetch.MaxConcurrency, def.Fetch.MaxConcurrency)
	floor(&cfg.LLM.SynthesisMaxTokens, def.LLM.SynthesisMaxTokens)
	floor(&cfg.LLM.ChatMaxTokens, def.LLM.ChatMaxTokens)
	floor(&cfg.LLM.ClassifyMaxTokens, def.LLM.ClassifyMaxTokens)
	floor(&cfg.LLM.TimeoutSec, def.LLM.TimeoutSec)
	floor(&cfg.Prompt.SynthesisNews, def.Prompt.SynthesisNews)
	floor(&cfg.Prompt.SynthesisPosts, def.Prompt.SynthesisPosts)
	floor(&cfg.Prompt.ConversationNews, def.Prompt.ConversationNews)
	floor(&cfg.Prompt.ConversationPosts, def.Prompt.ConversationPosts)
	if cfg.Conversation.HistoryWindow < 0 {
		cfg.Conversation.HistoryWindow = 0
	}
	if len(cfg.Reddit.Channels) == 0 {
		cfg.Reddit.Channels = def.Reddit.Channels
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = x
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			*dst = true
		case "0", "false", "no", "n":
			*dst = false
		}
	}
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string { return splitCSV(s) }

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
