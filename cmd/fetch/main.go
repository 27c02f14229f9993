package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"marketcompanion/internal/app"
	"marketcompanion/internal/config"
	"marketcompanion/internal/evidence"
	"marketcompanion/internal/logging"
)

func main() {
	var (
		symbolsCSV string
		configPath string
		render     bool
		synthesize bool
		timeout    int
	)
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL"), "comma-separated ticker symbols")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.BoolVar(&render, "render", false, "print the rendered synthesis evidence block")
	flag.BoolVar(&synthesize, "synthesize", false, "run synthesis over the fetched evidence")
	flag.IntVar(&timeout, "timeout", 0, "overall timeout seconds (defaults to the fetch deadline plus the model timeout)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: true, Out: os.Stderr})
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if synthesize {
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("config")
		}
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	instruments := evidence.ParseInstruments(config.SplitCSV(symbolsCSV))
	if len(instruments) == 0 {
		log.Fatal().Msg("no symbols provided")
	}

	total := time.Duration(timeout) * time.Second
	if total <= 0 {
		total = cfg.Fetch.Deadline() + cfg.LLM.Timeout()
	}
	ctx, cancel := context.WithTimeout(context.Background(), total)
	defer cancel()

	a := app.Build(cfg, log)
	bundles := a.Aggregator.FetchAll(ctx, instruments)
	for _, sym := range instruments {
		if err := bundles[sym].Partial(); err != nil {
			log.Warn().Err(err).Msg("partial evidence")
		}
	}

	out := report{Tickers: evidence.Strings(instruments)}
	for _, sym := range instruments {
		out.Evidence = append(out.Evidence, bundles[sym])
	}
	if render {
		out.Rendered = a.Prompts.RenderSynthesisEvidence(instruments, bundles)
	}
	if synthesize {
		res, err := a.Gateway.Synthesize(ctx, instruments, bundles)
		if err != nil {
			log.Error().Err(err).Msg("synthesis degraded")
		}
		out.Summary = &res
	}
	if err := writeReport(os.Stdout, out); err != nil {
		log.Fatal().Err(err).Msg("write")
	}
}

type report struct {
	Tickers  []string           `json:"tickers"`
	Evidence []*evidence.Bundle `json:"evidence"`
	Rendered string             `json:"rendered,omitempty"`
	Summary  any                `json:"summary,omitempty"`
}

func writeReport(w io.Writer, r report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
