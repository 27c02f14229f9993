package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"marketcompanion/internal/app"
	"marketcompanion/internal/config"
	"marketcompanion/internal/logging"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: true, Out: os.Stderr})
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	a := app.Build(cfg, log)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Fetch.Deadline())
	defer cancel()

	results := a.Aggregator.ProbeAll(ctx, a.Probers()...)
	if !printResults(os.Stdout, results) {
		os.Exit(1)
	}
}

// printResults writes one line per endpoint, sorted by name, and reports
// whether every endpoint answered.
func printResults(w io.Writer, results map[string]bool) bool {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	allOK := true
	for _, name := range names {
		status := "ok"
		if !results[name] {
			status = "unreachable"
			allOK = false
		}
		fmt.Fprintf(w, "%-10s %s\n", name, status)
	}
	return allOK
}
