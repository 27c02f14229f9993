package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"marketcompanion/internal/app"
	"marketcompanion/internal/config"
	"marketcompanion/internal/logging"
	"marketcompanion/internal/server"
	"marketcompanion/internal/session"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	a := app.Build(cfg, log)
	store := session.NewStore(a.Aggregator, a.Gateway,
		session.WithHistoryWindow(cfg.Conversation.HistoryWindow),
		session.WithLogger(log),
	)
	api := server.New(server.Config{
		Evidence:       a.Aggregator,
		Model:          a.Gateway,
		Store:          store,
		Prompts:        a.Prompts,
		Probers:        a.Probers(),
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
		Log:            log,
	})
	srv := newHTTPServer(cfg.Server, api.Handler())

	go func() {
		log.Info().Str("addr", srv.Addr).Str("model", cfg.LLM.Model).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdown(srv, log)
}

// newHTTPServer leaves room past the request timeout so a slow synthesis
// can still write its response.
func newHTTPServer(cfg config.Server, h http.Handler) *http.Server {
	reqTimeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      reqTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
		return
	}
	log.Info().Msg("server stopped")
}
