package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-compliance-go/internal/app"
	"call-compliance-go/internal/config"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/server"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.New().WithError(err).Fatal("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.New().WithError(err).Fatal("invalid config")
	}
	closeLogs := app.SetupLogging(cfg, "api", !cfg.Logging.Forward)
	defer closeLogs()

	log := logger.New()
	log.WithField("config", *configPath).Info("starting service")

	rules, err := config.LoadRules(cfg.Rules)
	if err != nil {
		log.WithError(err).Fatal("failed to load rules")
	}
	backends, err := app.BuildAnalyzer(cfg, rules)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize analyzer")
	}
	defer backends.Close()
	log.WithField("mock_transcribe", cfg.Backends.MockTranscribe).
		WithField("mock_sentiment", cfg.Backends.MockSentiment).
		WithField("mock_diarization", cfg.Backends.MockDiarization).
		WithField("cache", cfg.Cache.Driver).
		Info("analyzer initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Rules.Watch {
		go func() {
			err := config.WatchRules(ctx, cfg.Rules, log.WithField("component", "rules"), func(r *config.Rules) {
				if err := backends.Analyzer.SetRules(r); err != nil {
					log.WithError(err).Warn("rejected reloaded rules")
				}
			})
			if err != nil {
				log.WithError(err).Warn("rules watcher stopped")
			}
		}()
	}

	api := server.New(backends.Analyzer, cfg.Server.Title, cfg.Server.Description, int64(cfg.Server.MaxUploadMB)<<20)
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server terminated")
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}
}
