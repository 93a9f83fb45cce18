package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-compliance-go/internal/app"
	"call-compliance-go/internal/config"
	"call-compliance-go/internal/frontend"
	"call-compliance-go/internal/logger"
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
	closeLogs := app.SetupLogging(cfg, "frontend", !cfg.Logging.Forward)
	defer closeLogs()

	log := logger.New()
	fe := cfg.Frontend
	client := frontend.NewClient(fe.BackendURL, time.Duration(fe.TimeoutSec)*time.Second,
		time.Duration(cfg.Backends.MaxRetrySec)*time.Second)
	ui := frontend.NewServer(client, int64(cfg.Server.MaxUploadMB)<<20)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", fe.Port),
		Handler:     ui.Handler(),
		ReadTimeout: time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		// Diarization requests can take as long as the backend timeout.
		WriteTimeout: time.Duration(fe.TimeoutSec+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).WithField("backend", fe.BackendURL).Info("frontend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("frontend terminated")
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
