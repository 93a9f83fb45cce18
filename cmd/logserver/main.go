package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/logsink"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.New().WithError(err).Fatal("failed to load config")
	}

	// The sink writes to stdout and the rotating log file. It never forwards
	// to itself.
	out := logger.Setup(logger.Options{
		Level:      cfg.Logging.MinLogLevel,
		File:       cfg.Logging.LogFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := logsink.NewServer(cfg.Logging.LogAddress, out)
	if err := srv.Run(ctx); err != nil {
		logger.New().WithError(err).WithField("address", cfg.Logging.LogAddress).Fatal("logging server error")
	}
}
