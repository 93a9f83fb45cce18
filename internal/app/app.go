// Package app wires configuration into the logger and the analyzer. The
// commands share it so the API and the CLI behave the same.
package app

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"call-compliance-go/internal/cache"
	"call-compliance-go/internal/config"
	"call-compliance-go/internal/diarization"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/logsink"
	"call-compliance-go/internal/processor"
	"call-compliance-go/internal/sentiment"
	"call-compliance-go/internal/transcription"
)

// SetupLogging installs the base logger for service. When forwarding is on,
// entries are also pushed to the logging server; the returned func flushes
// and closes that hook.
func SetupLogging(cfg *config.Config, service string, logFile bool) func() {
	opts := logger.Options{
		Level:      cfg.Logging.MinLogLevel,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	if logFile {
		opts.File = cfg.Logging.LogFile
	}
	var hook *logsink.Hook
	if cfg.Logging.Forward {
		hook = logsink.NewHook(cfg.Logging.LogAddress, 1024)
		opts.Hooks = append(opts.Hooks, hook)
	}
	base := logger.Setup(opts)
	base.AddHook(serviceHook(service))

	return func() {
		if hook == nil {
			return
		}
		hook.Close(2 * time.Second)
		if n := hook.Dropped(); n > 0 {
			logger.New().WithField("dropped", n).Warn("log records dropped while forwarding")
		}
	}
}

// serviceHook stamps every entry with the emitting service.
type serviceHook string

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = string(h)
	}
	return nil
}

// Backends holds what BuildAnalyzer created so callers can close it.
type Backends struct {
	Analyzer *processor.Analyzer
	Cache    cache.Store
}

func (b *Backends) Close() error {
	if b.Cache == nil {
		return nil
	}
	return b.Cache.Close()
}

// BuildAnalyzer creates the backend clients (or their offline mocks), the
// transcription cache and the analyzer.
func BuildAnalyzer(cfg *config.Config, rules *config.Rules) (*Backends, error) {
	if err := cfg.RequireHFToken(); err != nil {
		return nil, err
	}
	b := cfg.Backends
	timeout := time.Duration(b.TimeoutSec) * time.Second
	retry := time.Duration(b.MaxRetrySec) * time.Second

	var tr transcription.Transcriber = transcription.Mock{}
	if !b.MockTranscribe {
		tr = transcription.NewClient(b.TranscribeURL, b.TranscribeModel, b.TranscribeAPIKey, timeout, retry)
	}
	store, err := cache.Open(cfg.Cache.Driver, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("transcription cache: %w", err)
	}
	tr = &transcription.Cached{Inner: tr, Store: store}

	var sa sentiment.Analyzer = sentiment.Lexicon{}
	if !b.MockSentiment {
		sa = sentiment.NewClient(b.SentimentURL, cfg.HFToken, b.SentimentMaxChars, timeout, retry)
	}

	var d diarization.Diarizer = diarization.Mock{}
	if !b.MockDiarization {
		d = diarization.NewClient(b.DiarizationURL, cfg.HFToken, time.Duration(b.DiarizeTimeoutSec)*time.Second, retry)
	}

	an, err := processor.New(tr, sa, d, rules)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &Backends{Analyzer: an, Cache: store}, nil
}
