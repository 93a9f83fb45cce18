package logger

import (
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*logrus.Entry
}

// Options configures the process-wide base logger.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Hooks      []logrus.Hook
}

var (
	mu   sync.RWMutex
	base = newBase(os.Stdout, os.Getenv("LOG_LEVEL"))
)

func newBase(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()

	// Local env = pretty console; others = JSON
	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     out == os.Stdout,
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}
	l.SetOutput(out)
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps debug/warn/error to logrus levels, anything else is info.
func ParseLevel(level string) logrus.Level {
	switch level {
	case "debug", "DEBUG":
		return logrus.DebugLevel
	case "warn", "WARN", "WARNING", "warning":
		return logrus.WarnLevel
	case "error", "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Setup replaces the base logger. When File is set, output goes to both
// stdout and a size-rotated file.
func Setup(opts Options) *logrus.Logger {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}
	level := opts.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	l := newBase(out, level)
	for _, h := range opts.Hooks {
		l.AddHook(h)
	}

	mu.Lock()
	base = l
	mu.Unlock()
	return l
}

// Base returns the current base logger.
func Base() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func New() *Logger {
	return &Logger{Entry: logrus.NewEntry(Base())}
}

// WithRequest attaches request metadata and returns an entry
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"req_id":     RequestID(r),
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// RequestID returns the caller supplied X-Request-ID or a fresh one, which is
// written back onto the request so later calls agree.
func RequestID(r *http.Request) string {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.New().String()
		r.Header.Set("X-Request-ID", reqID)
	}
	return reqID
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
