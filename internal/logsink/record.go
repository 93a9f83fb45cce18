// Package logsink ships log records to the central logging server over a
// ZeroMQ PUSH/PULL pair and implements that server.
package logsink

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultAddress = "tcp://127.0.0.1:5555"

// Envelope is the wire format: {"record": {...}}.
type Envelope struct {
	Record Record `json:"record"`
}

type Record struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Time    *time.Time     `json:"time,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// Encode marshals a record inside its envelope.
func Encode(r Record) ([]byte, error) {
	return json.Marshal(Envelope{Record: r})
}

// Decode parses an envelope. A missing level defaults to INFO.
func Decode(b []byte) (Record, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Record{}, fmt.Errorf("decode log record: %w", err)
	}
	if env.Record.Level == "" {
		env.Record.Level = "INFO"
	}
	return env.Record, nil
}

// FromEntry converts a logrus entry; error values are flattened to strings.
func FromEntry(e *logrus.Entry) Record {
	ts := e.Time
	r := Record{
		Level:   LevelName(e.Level),
		Message: e.Message,
		Time:    &ts,
	}
	if len(e.Data) > 0 {
		r.Extra = make(map[string]any, len(e.Data))
		for k, v := range e.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			r.Extra[k] = v
		}
	}
	return r
}

// LevelName renders a logrus level the way the wire format spells it.
func LevelName(l logrus.Level) string {
	switch l {
	case logrus.TraceLevel:
		return "TRACE"
	case logrus.DebugLevel:
		return "DEBUG"
	case logrus.WarnLevel:
		return "WARNING"
	case logrus.ErrorLevel:
		return "ERROR"
	case logrus.FatalLevel, logrus.PanicLevel:
		return "CRITICAL"
	default:
		return "INFO"
	}
}

// ParseLevelName is the inverse of LevelName. SUCCESS is treated as INFO and
// unknown names fall back to INFO.
func ParseLevelName(s string) logrus.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return logrus.TraceLevel
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR", "CRITICAL", "FATAL":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
