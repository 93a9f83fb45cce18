// Package sentiment scores the overall tone of a call transcript with a
// Hugging Face text-classification model.
package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/remote"
	"call-compliance-go/internal/types"
)

// Analyzer scores text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (types.Sentiment, error)
}

// Client calls the Hugging Face inference API.
type Client struct {
	URL        string
	Token      string
	MaxChars   int
	HTTP       *http.Client
	MaxElapsed time.Duration
}

func NewClient(url, token string, maxChars int, timeout, maxElapsed time.Duration) *Client {
	return &Client{
		URL:        url,
		Token:      token,
		MaxChars:   maxChars,
		HTTP:       &http.Client{Timeout: timeout},
		MaxElapsed: maxElapsed,
	}
}

type inferenceRequest struct {
	Inputs  string `json:"inputs"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

func (c *Client) Analyze(ctx context.Context, text string) (types.Sentiment, error) {
	log := logger.New().WithField("module", "sentiment")
	if strings.TrimSpace(text) == "" {
		return types.Sentiment{}, errors.New("sentiment: empty text")
	}
	var payload inferenceRequest
	payload.Inputs = Truncate(text, c.MaxChars)
	payload.Options.WaitForModel = true

	newReq, err := remote.PostJSON(c.URL, c.Token, payload)
	if err != nil {
		return types.Sentiment{}, err
	}
	var raw json.RawMessage
	if err := remote.DoJSON(ctx, c.HTTP, c.MaxElapsed, newReq, &raw); err != nil {
		return types.Sentiment{}, fmt.Errorf("sentiment: %w", err)
	}
	s, err := ParseResponse(raw)
	if err != nil {
		return types.Sentiment{}, fmt.Errorf("sentiment: %w", err)
	}
	log.WithField("label", s.Label).WithField("score", s.Score).Info("sentiment result")
	return s, nil
}

// ParseResponse accepts both [[{label,score}...]] and [{label,score}...]
// and returns the highest scoring label.
func ParseResponse(raw []byte) (types.Sentiment, error) {
	var nested [][]types.Sentiment
	var flat []types.Sentiment
	var candidates []types.Sentiment
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		candidates = nested[0]
	} else if err := json.Unmarshal(raw, &flat); err == nil {
		candidates = flat
	} else {
		return types.Sentiment{}, fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(raw)))
	}
	if len(candidates) == 0 {
		return types.Sentiment{}, errors.New("no labels returned")
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, nil
}

// Truncate cuts text to at most max bytes on a word boundary. max <= 0
// disables truncation.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
