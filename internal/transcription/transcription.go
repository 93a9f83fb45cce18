// Package transcription turns call audio into timed text using a
// Whisper-compatible speech-to-text backend.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/remote"
	"call-compliance-go/internal/types"
)

var ErrEmptyTranscript = errors.New("transcription failed: empty transcript")

// Transcriber converts an audio payload into a transcription.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (types.Transcription, error)
}

// Client posts audio to an OpenAI-compatible /v1/audio/transcriptions
// endpoint (whisper.cpp server, faster-whisper-server, OpenAI).
type Client struct {
	URL        string
	Model      string
	APIKey     string
	HTTP       *http.Client
	MaxElapsed time.Duration
}

func NewClient(url, model, apiKey string, timeout, maxElapsed time.Duration) *Client {
	return &Client{
		URL:        strings.TrimRight(url, "/"),
		Model:      model,
		APIKey:     apiKey,
		HTTP:       &http.Client{Timeout: timeout},
		MaxElapsed: maxElapsed,
	}
}

type verboseJSON struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (types.Transcription, error) {
	log := logger.New().WithField("module", "transcription").WithField("file", filename)
	body, ct, err := remote.Multipart("file", filename, audio, map[string]string{
		"model":           c.Model,
		"response_format": "verbose_json",
	})
	if err != nil {
		return types.Transcription{}, fmt.Errorf("transcription request: %w", err)
	}

	log.Info("starting transcription")
	start := time.Now()
	var resp verboseJSON
	endpoint := c.URL + "/v1/audio/transcriptions"
	if err := remote.DoJSON(ctx, c.HTTP, c.MaxElapsed, remote.PostMultipart(endpoint, c.APIKey, body, ct), &resp); err != nil {
		return types.Transcription{}, fmt.Errorf("transcription: %w", err)
	}

	t := types.Transcription{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]types.Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		t.Segments = append(t.Segments, types.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	if t.Text == "" {
		return t, ErrEmptyTranscript
	}
	log.WithField("segments", len(t.Segments)).
		WithField("elapsed_ms", time.Since(start).Milliseconds()).
		Debug("transcription completed")
	return t, nil
}

// MockSegments is the canned two-party call returned by Mock.
var MockSegments = []types.Segment{
	{Start: 0.0, End: 4.2, Text: "Hello, thank you for calling Acme support. This call may be recorded for quality purposes. How can I help you?"},
	{Start: 4.6, End: 9.8, Text: "Hi, I was charged twice on my bill this month and I want a refund. My account number is 123456789."},
	{Start: 10.1, End: 15.0, Text: "I am sorry about that. I can see the duplicate charge and I have issued the refund to your card."},
	{Start: 15.3, End: 17.0, Text: "Great, thanks for sorting that out."},
	{Start: 17.2, End: 20.5, Text: "Is there anything else I can help with today? Have a great day."},
}

// Mock returns MockSegments for any input.
type Mock struct{}

func (Mock) Transcribe(ctx context.Context, filename string, audio []byte) (types.Transcription, error) {
	if err := ctx.Err(); err != nil {
		return types.Transcription{}, err
	}
	texts := make([]string, len(MockSegments))
	for i, s := range MockSegments {
		texts[i] = s.Text
	}
	segs := make([]types.Segment, len(MockSegments))
	copy(segs, MockSegments)
	return types.Transcription{
		Text:     strings.Join(texts, " "),
		Segments: segs,
		Language: "en",
		Duration: segs[len(segs)-1].End,
	}, nil
}
