// Package diarization splits a call into speaker turns, decides which
// speaker is the agent and derives conversation metrics from the turns.
package diarization

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/remote"
	"call-compliance-go/internal/types"
)

// Diarizer produces speaker turns for an audio payload.
type Diarizer interface {
	Diarize(ctx context.Context, filename string, audio []byte) ([]types.SpeakerTurn, error)
}

// Client talks to a pyannote sidecar exposing POST /diarize.
type Client struct {
	URL        string
	Token      string
	HTTP       *http.Client
	MaxElapsed time.Duration
}

func NewClient(url, token string, timeout, maxElapsed time.Duration) *Client {
	return &Client{
		URL:        strings.TrimRight(url, "/"),
		Token:      token,
		HTTP:       &http.Client{Timeout: timeout},
		MaxElapsed: maxElapsed,
	}
}

type diarizeResponse struct {
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
}

func (c *Client) Diarize(ctx context.Context, filename string, audio []byte) ([]types.SpeakerTurn, error) {
	log := logger.New().WithField("module", "diarization")
	body, ct, err := remote.Multipart("file", filename, audio, nil)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	var resp diarizeResponse
	start := time.Now()
	if err := remote.DoJSON(ctx, c.HTTP, c.MaxElapsed, remote.PostMultipart(c.URL+"/diarize", c.Token, body, ct), &resp); err != nil {
		return nil, fmt.Errorf("diarization: %w", err)
	}
	turns := make([]types.SpeakerTurn, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		turns = append(turns, types.SpeakerTurn{Start: s.Start, End: s.End, Speaker: s.Speaker})
	}
	sort.SliceStable(turns, func(i, j int) bool { return turns[i].Start < turns[j].Start })
	log.WithField("turns", len(turns)).
		WithField("elapsed_ms", time.Since(start).Milliseconds()).
		Info("diarization completed")
	return turns, nil
}

// Mock alternates two speakers over the segments of a transcript, the
// first speaker being the one who opens the call.
type Mock struct {
	Segments []types.Segment
}

func (m Mock) Diarize(ctx context.Context, filename string, audio []byte) ([]types.SpeakerTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turns := make([]types.SpeakerTurn, 0, len(m.Segments))
	for i, s := range m.Segments {
		turns = append(turns, types.SpeakerTurn{
			Start:   s.Start,
			End:     s.End,
			Speaker: fmt.Sprintf("SPEAKER_%02d", i%2),
		})
	}
	return turns, nil
}

// TranscriptDiarizer derives turns from transcript segments instead of
// audio. Mock implements it so offline runs line up with any transcript.
type TranscriptDiarizer interface {
	DiarizeTranscript(ctx context.Context, segments []types.Segment) ([]types.SpeakerTurn, error)
}

func (m Mock) DiarizeTranscript(ctx context.Context, segments []types.Segment) ([]types.SpeakerTurn, error) {
	return Mock{Segments: segments}.Diarize(ctx, "", nil)
}
