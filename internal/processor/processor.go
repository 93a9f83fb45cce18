// Package processor runs the analysis steps over an uploaded call: the
// single-step operations behind each API endpoint and the full analysis.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"call-compliance-go/internal/audio"
	"call-compliance-go/internal/categorize"
	"call-compliance-go/internal/compliance"
	"call-compliance-go/internal/config"
	"call-compliance-go/internal/diarization"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/sensitive"
	"call-compliance-go/internal/sentiment"
	"call-compliance-go/internal/transcription"
	"call-compliance-go/internal/types"
)

// ruleSet is everything built from the rule files. It is replaced as a
// whole on reload.
type ruleSet struct {
	compliance  *compliance.Checker
	sensitive   *sensitive.Detector
	categorizer *categorize.Categorizer
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	transcriber transcription.Transcriber
	sentiment   sentiment.Analyzer
	diarizer    diarization.Diarizer
	rules       atomic.Pointer[ruleSet]
}

func New(tr transcription.Transcriber, sa sentiment.Analyzer, d diarization.Diarizer, rules *config.Rules) (*Analyzer, error) {
	if tr == nil || sa == nil || d == nil {
		return nil, errors.New("processor: transcriber, sentiment analyzer and diarizer are required")
	}
	a := &Analyzer{transcriber: tr, sentiment: sa, diarizer: d}
	if err := a.SetRules(rules); err != nil {
		return nil, err
	}
	return a, nil
}

// SetRules swaps in a new rule set. On error the current rules stay.
func (a *Analyzer) SetRules(r *config.Rules) error {
	if r == nil {
		return errors.New("processor: nil rules")
	}
	det, err := sensitive.New(r.Sensitive)
	if err != nil {
		return err
	}
	a.rules.Store(&ruleSet{
		compliance:  compliance.New(r.Phrases),
		sensitive:   det,
		categorizer: categorize.New(r.Categories),
	})
	return nil
}

func (a *Analyzer) current() *ruleSet { return a.rules.Load() }

// Transcribe returns the transcription of audio. Empty text is an error.
func (a *Analyzer) Transcribe(ctx context.Context, filename string, data []byte) (types.Transcription, error) {
	tr, err := a.transcriber.Transcribe(ctx, filename, data)
	if err != nil {
		return tr, err
	}
	if tr.Text == "" {
		return tr, transcription.ErrEmptyTranscript
	}
	return tr, nil
}

func (a *Analyzer) text(ctx context.Context, filename string, data []byte) (string, error) {
	tr, err := a.Transcribe(ctx, filename, data)
	return tr.Text, err
}

func (a *Analyzer) Compliance(ctx context.Context, filename string, data []byte) (types.ComplianceResult, error) {
	text, err := a.text(ctx, filename, data)
	if err != nil {
		return types.ComplianceResult{}, err
	}
	return a.current().compliance.Check(text), nil
}

func (a *Analyzer) Profanity(ctx context.Context, filename string, data []byte) ([]string, error) {
	text, err := a.text(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	return a.current().sensitive.DetectProfanity(text), nil
}

func (a *Analyzer) PII(ctx context.Context, filename string, data []byte) (types.PIIMatches, error) {
	text, err := a.text(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	return a.current().sensitive.FindPII(text), nil
}

// MaskTranscript masks profanity and then PII.
func (a *Analyzer) MaskTranscript(ctx context.Context, filename string, data []byte) (string, error) {
	text, err := a.text(ctx, filename, data)
	if err != nil {
		return "", err
	}
	rs := a.current()
	return rs.sensitive.Mask(text, rs.sensitive.FindPII(text)), nil
}

func (a *Analyzer) Sentiment(ctx context.Context, filename string, data []byte) (types.Sentiment, error) {
	text, err := a.text(ctx, filename, data)
	if err != nil {
		return types.Sentiment{}, err
	}
	return a.sentiment.Analyze(ctx, text)
}

func (a *Analyzer) Categorize(ctx context.Context, filename string, data []byte) (string, error) {
	text, err := a.text(ctx, filename, data)
	if err != nil {
		return "", err
	}
	return a.current().categorizer.Categorize(text), nil
}

// Diarize transcribes and diarizes the call, assigns roles and returns the
// conversation metrics.
func (a *Analyzer) Diarize(ctx context.Context, filename string, data []byte) (types.DiarizationMetrics, error) {
	tr, err := a.Transcribe(ctx, filename, data)
	if err != nil {
		return types.DiarizationMetrics{}, err
	}
	return a.diarize(ctx, filename, data, tr.Segments)
}

func (a *Analyzer) diarize(ctx context.Context, filename string, data []byte, segments []types.Segment) (types.DiarizationMetrics, error) {
	var turns []types.SpeakerTurn
	var err error
	if td, ok := a.diarizer.(diarization.TranscriptDiarizer); ok {
		turns, err = td.DiarizeTranscript(ctx, segments)
	} else {
		turns, err = a.diarizer.Diarize(ctx, filename, data)
	}
	if err != nil {
		return types.DiarizationMetrics{}, err
	}
	withRoles, err := diarization.AssignRoles(turns, segments)
	if err != nil {
		return types.DiarizationMetrics{}, err
	}
	return diarization.CalculateMetrics(withRoles, segments), nil
}

// FullAnalysis runs every step for one call. pre, when non-nil, is used
// instead of transcribing again. Sentiment and diarization run
// concurrently. The returned report always carries File, ID and timing; on
// failure Error is set and the error is returned as well.
func (a *Analyzer) FullAnalysis(ctx context.Context, filename string, data []byte, pre *types.Transcription) (types.Report, error) {
	log := logger.New().WithField("module", "processor").WithField("file", filename)
	start := time.Now()
	rep := types.Report{ID: uuid.NewString(), File: filename}
	fail := func(err error) (types.Report, error) {
		rep.Error = err.Error()
		rep.DurationMs = time.Since(start).Milliseconds()
		log.WithField("error", err.Error()).Error("analysis failed")
		return rep, err
	}

	log.Info("starting analysis")
	var tr types.Transcription
	if pre != nil {
		log.Debug("using pre-computed transcription")
		tr = *pre
	} else {
		var err error
		if tr, err = a.transcriber.Transcribe(ctx, filename, data); err != nil {
			return fail(fmt.Errorf("transcription: %w", err))
		}
	}
	if tr.Text == "" {
		return fail(transcription.ErrEmptyTranscript)
	}
	rep.Transcript = tr.Text
	rep.AudioDurationSec = tr.Duration
	if rep.AudioDurationSec == 0 && len(data) > 0 {
		if d, err := audio.WAVDuration(data); err == nil {
			rep.AudioDurationSec = d
		}
	}

	rs := a.current()
	rep.DetectedPII = rs.sensitive.FindPII(tr.Text)
	rep.MaskedTranscript = rs.sensitive.Mask(tr.Text, rep.DetectedPII)
	rep.ComplianceMarkers = rs.compliance.DisclaimerMarkers(tr.Segments)
	rep.Category = rs.categorizer.Categorize(tr.Text)

	var wg sync.WaitGroup
	var sentErr, diarErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		rep.Sentiment, sentErr = a.sentiment.Analyze(ctx, tr.Text)
	}()
	go func() {
		defer wg.Done()
		rep.DiarizationMetrics, diarErr = a.diarize(ctx, filename, data, tr.Segments)
	}()
	wg.Wait()

	if sentErr != nil {
		return fail(fmt.Errorf("sentiment: %w", sentErr))
	}
	if diarErr != nil {
		return fail(fmt.Errorf("diarization: %w", diarErr))
	}

	rep.DurationMs = time.Since(start).Milliseconds()
	log.WithField("category", rep.Category).
		WithField("pii_matches", rep.DetectedPII.Count()).
		WithField("duration_ms", rep.DurationMs).
		Info("analysis completed")
	return rep, nil
}
