package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-compliance-go/internal/config"
)

func mockConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Backends.MockTranscribe = true
	cfg.Backends.MockSentiment = true
	cfg.Backends.MockDiarization = true
	cfg.Cache.Driver = "sqlite"
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")
	cfg.Logging.Forward = false
	return cfg
}

func repoRules(t *testing.T) *config.Rules {
	rc := config.Default().Rules
	rc.Dir = filepath.Join("..", "..", "config")
	rules, err := config.LoadRules(rc)
	require.NoError(t, err)
	return rules
}

func TestBuildAnalyzerOffline(t *testing.T) {
	b, err := BuildAnalyzer(mockConfig(t), repoRules(t))
	require.NoError(t, err)
	defer b.Close()

	rep, err := b.Analyzer.FullAnalysis(context.Background(), "call.wav", []byte("RIFF"), nil)
	require.NoError(t, err)
	assert.Equal(t, "billing", rep.Category)
	assert.NotEmpty(t, rep.DetectedPII)
	assert.NotEmpty(t, rep.ComplianceMarkers["disclaimers"])
	assert.Equal(t, "POSITIVE", rep.Sentiment.Label)
}

func TestBuildAnalyzerNeedsToken(t *testing.T) {
	cfg := mockConfig(t)
	cfg.Backends.MockSentiment = false
	_, err := BuildAnalyzer(cfg, repoRules(t))
	assert.ErrorIs(t, err, config.ErrMissingHFToken)

	cfg.HFToken = "hf_test"
	b, err := BuildAnalyzer(cfg, repoRules(t))
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}

func TestSetupLoggingWithoutForwarding(t *testing.T) {
	cfg := mockConfig(t)
	cleanup := SetupLogging(cfg, "test", false)
	cleanup()
}
