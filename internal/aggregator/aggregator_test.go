package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"call-compliance-go/internal/types"
)

func TestAggregate(t *testing.T) {
	reports := []types.Report{
		{
			Category:          "billing",
			DetectedPII:       types.PIIMatches{"email": {"a@b.com", "c@d.com"}},
			ComplianceMarkers: map[string][]types.ComplianceMarker{"disclaimers": {{Phrase: "recorded"}}},
			Sentiment:         types.Sentiment{Label: "NEGATIVE", Score: 0.8},
			DiarizationMetrics: types.DiarizationMetrics{
				InterruptionsByAgent: 2, AverageTTFT: 0.5, AgentSpeakingSpeedWPM: 150,
			},
			DurationMs: 100,
		},
		{
			Category:          "billing",
			ComplianceMarkers: map[string][]types.ComplianceMarker{"disclaimers": {}},
			Sentiment:         types.Sentiment{Label: "POSITIVE", Score: 0.9},
			DiarizationMetrics: types.DiarizationMetrics{
				AverageTTFT: 1.5, AgentSpeakingSpeedWPM: 130,
			},
			DurationMs: 300,
		},
		{Category: "technical_support", Sentiment: types.Sentiment{Label: "NEGATIVE", Score: 0.6}},
		{File: "broken.wav", Error: "transcription failed"},
	}

	s := Aggregate(reports)
	assert.Equal(t, 4, s.TotalCalls)
	assert.Equal(t, 3, s.AnalyzedCalls)
	assert.Equal(t, 1, s.FailedCalls)
	assert.Equal(t, map[string]int{"billing": 2, "technical_support": 1}, s.CategoryCounts)
	assert.InDelta(t, 1.0/3, s.DisclaimerCoverage, 1e-9)
	assert.InDelta(t, 1.0/3, s.PIICallRate, 1e-9)
	assert.Equal(t, 2, s.PIITypeCounts["email"])
	assert.Equal(t, 2, s.Sentiment["NEGATIVE"].Count)
	assert.InDelta(t, 0.7, s.Sentiment["NEGATIVE"].AvgScore, 1e-9)
	assert.InDelta(t, 2.0/3, s.AvgInterruptions, 1e-9)
	assert.InDelta(t, 2.0/3, s.AvgTTFT, 1e-9)
	assert.InDelta(t, 280.0/3, s.AvgAgentWPM, 1e-9)
	assert.InDelta(t, 2.0/3, s.NegativeShare(), 1e-9)
	assert.Equal(t, []string{"billing", "technical_support"}, s.TopCategories())
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	assert.Zero(t, s.TotalCalls)
	assert.Zero(t, s.DisclaimerCoverage)
	assert.Zero(t, s.NegativeShare())
	assert.Empty(t, s.TopCategories())
}
