package report

import (
	"bytes"
	"math"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"call-compliance-go/internal/types"
)

func init() {
	color.NoColor = true
}

func TestPrint(t *testing.T) {
	rep := types.Report{
		File:             "call.wav",
		MaskedTranscript: "my account is *********",
		DetectedPII:      types.PIIMatches{"bank_account_number": {"123456789"}, "email": nil},
		ComplianceMarkers: map[string][]types.ComplianceMarker{
			"disclaimers": {{Phrase: "this call may be recorded", Start: 1.5, End: 4.25}},
		},
		Sentiment: types.Sentiment{Label: "POSITIVE", Score: 0.93},
		DiarizationMetrics: types.DiarizationMetrics{
			AgentSpeakingSpeedWPM: 142.5,
			CustomerToAgentRatio:  math.Inf(1),
			InterruptionsByAgent:  2,
			AverageTTFT:           0.75,
		},
		Category: "billing",
	}

	var buf bytes.Buffer
	Print(&buf, rep)
	out := buf.String()

	assert.Contains(t, out, "Call Compliance Analysis Results: call.wav")
	assert.Contains(t, out, "my account is *********")
	assert.Contains(t, out, "Bank Account Number")
	assert.Contains(t, out, "123456789")
	assert.NotContains(t, out, "Email")
	assert.Contains(t, out, "Disclaimers")
	assert.Contains(t, out, "1.50s")
	assert.Contains(t, out, "4.25s")
	assert.Contains(t, out, "POSITIVE")
	assert.Contains(t, out, "142.5 WPM")
	assert.Contains(t, out, "inf")
	assert.Contains(t, out, "0.75s")
	assert.Contains(t, out, "billing")
}

func TestPrintEmptySections(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, types.Report{})
	out := buf.String()

	assert.Contains(t, out, "No PII detected")
	assert.Contains(t, out, "No compliance markers found")
	assert.Contains(t, out, "N/A")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, types.Report{File: "x.wav", Error: "transcription failed"})
	out := buf.String()

	assert.Contains(t, out, "transcription failed")
	assert.NotContains(t, out, "Masked Transcript")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Credit Card", TitleCase("credit_card"))
	assert.Equal(t, "Email", TitleCase("email"))
	assert.Equal(t, "", TitleCase(""))
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "inf", FormatRatio(math.Inf(1)))
	assert.Equal(t, "1.5", FormatRatio(1.5))
}
