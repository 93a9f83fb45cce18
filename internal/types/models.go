package types

import (
	"encoding/json"
	"math"
)

// Segment is a timed piece of transcript text, times in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcription struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
}

type Role string

const (
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// SpeakerTurn is one diarized stretch of speech.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Role    Role    `json:"role,omitempty"`
}

type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type ComplianceMarker struct {
	Phrase string  `json:"phrase"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

type ComplianceResult struct {
	DetectedGreetings   []string `json:"detected_greetings"`
	DetectedClosing     []string `json:"detected_closing"`
	DetectedDisclaimers []string `json:"detected_disclaimers"`
}

// PIIMatches maps a PII type (credit_card, email, ...) to the matched strings.
type PIIMatches map[string][]string

// Count returns the total number of matches across all types.
func (p PIIMatches) Count() int {
	n := 0
	for _, m := range p {
		n += len(m)
	}
	return n
}

type DiarizationMetrics struct {
	AgentSpeakingSpeedWPM float64 `json:"agent_speaking_speed_wpm"`
	CustomerToAgentRatio  float64 `json:"customer_to_agent_speaking_ratio"`
	InterruptionsByAgent  int     `json:"interruptions_by_agent"`
	AverageTTFT           float64 `json:"average_ttft"`
}

// MarshalJSON writes an infinite ratio (customer spoke, agent never did) as null.
func (m DiarizationMetrics) MarshalJSON() ([]byte, error) {
	type alias DiarizationMetrics
	out := struct {
		alias
		CustomerToAgentRatio *float64 `json:"customer_to_agent_speaking_ratio"`
	}{alias: alias(m)}
	if !math.IsInf(m.CustomerToAgentRatio, 0) && !math.IsNaN(m.CustomerToAgentRatio) {
		r := m.CustomerToAgentRatio
		out.CustomerToAgentRatio = &r
	}
	return json.Marshal(out)
}

// Report is the full analysis of a single call.
type Report struct {
	ID                 string                        `json:"id"`
	File               string                        `json:"file"`
	Transcript         string                        `json:"-"`
	MaskedTranscript   string                        `json:"masked_transcript"`
	DetectedPII        PIIMatches                    `json:"detected_pii"`
	ComplianceMarkers  map[string][]ComplianceMarker `json:"compliance_markers"`
	Sentiment          Sentiment                     `json:"sentiment"`
	DiarizationMetrics DiarizationMetrics            `json:"diarization_metrics"`
	Category           string                        `json:"category"`
	AudioDurationSec   float64                       `json:"audio_duration_sec,omitempty"`
	DurationMs         int64                         `json:"duration_ms"`
	Error              string                        `json:"error,omitempty"`
}

// CallRecord is one row of a batch manifest.
type CallRecord struct {
	CallID    string `json:"call_id"`
	AudioPath string `json:"audio_path"`
	Agent     string `json:"agent,omitempty"`
}
