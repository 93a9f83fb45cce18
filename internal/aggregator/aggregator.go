// Package aggregator rolls individual call reports up into batch-level
// quality figures.
package aggregator

import (
	"sort"

	"call-compliance-go/internal/types"
)

type LabelStats struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

type Summary struct {
	TotalCalls     int            `json:"total_calls"`
	AnalyzedCalls  int            `json:"analyzed_calls"`
	FailedCalls    int            `json:"failed_calls"`
	CategoryCounts map[string]int `json:"category_counts"`
	// DisclaimerCoverage is the share of analyzed calls where at least one
	// disclaimer was said.
	DisclaimerCoverage float64               `json:"disclaimer_coverage"`
	PIICallRate        float64               `json:"pii_call_rate"`
	PIITypeCounts      map[string]int        `json:"pii_type_counts"`
	Sentiment          map[string]LabelStats `json:"sentiment"`
	AvgInterruptions   float64               `json:"avg_interruptions"`
	AvgTTFT            float64               `json:"avg_ttft"`
	AvgAgentWPM        float64               `json:"avg_agent_wpm"`
	AvgDurationMs      float64               `json:"avg_duration_ms"`
}

// Aggregate ignores failed reports (Error set) for every rate and average.
func Aggregate(reports []types.Report) Summary {
	s := Summary{
		TotalCalls:     len(reports),
		CategoryCounts: map[string]int{},
		PIITypeCounts:  map[string]int{},
		Sentiment:      map[string]LabelStats{},
	}
	var disclaimers, withPII, interruptions int
	var ttft, wpm, duration float64
	scoreSums := map[string]float64{}

	for _, r := range reports {
		if r.Error != "" {
			s.FailedCalls++
			continue
		}
		s.AnalyzedCalls++
		if r.Category != "" {
			s.CategoryCounts[r.Category]++
		}
		if len(r.ComplianceMarkers["disclaimers"]) > 0 {
			disclaimers++
		}
		if r.DetectedPII.Count() > 0 {
			withPII++
			for typ, m := range r.DetectedPII {
				s.PIITypeCounts[typ] += len(m)
			}
		}
		if r.Sentiment.Label != "" {
			ls := s.Sentiment[r.Sentiment.Label]
			ls.Count++
			s.Sentiment[r.Sentiment.Label] = ls
			scoreSums[r.Sentiment.Label] += r.Sentiment.Score
		}
		interruptions += r.DiarizationMetrics.InterruptionsByAgent
		ttft += r.DiarizationMetrics.AverageTTFT
		wpm += r.DiarizationMetrics.AgentSpeakingSpeedWPM
		duration += float64(r.DurationMs)
	}

	for label, ls := range s.Sentiment {
		ls.AvgScore = scoreSums[label] / float64(ls.Count)
		s.Sentiment[label] = ls
	}
	if n := float64(s.AnalyzedCalls); n > 0 {
		s.DisclaimerCoverage = float64(disclaimers) / n
		s.PIICallRate = float64(withPII) / n
		s.AvgInterruptions = float64(interruptions) / n
		s.AvgTTFT = ttft / n
		s.AvgAgentWPM = wpm / n
		s.AvgDurationMs = duration / n
	}
	return s
}

// TopCategories returns category names by descending count, then name.
func (s Summary) TopCategories() []string {
	names := make([]string, 0, len(s.CategoryCounts))
	for c := range s.CategoryCounts {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := s.CategoryCounts[names[i]], s.CategoryCounts[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	return names
}

// NegativeShare is the share of analyzed calls labelled NEGATIVE.
func (s Summary) NegativeShare() float64 {
	if s.AnalyzedCalls == 0 {
		return 0
	}
	return float64(s.Sentiment["NEGATIVE"].Count) / float64(s.AnalyzedCalls)
}
