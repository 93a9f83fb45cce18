// Package compliance looks for the greeting, closing and disclaimer phrases
// an agent is expected to say on every call.
package compliance

import (
	"strings"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/types"
)

// Marker group keys used in reports.
const (
	KeyGreetings   = "greetings"
	KeyClosing     = "closing"
	KeyDisclaimers = "disclaimers"
)

type Checker struct {
	Greetings   []string
	Closing     []string
	Disclaimers []string
}

func New(p config.Phrases) *Checker {
	return &Checker{
		Greetings:   p.Greetings,
		Closing:     p.Closing,
		Disclaimers: p.Disclaimers,
	}
}

// DetectPhrases returns the phrases contained in text, ignoring case, in the
// order they were given. The result is never nil.
func DetectPhrases(text string, phrases []string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			found = append(found, p)
		}
	}
	return found
}

// TimeMarkers scans segments in order and records every phrase a segment
// contains together with the segment's time span.
func TimeMarkers(segments []types.Segment, phrases []string) []types.ComplianceMarker {
	markers := []types.ComplianceMarker{}
	for _, seg := range segments {
		lower := strings.ToLower(seg.Text)
		for _, p := range phrases {
			if p == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(p)) {
				markers = append(markers, types.ComplianceMarker{Phrase: p, Start: seg.Start, End: seg.End})
			}
		}
	}
	return markers
}

func (c *Checker) Check(text string) types.ComplianceResult {
	return types.ComplianceResult{
		DetectedGreetings:   DetectPhrases(text, c.Greetings),
		DetectedClosing:     DetectPhrases(text, c.Closing),
		DetectedDisclaimers: DetectPhrases(text, c.Disclaimers),
	}
}

// Markers returns time markers for every phrase group.
func (c *Checker) Markers(segments []types.Segment) map[string][]types.ComplianceMarker {
	return map[string][]types.ComplianceMarker{
		KeyGreetings:   TimeMarkers(segments, c.Greetings),
		KeyClosing:     TimeMarkers(segments, c.Closing),
		KeyDisclaimers: TimeMarkers(segments, c.Disclaimers),
	}
}

// DisclaimerMarkers is the subset the full analysis reports.
func (c *Checker) DisclaimerMarkers(segments []types.Segment) map[string][]types.ComplianceMarker {
	return map[string][]types.ComplianceMarker{
		KeyDisclaimers: TimeMarkers(segments, c.Disclaimers),
	}
}
