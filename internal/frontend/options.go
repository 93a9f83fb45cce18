// Package frontend serves the browser form that uploads a recording to the
// analysis API and shows the selected results.
package frontend

import (
	"fmt"
	"strings"
)

// Options are the analysis choices offered by the form, in display order.
// Result boxes use the same order.
var Options = []string{
	"Transcript",
	"Masked Transcript",
	"Detected Greetings",
	"Detected Closing Statements",
	"Detected Disclaimers",
	"Detected PII",
	"Detected Profanity",
	"Sentiment Analysis",
	"Call Category",
	"Diarization",
}

// Backend features, named after the API route they call.
const (
	FeatureTranscribe = "transcribe"
	FeatureCompliance = "compliance"
	FeaturePII        = "pii"
	FeatureProfanity  = "profanity"
	FeatureMask       = "mask_transcript"
	FeatureSentiment  = "sentiment_analysis"
	FeatureCategory   = "categorization"
	FeatureDiarize    = "diarization"
)

// featureOrder is the order features are requested in.
var featureOrder = []string{
	FeatureTranscribe, FeatureCompliance, FeatureProfanity, FeaturePII,
	FeatureMask, FeatureSentiment, FeatureCategory, FeatureDiarize,
}

var optionFeature = map[string]string{
	"Transcript":                  FeatureTranscribe,
	"Masked Transcript":           FeatureMask,
	"Detected Greetings":          FeatureCompliance,
	"Detected Closing Statements": FeatureCompliance,
	"Detected Disclaimers":        FeatureCompliance,
	"Detected PII":                FeaturePII,
	"Detected Profanity":          FeatureProfanity,
	"Sentiment Analysis":          FeatureSentiment,
	"Call Category":               FeatureCategory,
	"Diarization":                 FeatureDiarize,
}

// Features maps the selected options to the backend features to call. Each
// feature appears once, however many options need it.
func Features(selected []string) []string {
	need := map[string]bool{}
	for _, o := range selected {
		if f, ok := optionFeature[o]; ok {
			need[f] = true
		}
	}
	var out []string
	for _, f := range featureOrder {
		if need[f] {
			out = append(out, f)
		}
	}
	return out
}

type transcriptResult struct {
	Text string `json:"text"`
}

type maskResult struct {
	MaskedText string `json:"masked_text"`
}

type complianceResult struct {
	Greetings   []string `json:"detected_greetings"`
	Closing     []string `json:"detected_closing"`
	Disclaimers []string `json:"detected_disclaimers"`
}

type profanityResult struct {
	Profanity []string `json:"Profanity"`
}

type sentimentResult struct {
	Label string   `json:"label"`
	Score *float64 `json:"score"`
}

type categoryResult struct {
	Category string `json:"Call_Category"`
}

type diarizationResult struct {
	Metrics struct {
		AgentWPM      *float64 `json:"agent_speaking_speed_wpm"`
		Ratio         *float64 `json:"customer_to_agent_speaking_ratio"`
		Interruptions *int     `json:"interruptions_by_agent"`
		TTFT          *float64 `json:"average_ttft"`
	} `json:"diarization_metrics"`
}

// Results holds the decoded backend responses. A nil field means the
// feature was not requested; Errors holds per-feature failures.
type Results struct {
	Transcript  *transcriptResult
	Masked      *maskResult
	Compliance  *complianceResult
	Profanity   *profanityResult
	PII         map[string][]string
	Sentiment   *sentimentResult
	Category    *categoryResult
	Diarization *diarizationResult
	Errors      map[string]string
}

// Format renders one text per entry of Options. Unselected options stay
// empty.
func Format(res Results, selected []string) []string {
	out := make([]string, len(Options))
	sel := map[string]bool{}
	for _, o := range selected {
		sel[o] = true
	}
	failed := func(feature string) (string, bool) {
		msg, ok := res.Errors[feature]
		if !ok {
			return "", false
		}
		return "Error: " + msg, true
	}
	fill := func(i int, feature string, f func() string) {
		if !sel[Options[i]] {
			return
		}
		if msg, ok := failed(feature); ok {
			out[i] = msg
			return
		}
		out[i] = f()
	}

	fill(0, FeatureTranscribe, func() string {
		if res.Transcript == nil {
			return ""
		}
		return res.Transcript.Text
	})
	fill(1, FeatureMask, func() string {
		if res.Masked == nil {
			return ""
		}
		return res.Masked.MaskedText
	})
	comp := res.Compliance
	if comp == nil {
		comp = &complianceResult{}
	}
	fill(2, FeatureCompliance, func() string { return strings.Join(comp.Greetings, ", ") })
	fill(3, FeatureCompliance, func() string { return strings.Join(comp.Closing, ", ") })
	fill(4, FeatureCompliance, func() string { return strings.Join(comp.Disclaimers, ", ") })
	fill(5, FeaturePII, func() string {
		var lines []string
		if cc := res.PII["credit_card"]; len(cc) > 0 {
			lines = append(lines, "Credit Card: "+strings.Join(cc, ", "))
		}
		if acc := res.PII["bank_account_number"]; len(acc) > 0 {
			lines = append(lines, "Account Number: "+strings.Join(acc, ", "))
		}
		return strings.Join(lines, "\n")
	})
	fill(6, FeatureProfanity, func() string {
		if res.Profanity == nil {
			return ""
		}
		return strings.Join(res.Profanity.Profanity, ", ")
	})
	fill(7, FeatureSentiment, func() string {
		label, score := "", ""
		if s := res.Sentiment; s != nil {
			label = s.Label
			if s.Score != nil {
				score = fmt.Sprint(*s.Score)
			}
		}
		return fmt.Sprintf("Label: %s\nScore: %s", label, score)
	})
	fill(8, FeatureCategory, func() string {
		if res.Category == nil {
			return ""
		}
		return res.Category.Category
	})
	fill(9, FeatureDiarize, func() string {
		if res.Diarization == nil {
			return ""
		}
		m := res.Diarization.Metrics
		var lines []string
		if m.AgentWPM != nil {
			lines = append(lines, fmt.Sprintf("agent_speaking_speed_wpm: %v", *m.AgentWPM))
		}
		// A null ratio is a customer talking to a silent agent.
		if m.Ratio != nil {
			lines = append(lines, fmt.Sprintf("customer_to_agent_speaking_ratio: %v", *m.Ratio))
		} else if m.AgentWPM != nil {
			lines = append(lines, "customer_to_agent_speaking_ratio: inf")
		}
		if m.Interruptions != nil {
			lines = append(lines, fmt.Sprintf("interruptions_by_agent: %d", *m.Interruptions))
		}
		if m.TTFT != nil {
			lines = append(lines, fmt.Sprintf("average_ttft: %v", *m.TTFT))
		}
		return strings.Join(lines, "\n")
	})
	return out
}
