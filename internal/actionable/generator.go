package actionable

import (
	"fmt"
	"sort"
	"strings"

	"call-compliance-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Thresholds that turn a summary figure into an action card.
const (
	MinDisclaimerCoverage = 0.9
	MaxPIICallRate        = 0.2
	MaxAvgInterruptions   = 1.0
	MaxNegativeShare      = 0.4
)

// Generate returns one card per threshold breached, or a single monitoring
// card when the batch looks healthy.
func Generate(s aggregator.Summary) []ActionCard {
	var cards []ActionCard
	if s.AnalyzedCalls == 0 {
		return []ActionCard{{
			Insight: "No calls could be analyzed",
			Action:  "Check backend availability and the input recordings",
			Impact:  "No quality signal for this batch",
		}}
	}
	if s.DisclaimerCoverage < MinDisclaimerCoverage {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Recording disclaimer missing on %.0f%% of calls", (1-s.DisclaimerCoverage)*100),
			Action:  "Add the disclaimer to the opening script and flag calls without it for coaching",
			Impact:  "Reduce regulatory exposure",
		})
	}
	if s.PIICallRate > MaxPIICallRate {
		kinds := make([]string, 0, len(s.PIITypeCounts))
		for k := range s.PIITypeCounts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Sensitive data spoken on %.0f%% of calls (%s)", s.PIICallRate*100, strings.Join(kinds, ", ")),
			Action:  "Route card and account capture to secure IVR; keep masked transcripts only",
			Impact:  "Lower data breach risk",
		})
	}
	if s.AvgInterruptions > MaxAvgInterruptions {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Agents interrupt customers %.1f times per call on average", s.AvgInterruptions),
			Action:  "Coach active listening; review calls with the most interruptions",
			Impact:  "Improve customer satisfaction",
		})
	}
	if share := s.NegativeShare(); share > MaxNegativeShare {
		top := "unknown"
		if cats := s.TopCategories(); len(cats) > 0 {
			top = cats[0]
		}
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%.0f%% of calls are negative; most common category is %s", share*100, top),
			Action:  fmt.Sprintf("Review root causes for %s calls and update the resolution playbook", top),
			Impact:  "Reduce churn and repeat contacts",
		})
	}
	if len(cards) == 0 {
		cards = append(cards, ActionCard{
			Insight: "No compliance or quality issue above threshold",
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		})
	}
	return cards
}
