package diarization

import (
	"math"
	"strings"

	"call-compliance-go/internal/types"
)

// CalculateMetrics derives talk-time and turn-taking metrics from turns that
// already carry roles.
//
// A role change between consecutive turns records the gap as a time to first
// token, and every customer to agent change counts as an interruption. The
// speaking speed counts transcript words whose segment midpoint falls in an
// agent turn.
func CalculateMetrics(turns []types.SpeakerTurn, segments []types.Segment) types.DiarizationMetrics {
	var m types.DiarizationMetrics
	if len(turns) == 0 {
		return m
	}

	var agentTime, customerTime float64
	var gaps []float64
	for i, t := range turns {
		switch t.Role {
		case types.RoleAgent:
			agentTime += t.End - t.Start
		case types.RoleCustomer:
			customerTime += t.End - t.Start
		}
		if i == 0 {
			continue
		}
		prev := turns[i-1]
		if prev.Role == t.Role {
			continue
		}
		gap := t.Start - prev.End
		gaps = append(gaps, gap)
		if prev.Role == types.RoleCustomer && t.Role == types.RoleAgent {
			m.InterruptionsByAgent++
		}
	}

	switch {
	case agentTime > 0:
		m.CustomerToAgentRatio = customerTime / agentTime
	case customerTime > 0:
		m.CustomerToAgentRatio = math.Inf(1)
	}

	if len(gaps) > 0 {
		var sum float64
		for _, g := range gaps {
			sum += g
		}
		m.AverageTTFT = sum / float64(len(gaps))
	}

	if agentTime > 0 {
		words := 0
		for _, s := range segments {
			mid := (s.Start + s.End) / 2
			if inAgentTurn(turns, mid) {
				words += len(strings.Fields(s.Text))
			}
		}
		m.AgentSpeakingSpeedWPM = float64(words) / (agentTime / 60)
	}
	return m
}

func inAgentTurn(turns []types.SpeakerTurn, at float64) bool {
	for _, t := range turns {
		if t.Role == types.RoleAgent && at >= t.Start && at <= t.End {
			return true
		}
	}
	return false
}
