package diarization

import (
	"errors"
	"fmt"
	"strings"

	"call-compliance-go/internal/types"
)

// ExpectedSpeakers is the number of distinct voices a call must have.
const ExpectedSpeakers = 2

var ErrSpeakerCount = errors.New("unexpected number of speakers")

// AgentPhrases mark a speaker as the agent.
var AgentPhrases = []string{
	"hello",
	"thank you for calling",
	"how may i assist you",
	"how can i help you",
	"is there anything else",
	"have a great day",
}

// AssignRoles labels every turn as agent or customer. The speaker whose
// turns contain the most agent phrases is the agent; on a tie the speaker
// who talks first wins. Transcript segments count toward a turn only when
// they lie fully inside it.
func AssignRoles(turns []types.SpeakerTurn, segments []types.Segment) ([]types.SpeakerTurn, error) {
	var order []string
	counts := map[string]int{}
	for _, t := range turns {
		if _, ok := counts[t.Speaker]; !ok {
			counts[t.Speaker] = 0
			order = append(order, t.Speaker)
		}
	}
	if len(order) != ExpectedSpeakers {
		return nil, fmt.Errorf("%w: expected %d speakers, found %d", ErrSpeakerCount, ExpectedSpeakers, len(order))
	}

	for _, t := range turns {
		var parts []string
		for _, s := range segments {
			if s.Start >= t.Start && s.End <= t.End {
				parts = append(parts, strings.ToLower(s.Text))
			}
		}
		text := strings.Join(parts, " ")
		for _, p := range AgentPhrases {
			if strings.Contains(text, p) {
				counts[t.Speaker]++
			}
		}
	}

	agent := order[0]
	if counts[order[1]] > counts[agent] {
		agent = order[1]
	}
	out := make([]types.SpeakerTurn, len(turns))
	for i, t := range turns {
		t.Role = types.RoleCustomer
		if t.Speaker == agent {
			t.Role = types.RoleAgent
		}
		out[i] = t
	}
	return out, nil
}
