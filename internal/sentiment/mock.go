package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"

	"call-compliance-go/internal/types"
)

var (
	positiveWords = map[string]bool{
		"great": true, "good": true, "thanks": true, "thank": true, "appreciate": true,
		"excellent": true, "happy": true, "resolved": true, "perfect": true, "helpful": true,
		"wonderful": true, "glad": true, "love": true, "pleased": true, "awesome": true,
	}
	negativeWords = map[string]bool{
		"bad": true, "angry": true, "terrible": true, "wrong": true, "twice": true,
		"problem": true, "issue": true, "frustrated": true, "cancel": true, "awful": true,
		"disappointed": true, "broken": true, "refund": true, "complaint": true, "unacceptable": true,
	}
)

// Lexicon is an offline scorer that counts positive and negative words.
type Lexicon struct{}

func (Lexicon) Analyze(ctx context.Context, text string) (types.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return types.Sentiment{}, err
	}
	return Score(text), nil
}

// Score returns POSITIVE unless negative words outnumber positive ones. The
// score grows with the margin and stays within [0.5, 0.99].
func Score(text string) types.Sentiment {
	var pos, neg int
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	label := "POSITIVE"
	if neg > pos {
		label = "NEGATIVE"
	}
	margin := math.Abs(float64(pos - neg))
	score := 0.5 + 0.49*(1-math.Exp(-margin/2))
	return types.Sentiment{Label: label, Score: math.Round(score*10000) / 10000}
}
