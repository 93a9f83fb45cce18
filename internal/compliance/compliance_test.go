package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/types"
)

func newChecker() *Checker {
	return New(config.Phrases{
		Greetings:   []string{"Hello", "thank you for calling"},
		Closing:     []string{"have a great day", "goodbye"},
		Disclaimers: []string{"this call may be recorded"},
	})
}

func TestDetectPhrases(t *testing.T) {
	got := DetectPhrases("HELLO there, Thank You For Calling Acme", []string{"thank you for calling", "hello", "welcome"})
	assert.Equal(t, []string{"thank you for calling", "hello"}, got)

	none := DetectPhrases("nothing here", []string{"hello"})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCheck(t *testing.T) {
	res := newChecker().Check("Hello, this call may be recorded. Have a great day!")
	assert.Equal(t, []string{"Hello"}, res.DetectedGreetings)
	assert.Equal(t, []string{"have a great day"}, res.DetectedClosing)
	assert.Equal(t, []string{"this call may be recorded"}, res.DetectedDisclaimers)
}

func TestTimeMarkers(t *testing.T) {
	segs := []types.Segment{
		{Start: 0, End: 2.5, Text: "Hello and thank you for calling"},
		{Start: 2.5, End: 5, Text: "This call may be recorded for quality"},
		{Start: 5, End: 7, Text: "ok"},
		{Start: 30, End: 32, Text: "hello again, goodbye"},
	}
	c := newChecker()

	greet := TimeMarkers(segs, c.Greetings)
	assert.Equal(t, []types.ComplianceMarker{
		{Phrase: "Hello", Start: 0, End: 2.5},
		{Phrase: "thank you for calling", Start: 0, End: 2.5},
		{Phrase: "Hello", Start: 30, End: 32},
	}, greet)

	all := c.Markers(segs)
	assert.Len(t, all[KeyDisclaimers], 1)
	assert.Equal(t, 2.5, all[KeyDisclaimers][0].Start)
	assert.Len(t, all[KeyClosing], 1)

	d := c.DisclaimerMarkers(nil)
	assert.NotNil(t, d[KeyDisclaimers])
	assert.Empty(t, d[KeyDisclaimers])
}
