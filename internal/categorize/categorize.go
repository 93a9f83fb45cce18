// Package categorize assigns a call to one of the configured categories by
// counting keyword hits in the transcript.
package categorize

import (
	"strings"
	"unicode"

	"call-compliance-go/internal/config"
)

// Other is returned when no keyword matched.
const Other = "other"

type category struct {
	name     string
	keywords map[string]struct{}
}

type Categorizer struct {
	categories []category
}

// New keeps the categories in file order; ties go to the earlier one.
func New(cc config.CallCategories) *Categorizer {
	c := &Categorizer{}
	for _, cat := range cc.Categories {
		kw := make(map[string]struct{}, len(cat.Keywords))
		for _, k := range cat.Keywords {
			kw[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
		}
		c.categories = append(c.categories, category{name: cat.Name, keywords: kw})
	}
	return c
}

// Scores returns the keyword hit count per category name.
func (c *Categorizer) Scores(text string) map[string]int {
	scores := make(map[string]int, len(c.categories))
	for _, cat := range c.categories {
		scores[cat.name] = 0
	}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" {
			continue
		}
		for _, cat := range c.categories {
			if _, ok := cat.keywords[w]; ok {
				scores[cat.name]++
			}
		}
	}
	return scores
}

func (c *Categorizer) Categorize(text string) string {
	scores := c.Scores(text)
	best, bestScore := Other, 0
	for _, cat := range c.categories {
		if s := scores[cat.name]; s > bestScore {
			best, bestScore = cat.name, s
		}
	}
	return best
}

// Names lists the categories in declaration order.
func (c *Categorizer) Names() []string {
	out := make([]string, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat.name
	}
	return out
}
