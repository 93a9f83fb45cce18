// Package sensitive finds personal data and profanity in transcripts and
// masks them.
package sensitive

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	goaway "github.com/TwiN/go-away"

	"call-compliance-go/internal/config"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

// Mask replaces every masked span.
const Mask = "****"

type pattern struct {
	name string
	re   *regexp.Regexp
}

// Detector is immutable once built and safe for concurrent use.
type Detector struct {
	patterns  []pattern
	profanity *goaway.ProfanityDetector
	custom    map[string]struct{}
}

var tokenRe = regexp.MustCompile(`\S+`)

// Masked-vowel spellings that survive leet and special character
// sanitizing ("f*ck" becomes "fck").
var extraProfanities = []string{"fck", "fuk", "sht", "btch"}

const (
	leadingPunct  = "\"'([{<"
	trailingPunct = ".,;:?!\"')]}>"
)

// New compiles the PII patterns and builds the profanity list. Pattern names
// are kept sorted so results are stable.
func New(rules config.PIIProfanity) (*Detector, error) {
	names := make([]string, 0, len(rules.PIIPatterns))
	for name := range rules.PIIPatterns {
		names = append(names, name)
	}
	sort.Strings(names)

	profanities := append(append([]string{}, goaway.DefaultProfanities...), extraProfanities...)
	d := &Detector{
		profanity: goaway.NewProfanityDetector().
			WithSanitizeLeetSpeak(true).
			WithSanitizeSpecialCharacters(true).
			WithSanitizeAccents(true).
			WithCustomDictionary(profanities, goaway.DefaultFalsePositives, goaway.DefaultFalseNegatives),
		custom: make(map[string]struct{}, len(rules.CustomBadwords)),
	}
	for _, name := range names {
		expr := rules.PIIPatterns[name]
		if expr == "" {
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("pii pattern %q: %w", name, err)
		}
		d.patterns = append(d.patterns, pattern{name: name, re: re})
	}
	// Custom words match whole tokens only, so a short entry never flags
	// the longer words that contain it.
	for _, w := range rules.CustomBadwords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			d.custom[w] = struct{}{}
		}
	}
	return d, nil
}

// FindPII returns the matches of every pattern, keyed by PII type. Types
// without a match are left out.
func (d *Detector) FindPII(text string) types.PIIMatches {
	found := types.PIIMatches{}
	for _, p := range d.patterns {
		var matches []string
		if p.re.NumSubexp() == 1 {
			for _, sm := range p.re.FindAllStringSubmatch(text, -1) {
				matches = append(matches, sm[1])
			}
		} else {
			matches = p.re.FindAllString(text, -1)
		}
		if len(matches) > 0 {
			found[p.name] = matches
		}
	}
	if n := found.Count(); n > 0 {
		logger.New().WithField("module", "sensitive").
			WithField("types", len(found)).
			WithField("matches", n).
			Warn("pii detected")
	}
	return found
}

// DetectProfanity returns the whitespace separated words of text that are
// profane, in order and with duplicates. Leet and symbol spellings such as
// "sh1t" or "$hit" count.
func (d *Detector) DetectProfanity(text string) []string {
	found := []string{}
	for _, w := range strings.Fields(text) {
		if d.isBad(w) {
			found = append(found, w)
		}
	}
	return found
}

// MaskProfanity replaces profane words with Mask, keeping surrounding
// punctuation.
func (d *Detector) MaskProfanity(text string) string {
	return tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		start, end := core(tok)
		if start == end || !d.isBad(tok[start:end]) {
			return tok
		}
		return tok[:start] + Mask + tok[end:]
	})
}

// Mask masks profanity first and then every PII match. Longer matches go
// first so a match that contains another is never left half masked.
func (d *Detector) Mask(text string, pii types.PIIMatches) string {
	masked := d.MaskProfanity(text)

	var all []string
	for _, matches := range pii {
		for _, m := range matches {
			if m != "" {
				all = append(all, m)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return len(all[i]) > len(all[j]) })
	for _, m := range all {
		masked = strings.ReplaceAll(masked, m, Mask)
	}
	return masked
}

// Patterns lists the configured PII type names.
func (d *Detector) Patterns() []string {
	out := make([]string, len(d.patterns))
	for i, p := range d.patterns {
		out[i] = p.name
	}
	return out
}

func (d *Detector) isBad(token string) bool {
	start, end := core(token)
	word := strings.ToLower(token[start:end])
	if word == "" {
		return false
	}
	if _, ok := d.custom[word]; ok {
		return true
	}
	return d.profanity.IsProfane(word)
}

// core returns the bounds of token without the sentence punctuation around
// it. Symbols inside the word ("sh!t") and leading leet symbols ("$hit")
// are kept.
func core(token string) (start, end int) {
	end = len(strings.TrimRight(token, trailingPunct))
	start = len(token[:end]) - len(strings.TrimLeft(token[:end], leadingPunct))
	return start, end
}
