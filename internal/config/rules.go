package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Phrases are the compliance phrase lists.
type Phrases struct {
	Greetings   []string `yaml:"greetings" validate:"required"`
	Closing     []string `yaml:"closing" validate:"required"`
	Disclaimers []string `yaml:"disclaimers" validate:"required"`
}

// PIIProfanity holds the PII regexes and extra profanity words.
type PIIProfanity struct {
	PIIPatterns    map[string]string `yaml:"pii_patterns" validate:"required,dive,required"`
	CustomBadwords []string          `yaml:"custom_badwords"`
}

type Category struct {
	Name     string   `validate:"required"`
	Keywords []string `validate:"required"`
}

// CallCategories keeps categories in the order the file declares them;
// categorization breaks ties by that order.
type CallCategories struct {
	Categories []Category `validate:"required,dive"`
}

func (c *CallCategories) UnmarshalYAML(node *yaml.Node) error {
	var doc struct {
		Categories yaml.Node `yaml:"categories"`
	}
	if err := node.Decode(&doc); err != nil {
		return err
	}
	m := &doc.Categories
	if m.Kind == 0 {
		c.Categories = nil
		return nil
	}
	if m.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: categories must be a mapping of name to keywords", m.Line)
	}
	c.Categories = make([]Category, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		var cat Category
		if err := m.Content[i].Decode(&cat.Name); err != nil {
			return err
		}
		if err := m.Content[i+1].Decode(&cat.Keywords); err != nil {
			return fmt.Errorf("category %q: %w", cat.Name, err)
		}
		c.Categories = append(c.Categories, cat)
	}
	return nil
}

// Rules bundles the three rule files.
type Rules struct {
	Phrases    Phrases
	Sensitive  PIIProfanity
	Categories CallCategories
}

// Paths returns the absolute-ish file paths of the rule files.
func (r RulesConfig) Paths() (phrases, pii, categories string) {
	return filepath.Join(r.Dir, r.Phrases), filepath.Join(r.Dir, r.PII), filepath.Join(r.Dir, r.Categories)
}

// LoadRules reads and validates all rule files.
func LoadRules(rc RulesConfig) (*Rules, error) {
	phrasesPath, piiPath, catPath := rc.Paths()
	var r Rules
	if err := LoadYAMLFile(phrasesPath, &r.Phrases); err != nil {
		return nil, err
	}
	if err := LoadYAMLFile(piiPath, &r.Sensitive); err != nil {
		return nil, err
	}
	if err := LoadYAMLFile(catPath, &r.Categories); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadYAMLFile decodes path into out and validates it.
func LoadYAMLFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%s: %w", path, formatValidation(err))
	}
	return nil
}
