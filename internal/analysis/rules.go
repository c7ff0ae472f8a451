package analysis

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultStoryHeight is the floor-binning divisor, in model units, when none
// is configured.
const DefaultStoryHeight = 3.0

// Rules configures the classifier's substring table and the spatial binning.
type Rules struct {
	Substrings  []SubstringRule `yaml:"substrings"`
	StoryHeight float64         `yaml:"story_height"`
}

// DefaultRules returns the built-in configuration: no substring table and the
// default story height.
func DefaultRules() *Rules {
	return &Rules{StoryHeight: DefaultStoryHeight}
}

// LoadRules reads classifier rules from a YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: read rules %s", path)
	}

	// The YAML has a top-level "classifier" key.
	var wrapper struct {
		Classifier Rules `yaml:"classifier"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "analysis: parse rules")
	}

	rules := &wrapper.Classifier
	if rules.StoryHeight <= 0 {
		rules.StoryHeight = DefaultStoryHeight
	}
	return rules, nil
}

// Classifier builds the classification function these rules describe.
func (r *Rules) Classifier() Classifier {
	if r == nil {
		return DefaultClassifier
	}
	return NewClassifier(r.Substrings)
}
