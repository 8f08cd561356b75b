package sync

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps content keywords to a board status.
type Rule struct {
	Status   string   `yaml:"status"`
	Keywords []string `yaml:"keywords"`
}

// StatusRules resolves a board status for an item from an ordered rule
// list; the first keyword match wins, the default is the fallback.
type StatusRules struct {
	rules         []Rule
	defaultStatus string
}

func NewStatusRules(rules []Rule, defaultStatus string) *StatusRules {
	return &StatusRules{
		rules:         rules,
		defaultStatus: defaultStatus,
	}
}

// LoadStatusRules reads an ordered rule list from a YAML file. An empty
// path yields rules with only the default fallback.
func LoadStatusRules(path, defaultStatus string) (*StatusRules, error) {
	if path == "" {
		return NewStatusRules(nil, defaultStatus), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var doc struct {
		Rules []Rule `yaml:"rules"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	for i, rule := range doc.Rules {
		if rule.Status == "" {
			return nil, fmt.Errorf("rule %d: status is required", i+1)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): keywords are required", i+1, rule.Status)
		}
	}

	return NewStatusRules(doc.Rules, defaultStatus), nil
}

func (r *StatusRules) Resolve(title, body string) string {
	content := strings.ToLower(title + " " + body)

	for _, rule := range r.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(content, strings.ToLower(keyword)) {
				return rule.Status
			}
		}
	}

	return r.defaultStatus
}
