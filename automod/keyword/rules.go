package keyword

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static matching configuration for the scam signal detector.
type Rules struct {
	// Any of these appearing anywhere in the text is a match.
	Keywords []string `yaml:"keywords"`
	// Each group matches only if every marker in the group appears in the text.
	CoOccurrence [][]string `yaml:"co_occurrence"`
}

// Built-in rules, targeting game-server "developer for hire" recruitment scams.
func DefaultRules() Rules {
	return Rules{
		Keywords: []string{
			"coder",
			"scripter",
			"dev for hire",
			"commissions open",
			"dm for work",
		},
		CoOccurrence: [][]string{
			{"fivem", "dayz"},
			{"fivem", "arma"},
			{"dayz", "arma"},
			{"rust", "plugins"},
		},
	}
}

// Reads rules from a YAML file, eg:
//
//	keywords:
//	  - coder
//	co_occurrence:
//	  - [fivem, dayz]
func LoadRulesFile(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}
	var r Rules
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return Rules{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return r.Clean()
}

// Drops blank keywords and markers. A co-occurrence group with no remaining markers is an error, since it would otherwise match every input.
func (r Rules) Clean() (Rules, error) {
	out := Rules{
		Keywords:     []string{},
		CoOccurrence: [][]string{},
	}
	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) != "" {
			out.Keywords = append(out.Keywords, kw)
		}
	}
	for i, group := range r.CoOccurrence {
		g := []string{}
		for _, m := range group {
			if strings.TrimSpace(m) != "" {
				g = append(g, m)
			}
		}
		if len(g) == 0 {
			return Rules{}, fmt.Errorf("co-occurrence group %d has no markers", i)
		}
		out.CoOccurrence = append(out.CoOccurrence, g)
	}
	return out, nil
}
