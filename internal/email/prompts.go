// Package email drives the multi-stage generation workflow that turns a
// canonical profile into a parsed outreach email draft.
package email

import (
	_ "embed"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// promptConfig is the parsed shape of prompts.yaml.
type promptConfig struct {
	Agents map[string]agentConfig `yaml:"agents"`
	Tasks  []taskConfig           `yaml:"tasks"`
}

type agentConfig struct {
	Role            string `yaml:"role"`
	Goal            string `yaml:"goal"`
	Backstory       string `yaml:"backstory"`
	AllowDelegation bool   `yaml:"allow_delegation"`
}

type taskConfig struct {
	Name           string   `yaml:"name"`
	Agent          string   `yaml:"agent"`
	Context        []string `yaml:"context"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
}

// loadPromptConfig parses the embedded prompt templates and validates
// that every task references a defined agent.
func loadPromptConfig() (*promptConfig, error) {
	var cfg promptConfig
	if err := yaml.Unmarshal(promptsYAML, &cfg); err != nil {
		return nil, eris.Wrap(err, "email: parse prompts")
	}
	if len(cfg.Agents) == 0 || len(cfg.Tasks) == 0 {
		return nil, eris.New("email: prompts define no agents or tasks")
	}

	names := map[string]bool{}
	for _, t := range cfg.Tasks {
		if _, ok := cfg.Agents[t.Agent]; !ok {
			return nil, eris.Errorf("email: task %s references unknown agent %s", t.Name, t.Agent)
		}
		for _, c := range t.Context {
			if !names[c] {
				return nil, eris.Errorf("email: task %s references unknown context task %s", t.Name, c)
			}
		}
		names[t.Name] = true
	}
	return &cfg, nil
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// renderTemplate substitutes {placeholder} tokens from vars. Substitution
// is strict: an unbound placeholder is a configuration defect and fails
// loudly rather than silently dropping content.
func renderTemplate(tmpl string, vars map[string]string) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(tok string) string {
		name := tok[1 : len(tok)-1]
		v, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return tok
		}
		return v
	})
	if missing != "" {
		return "", eris.Errorf("email: template placeholder {%s} has no value", missing)
	}
	return out, nil
}
