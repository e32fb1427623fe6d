// Package security classifies rendered commands into risk tiers.
package security

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/nixsay/assets"
	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// Guardrail implements the SecurityService port.
type Guardrail struct {
	rules     []compiledRule
	unmatched domain.RiskTier
	source    string
}

type compiledRule struct {
	re   *regexp.Regexp
	rule Rule
	tier domain.RiskTier
}

// Rule describes a regex-based risk rule.
type Rule struct {
	ID          string `yaml:"id"`
	Tier        string `yaml:"tier"`
	Pattern     string `yaml:"pattern"`
	Message     string `yaml:"message"`
	Alternative string `yaml:"alternative,omitempty"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Options configures a Guardrail.
type Options struct {
	RulesFile     string
	UnmatchedTier domain.RiskTier
}

// NewGuardrail loads rules from disk, falling back to the embedded defaults
// when the file is missing or empty.
func NewGuardrail(opts Options) (*Guardrail, error) {
	doc, source, err := loadRules(opts.RulesFile)
	if err != nil {
		return nil, err
	}
	compiled, err := compile(doc.Rules)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &Guardrail{rules: compiled, unmatched: opts.UnmatchedTier, source: source}, nil
}

// NewDefaultGuardrail uses only the embedded rule set.
func NewDefaultGuardrail() (*Guardrail, error) {
	return NewGuardrail(Options{})
}

func compile(rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	seen := map[string]bool{}
	for _, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule with pattern %q has no id", r.Pattern)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		tier, err := domain.ParseRiskTier(r.Tier)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{re: re, rule: r, tier: tier})
	}
	// Highest tier first; file order breaks ties.
	sort.SliceStable(compiled, func(i, j int) bool { return compiled[i].tier > compiled[j].tier })
	return compiled, nil
}

// Assess implements ports.SecurityService. The first matching rule in tier
// order classifies the command.
func (g *Guardrail) Assess(cmd domain.Command) (domain.RiskAssessment, error) {
	if g == nil {
		return domain.RiskAssessment{}, errors.New("guardrail nil")
	}
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return domain.RiskAssessment{}, errors.New("empty command")
	}

	assessment := domain.RiskAssessment{
		Tier:      g.unmatched,
		Rationale: fmt.Sprintf("No risk rule matches; treated as %s", g.unmatched),
	}
	for _, r := range g.rules {
		if r.re.MatchString(text) {
			assessment.Tier = r.tier
			assessment.MatchedRule = r.rule.ID
			assessment.Rationale = r.rule.Message
			assessment.Alternative = r.rule.Alternative
			break
		}
	}

	assessment.Policy = domain.PolicyFor(assessment.Tier)
	assessment.RequiresConfirmation = assessment.Policy == domain.PolicyTypedConfirm ||
		assessment.Policy == domain.PolicyConfirmAndRestate
	if assessment.RequiresConfirmation {
		subject := cmd.Operation
		if subject == "" {
			subject = assessment.MatchedRule
		}
		assessment.ConfirmationPhrase = domain.ConfirmationPhraseFor(subject)
	}
	return assessment, nil
}

// Rules returns the rules in evaluation order.
func (g *Guardrail) Rules() []Rule {
	out := make([]Rule, 0, len(g.rules))
	for _, r := range g.rules {
		out = append(out, r.rule)
	}
	return out
}

// Source names where the rules were loaded from.
func (g *Guardrail) Source() string {
	return g.source
}

func loadRules(path string) (RulesFile, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			doc, perr := parseRules(data)
			if perr != nil {
				return RulesFile{}, path, fmt.Errorf("parse %s: %w", path, perr)
			}
			if len(doc.Rules) > 0 {
				return doc, path, nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return RulesFile{}, path, err
		}
	}
	doc, err := parseRules(assets.DefaultGuardrailYAML)
	return doc, "builtin", err
}

func parseRules(data []byte) (RulesFile, error) {
	var doc RulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RulesFile{}, err
	}
	return doc, nil
}

// ValidateRulesFile reports whether a rules file parses and compiles.
func ValidateRulesFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	doc, err := parseRules(data)
	if err != nil {
		return 0, err
	}
	compiled, err := compile(doc.Rules)
	return len(compiled), err
}

var _ ports.SecurityService = (*Guardrail)(nil)
