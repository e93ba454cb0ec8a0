// Package ruleset reads prediction rules from TOML files and validates rule
// definitions before they are stored.
package ruleset

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"gorm.io/datatypes"

	"campusfin/internal/models"
)

// File is the top-level layout of a rule-set file.
type File struct {
	Rules []Rule `toml:"rules"`
}

// Rule is one [[rules]] table.
type Rule struct {
	Name             string                  `toml:"name"`
	Type             models.RuleType         `toml:"type"`
	Description      string                  `toml:"description"`
	Priority         int                     `toml:"priority"`
	Period           models.RulePeriod       `toml:"period"`
	ConfidenceImpact float64                 `toml:"confidence_impact"`
	Active           *bool                   `toml:"active"`
	Conditions       models.RuleConditions   `toml:"conditions"`
	Adjustments      []models.RuleAdjustment `toml:"adjustments"`
}

// Load reads and validates the rule-set file at path.
func Load(path string) ([]models.PredictionRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule set: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses a rule set. Every rule is validated and names must be
// unique within the file.
func Decode(r io.Reader) ([]models.PredictionRule, error) {
	var file File
	md, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("parsing rule set: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing rule set: unknown key %q", undecoded[0].String())
	}

	seen := make(map[string]bool, len(file.Rules))
	rules := make([]models.PredictionRule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		rule := entry.toModel()
		if err := Validate(&rule); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, entry.Name, err)
		}
		if seen[rule.RuleName] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i+1, rule.RuleName)
		}
		seen[rule.RuleName] = true
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r Rule) toModel() models.PredictionRule {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	period := r.Period
	if period == "" {
		period = models.RulePeriodAll
	}
	return models.PredictionRule{
		RuleName:         strings.TrimSpace(r.Name),
		RuleType:         r.Type,
		Description:      r.Description,
		Priority:         r.Priority,
		Period:           period,
		Conditions:       datatypes.NewJSONType(r.Conditions),
		Adjustments:      r.Adjustments,
		ConfidenceImpact: r.ConfidenceImpact,
		IsActive:         active,
	}
}

// Encode writes rules in the rule-set file format.
func Encode(w io.Writer, rules []models.PredictionRule) error {
	file := File{Rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		active := r.IsActive
		file.Rules = append(file.Rules, Rule{
			Name:             r.RuleName,
			Type:             r.RuleType,
			Description:      r.Description,
			Priority:         r.Priority,
			Period:           r.Period,
			ConfidenceImpact: r.ConfidenceImpact,
			Active:           &active,
			Conditions:       r.Conditions.Data(),
			Adjustments:      r.Adjustments,
		})
	}
	return toml.NewEncoder(w).Encode(file)
}
