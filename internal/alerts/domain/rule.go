package alerts

import (
	"fmt"
	"strings"

	telemetry "genset-cloud/internal/telemetry/domain"
)

// Limits bounds a single parameter. A nil side means that side is unchecked.
type Limits struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// RuleSet maps a parameter name to its limits.
type RuleSet map[string]Limits

// Clone returns an independent copy of the rule set.
func (r RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(r))
	for name, limits := range r {
		out[name] = limits
	}
	return out
}

// Merge overlays the given limits onto a copy of the rule set. Parameters
// absent from the overlay keep their current limits.
func (r RuleSet) Merge(overlay RuleSet) RuleSet {
	out := r.Clone()
	for name, limits := range overlay {
		out[name] = limits
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// DefaultRules returns the factory limits applied until an operator persists
// an override.
func DefaultRules() RuleSet {
	return RuleSet{
		"rpm":  {Max: ptr(3800)},
		"temp": {Max: ptr(95)},
		"volt": {Min: ptr(180), Max: ptr(250)},
		"fuel": {Min: ptr(20)},
		"oil":  {Min: ptr(20)},
		"amp":  {Max: ptr(100)},
		"freq": {Min: ptr(48), Max: ptr(52)},
	}
}

// Evaluate checks each parameter against the rule set, in the order the
// parameters are given. A value above the max produces a critical violation,
// a value below the min a medium one. Parameters without a rule pass.
func Evaluate(params []telemetry.Parameter, rules RuleSet) []Violation {
	var violations []Violation
	for _, p := range params {
		limits, ok := rules[p.Name]
		if !ok {
			continue
		}
		label := strings.ToUpper(p.Name)
		if limits.Max != nil && p.Value > *limits.Max {
			violations = append(violations, Violation{
				Parameter: p.Name,
				Value:     p.Value,
				Message:   fmt.Sprintf("%s Too High (> %g)", label, *limits.Max),
				Severity:  SeverityCritical,
			})
			continue
		}
		if limits.Min != nil && p.Value < *limits.Min {
			violations = append(violations, Violation{
				Parameter: p.Name,
				Value:     p.Value,
				Message:   fmt.Sprintf("%s Too Low (< %g)", label, *limits.Min),
				Severity:  SeverityMedium,
			})
		}
	}
	return violations
}
