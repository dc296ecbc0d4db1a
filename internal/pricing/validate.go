package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InputReport is the outcome of a pre-flight check over calculation inputs.
// Calculate itself never rejects these inputs; the report lets callers warn
// the user before committing an offer.
type InputReport struct {
	Valid           bool     `json:"is_valid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// ValidateInputs inspects a prospective calculation without running it.
func ValidateInputs(rs *Ruleset, original decimal.Decimal, accessoryIDs []string) InputReport {
	report := InputReport{Valid: true}

	if original.IsNegative() {
		report.Valid = false
		report.Errors = append(report.Errors, fmt.Sprintf("original amount %s is negative", original))
	} else if original.IsZero() {
		report.Warnings = append(report.Warnings, "original amount is zero; percentage rules will contribute nothing")
	}

	for _, id := range accessoryIDs {
		if _, ok := rs.Accessory(id); !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("accessory %q is not registered and will be skipped", id))
		}
	}

	if !hasActiveRules(rs.discounts) && !hasActiveRules(rs.surcharges) {
		report.Recommendations = append(report.Recommendations, "no active discount or surcharge rules are configured; the final amount will only reflect accessories")
	}
	for _, rule := range append(rs.Discounts(), rs.surcharges...) {
		if rule.Kind == KindTiered && rule.Active {
			report.Warnings = append(report.Warnings, fmt.Sprintf("rule %q has the reserved tiered kind and will not be evaluated", rule.Key))
		}
	}

	return report
}

func hasActiveRules(rules []Rule) bool {
	for _, r := range rules {
		if r.Active {
			return true
		}
	}
	return false
}
