package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate runs the modification pipeline against the given ruleset. The
// pipeline order is fixed:
//
//  1. accessory costs are summed and added to the original amount (A0)
//  2. percentage discounts are gated and computed against A0, summed, and
//     subtracted (A1)
//  3. percentage surcharges are gated and computed against A1, summed, and
//     added (A2)
//  4. fixed discounts and surcharges are gated against the ORIGINAL amount
//     (not the running amount) and applied to A2
//  5. a negative result clamps to zero with PreventedNegative set
//
// The asymmetric gating base for fixed rules is deliberate and preserved:
// changing it would silently alter financial outcomes.
//
// Unknown accessory ids and negative original amounts are not errors; the
// former contribute nothing. The ruleset is never mutated, so identical
// inputs against an unchanged ruleset produce identical results.
func Calculate(rs *Ruleset, original decimal.Decimal, accessoryIDs []string, ctx map[string]any) Result {
	now := rs.now()
	applications := make([]Application, 0, len(accessoryIDs)+len(rs.discounts)+len(rs.surcharges))

	accessoriesCost := decimal.Zero
	for _, id := range accessoryIDs {
		item, ok := rs.Accessory(id)
		if !ok {
			continue
		}
		cost := item.Cost()
		accessoriesCost = accessoriesCost.Add(cost)
		applications = append(applications, Application{
			Kind:       ApplyAccessory,
			Ref:        item.Key,
			Applied:    cost,
			BaseAmount: original,
			Detail:     Detail{RawAmount: cost},
			AppliedAt:  now,
		})
	}

	withAccessories := original.Add(accessoriesCost)

	percentDiscounts, apps := applyPercentageRules(rs.discounts, ApplyDiscountPercentage, withAccessories, ctx, now)
	applications = append(applications, apps...)
	afterDiscounts := withAccessories.Sub(percentDiscounts)

	percentSurcharges, apps := applyPercentageRules(rs.surcharges, ApplySurchargePercentage, afterDiscounts, ctx, now)
	applications = append(applications, apps...)
	afterSurcharges := afterDiscounts.Add(percentSurcharges)

	fixedDiscounts, apps := applyFixedRules(rs.discounts, ApplyDiscountFixed, original, ctx, now)
	applications = append(applications, apps...)

	fixedSurcharges, apps := applyFixedRules(rs.surcharges, ApplySurchargeFixed, original, ctx, now)
	applications = append(applications, apps...)

	final := afterSurcharges.Sub(fixedDiscounts).Add(fixedSurcharges)
	prevented := false
	if final.IsNegative() {
		final = decimal.Zero
		prevented = true
	}

	totalDiscounts := percentDiscounts.Add(fixedDiscounts)
	totalSurcharges := percentSurcharges.Add(fixedSurcharges)

	result := Result{
		OriginalAmount:    original,
		AccessoriesCost:   accessoriesCost,
		TotalDiscounts:    totalDiscounts,
		TotalSurcharges:   totalSurcharges,
		FinalAmount:       final,
		PreventedNegative: prevented,
		Applications:      applications,
		Totals: Totals{
			Original:              original,
			AccessoriesCost:       accessoriesCost,
			AmountWithAccessories: withAccessories,
			TotalDiscounts:        totalDiscounts,
			TotalSurcharges:       totalSurcharges,
			FinalAmount:           final,
			NetModification:       totalSurcharges.Sub(totalDiscounts),
		},
	}
	result.ExportedKeys = ExportKeys(result)
	return result
}

// applyPercentageRules evaluates every active percentage rule against the
// step base, caps each rule's amount individually and sums the results.
// Rules never compound: each one sees the same base.
func applyPercentageRules(rules []Rule, kind ApplicationKind, base decimal.Decimal, ctx map[string]any, now time.Time) (decimal.Decimal, []Application) {
	total := decimal.Zero
	var applications []Application
	for _, rule := range rules {
		if rule.Kind != KindPercentage || !rule.AppliesTo(base, ctx) {
			continue
		}
		raw := base.Mul(rule.Value).Div(hundred)
		amount := raw
		capped := false
		if rule.MaximumCap != nil && amount.GreaterThan(*rule.MaximumCap) {
			amount = *rule.MaximumCap
			capped = true
		}
		total = total.Add(amount)
		percentage := rule.Value
		applications = append(applications, Application{
			Kind:       kind,
			Ref:        rule.Key,
			Applied:    amount,
			BaseAmount: base,
			Detail:     Detail{Percentage: &percentage, RawAmount: raw, Capped: capped},
			AppliedAt:  now,
		})
	}
	return total, applications
}

// applyFixedRules evaluates fixed-kind rules. Gating uses the original
// amount handed in by the caller; the applied amount is the raw rule value
// with no cap semantics.
func applyFixedRules(rules []Rule, kind ApplicationKind, original decimal.Decimal, ctx map[string]any, now time.Time) (decimal.Decimal, []Application) {
	total := decimal.Zero
	var applications []Application
	for _, rule := range rules {
		if rule.Kind != KindFixed || !rule.AppliesTo(original, ctx) {
			continue
		}
		total = total.Add(rule.Value)
		applications = append(applications, Application{
			Kind:       kind,
			Ref:        rule.Key,
			Applied:    rule.Value,
			BaseAmount: original,
			Detail:     Detail{RawAmount: rule.Value},
			AppliedAt:  now,
		})
	}
	return total, applications
}
