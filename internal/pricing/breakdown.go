package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Checks summarises the arithmetic guards of a calculation.
type Checks struct {
	PreventedNegative bool `json:"prevented_negative"`
	FinalAmountValid  bool `json:"final_amount_valid"`
	// DiscountPercentOfBase is total discounts relative to the amount with
	// accessories; SurchargePercentOfBase is total surcharges relative to
	// the amount after percentage discounts. Zero when the base is zero.
	DiscountPercentOfBase  decimal.Decimal `json:"discount_percent_of_base"`
	SurchargePercentOfBase decimal.Decimal `json:"surcharge_percent_of_base"`
}

// StepContribution ties one application to the pipeline step it ran in.
type StepContribution struct {
	Step       int             `json:"step"`
	Kind       ApplicationKind `json:"kind"`
	Ref        string          `json:"ref"`
	Amount     decimal.Decimal `json:"amount"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Capped     bool            `json:"capped"`
}

// Breakdown is the extended, step-by-step view of a calculation used for
// audits and UI drill-down. It is a pure transformation of the same inputs
// the calculator consumed.
type Breakdown struct {
	Step1BasePrice            decimal.Decimal    `json:"step_1_base_price"`
	Step2AccessoriesCost      decimal.Decimal    `json:"step_2_accessories_cost"`
	Step3BaseWithAccessories  decimal.Decimal    `json:"step_3_base_with_accessories"`
	Step4PercentageDiscounts  decimal.Decimal    `json:"step_4_percentage_discounts"`
	Step5AfterDiscounts       decimal.Decimal    `json:"step_5_amount_after_discounts"`
	Step6PercentageSurcharges decimal.Decimal    `json:"step_6_percentage_surcharges"`
	Step7AfterSurcharges      decimal.Decimal    `json:"step_7_amount_after_surcharges"`
	Step8FixedDiscounts       decimal.Decimal    `json:"step_8_fixed_discounts"`
	Step9FixedSurcharges      decimal.Decimal    `json:"step_9_fixed_surcharges"`
	Step10FinalAmount         decimal.Decimal    `json:"step_10_final_amount"`
	Contributions             []StepContribution `json:"contributions"`
	Checks                    Checks             `json:"validation_checks"`
	// Formula reproduces the arithmetic with the substituted numbers so a
	// reader can verify the final amount by hand.
	Formula string `json:"formula"`
}

// stepForKind maps an application kind onto its pipeline step number.
func stepForKind(kind ApplicationKind) int {
	switch kind {
	case ApplyAccessory:
		return 2
	case ApplyDiscountPercentage:
		return 4
	case ApplySurchargePercentage:
		return 6
	case ApplyDiscountFixed:
		return 8
	case ApplySurchargeFixed:
		return 9
	}
	return 0
}

// DetailedBreakdown calculates and expands the result into the audit view.
func DetailedBreakdown(rs *Ruleset, original decimal.Decimal, accessoryIDs []string, ctx map[string]any) Breakdown {
	return BuildBreakdown(Calculate(rs, original, accessoryIDs, ctx))
}

// BuildBreakdown derives the step-by-step view from an already computed
// result.
func BuildBreakdown(result Result) Breakdown {
	percentDiscounts := sumByKind(result.Applications, ApplyDiscountPercentage)
	percentSurcharges := sumByKind(result.Applications, ApplySurchargePercentage)
	fixedDiscounts := sumByKind(result.Applications, ApplyDiscountFixed)
	fixedSurcharges := sumByKind(result.Applications, ApplySurchargeFixed)

	withAccessories := result.Totals.AmountWithAccessories
	afterDiscounts := withAccessories.Sub(percentDiscounts)
	afterSurcharges := afterDiscounts.Add(percentSurcharges)

	contributions := make([]StepContribution, 0, len(result.Applications))
	for _, app := range result.Applications {
		contributions = append(contributions, StepContribution{
			Step:       stepForKind(app.Kind),
			Kind:       app.Kind,
			Ref:        app.Ref,
			Amount:     app.Applied,
			BaseAmount: app.BaseAmount,
			Capped:     app.Detail.Capped,
		})
	}

	return Breakdown{
		Step1BasePrice:            result.OriginalAmount,
		Step2AccessoriesCost:      result.AccessoriesCost,
		Step3BaseWithAccessories:  withAccessories,
		Step4PercentageDiscounts:  percentDiscounts,
		Step5AfterDiscounts:       afterDiscounts,
		Step6PercentageSurcharges: percentSurcharges,
		Step7AfterSurcharges:      afterSurcharges,
		Step8FixedDiscounts:       fixedDiscounts,
		Step9FixedSurcharges:      fixedSurcharges,
		Step10FinalAmount:         result.FinalAmount,
		Contributions:             contributions,
		Checks: Checks{
			PreventedNegative:      result.PreventedNegative,
			FinalAmountValid:       !result.FinalAmount.IsNegative(),
			DiscountPercentOfBase:  percentOf(result.TotalDiscounts, withAccessories),
			SurchargePercentOfBase: percentOf(result.TotalSurcharges, afterDiscounts),
		},
		Formula: formulaString(result, percentDiscounts, percentSurcharges, fixedDiscounts, fixedSurcharges),
	}
}

func sumByKind(applications []Application, kind ApplicationKind) decimal.Decimal {
	total := decimal.Zero
	for _, app := range applications {
		if app.Kind == kind {
			total = total.Add(app.Applied)
		}
	}
	return total
}

func percentOf(part, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return part.Div(base).Mul(hundred)
}

func formulaString(result Result, percentDiscounts, percentSurcharges, fixedDiscounts, fixedSurcharges decimal.Decimal) string {
	raw := result.Totals.AmountWithAccessories.
		Sub(percentDiscounts).Add(percentSurcharges).
		Sub(fixedDiscounts).Add(fixedSurcharges)
	formula := fmt.Sprintf("final = ((%s + %s) - %s + %s) - %s + %s = %s",
		result.OriginalAmount, result.AccessoriesCost,
		percentDiscounts, percentSurcharges,
		fixedDiscounts, fixedSurcharges,
		raw)
	if result.PreventedNegative {
		formula += " -> clamped to 0"
	}
	return formula
}
