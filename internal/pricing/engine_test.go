package pricing_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/heliosol/backend-offer/internal/pricing"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newRuleset(t *testing.T) *pricing.Ruleset {
	t.Helper()
	rs := pricing.NewRuleset(zerolog.Nop())
	rs.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return rs
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterAccessory(pricing.Accessory{
		ID: "wallbox", Name: "Wallbox", UnitPrice: dec("200"), Quantity: 1,
	}))
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("10"), Description: "Spring promo", Active: true,
	}))
	require.NoError(t, rs.RegisterSurcharge(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("5"), Description: "Scaffolding", Active: true,
	}))
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindFixed, Value: dec("50"), Description: "Loyalty bonus", Active: true,
	}))
	require.NoError(t, rs.RegisterSurcharge(pricing.Rule{
		Kind: pricing.KindFixed, Value: dec("30"), Description: "Remote site", Active: true,
	}))

	result := pricing.Calculate(rs, dec("1000"), []string{"wallbox"}, nil)

	require.True(t, result.AccessoriesCost.Equal(dec("200")), "accessories cost %s", result.AccessoriesCost)
	require.True(t, result.Totals.AmountWithAccessories.Equal(dec("1200")))
	require.True(t, result.TotalDiscounts.Equal(dec("170")), "total discounts %s", result.TotalDiscounts)
	require.True(t, result.TotalSurcharges.Equal(dec("84")), "total surcharges %s", result.TotalSurcharges)
	require.True(t, result.FinalAmount.Equal(dec("1114")), "final amount %s", result.FinalAmount)
	require.True(t, result.Totals.NetModification.Equal(dec("-86")))
	require.False(t, result.PreventedNegative)
	require.Len(t, result.Applications, 5)

	// One accessory record, then the four rules in pipeline order.
	kinds := make([]pricing.ApplicationKind, 0, len(result.Applications))
	for _, app := range result.Applications {
		kinds = append(kinds, app.Kind)
	}
	require.Equal(t, []pricing.ApplicationKind{
		pricing.ApplyAccessory,
		pricing.ApplyDiscountPercentage,
		pricing.ApplySurchargePercentage,
		pricing.ApplyDiscountFixed,
		pricing.ApplySurchargeFixed,
	}, kinds)
}

func TestPercentageSurchargeBaseIsAmountAfterDiscounts(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("10"), Description: "promo", Active: true,
	}))
	require.NoError(t, rs.RegisterSurcharge(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("5"), Description: "site", Active: true,
	}))

	result := pricing.Calculate(rs, dec("1000"), nil, nil)

	// 5% of 900, not of 1000.
	require.True(t, result.TotalSurcharges.Equal(dec("45")), "surcharges %s", result.TotalSurcharges)
	require.True(t, result.FinalAmount.Equal(dec("945")))
	surcharge := result.Applications[1]
	require.Equal(t, pricing.ApplySurchargePercentage, surcharge.Kind)
	require.True(t, surcharge.BaseAmount.Equal(dec("900")))
}

func TestSameKindRulesDoNotCompound(t *testing.T) {
	t.Parallel()

	for _, order := range [][2]string{{"10", "5"}, {"5", "10"}} {
		rs := newRuleset(t)
		require.NoError(t, rs.RegisterDiscount(pricing.Rule{
			Kind: pricing.KindPercentage, Value: dec(order[0]), Description: "first", Active: true, Priority: 1,
		}))
		require.NoError(t, rs.RegisterDiscount(pricing.Rule{
			Kind: pricing.KindPercentage, Value: dec(order[1]), Description: "second", Active: true, Priority: 2,
		}))

		result := pricing.Calculate(rs, dec("1000"), nil, nil)
		require.True(t, result.TotalDiscounts.Equal(dec("150")), "insertion order %v gave %s", order, result.TotalDiscounts)
	}
}

func TestPriorityOrdersAuditTrailOnly(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("5"), Description: "low", Active: true, Priority: 1,
	}))
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("10"), Description: "high", Active: true, Priority: 10,
	}))

	result := pricing.Calculate(rs, dec("1000"), nil, nil)
	require.Equal(t, "DISCOUNT_HIGH", result.Applications[0].Ref)
	require.Equal(t, "DISCOUNT_LOW", result.Applications[1].Ref)
	// Both saw the same base regardless of priority.
	require.True(t, result.Applications[0].BaseAmount.Equal(result.Applications[1].BaseAmount))
}

func TestMaximumCapLimitsSingleRule(t *testing.T) {
	t.Parallel()

	cap := dec("150")
	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("20"), Description: "capped", Active: true, MaximumCap: &cap,
	}))

	result := pricing.Calculate(rs, dec("1000"), nil, nil)
	require.True(t, result.TotalDiscounts.Equal(dec("150")), "discounts %s", result.TotalDiscounts)

	app := result.Applications[0]
	require.True(t, app.Detail.Capped)
	require.True(t, app.Detail.RawAmount.Equal(dec("200")))
	require.True(t, app.Applied.Equal(dec("150")))
}

func TestConditionGating(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind:        pricing.KindPercentage,
		Value:       dec("10"),
		Description: "premium only",
		Active:      true,
		Conditions:  map[string]any{"customer_type": "premium"},
	}))

	standard := pricing.Calculate(rs, dec("1000"), nil, map[string]any{"customer_type": "standard"})
	require.True(t, standard.TotalDiscounts.IsZero())
	require.Empty(t, standard.Applications)

	premium := pricing.Calculate(rs, dec("1000"), nil, map[string]any{"customer_type": "premium"})
	require.True(t, premium.TotalDiscounts.Equal(dec("100")))
}

func TestMinimumAmountGating(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind:          pricing.KindPercentage,
		Value:         dec("10"),
		Description:   "large orders",
		Active:        true,
		MinimumAmount: dec("2000"),
	}))

	below := pricing.Calculate(rs, dec("1000"), nil, nil)
	require.True(t, below.TotalDiscounts.IsZero())

	above := pricing.Calculate(rs, dec("2500"), nil, nil)
	require.True(t, above.TotalDiscounts.Equal(dec("250")))
}

func TestFixedRulesGateAgainstOriginalAmount(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterAccessory(pricing.Accessory{
		ID: "battery", Name: "Battery", UnitPrice: dec("1500"), Quantity: 1,
	}))
	// Minimum is met by the amount with accessories (2500) but not by the
	// original amount (1000); fixed rules gate against the original.
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind:          pricing.KindFixed,
		Value:         dec("100"),
		Description:   "big order rebate",
		Active:        true,
		MinimumAmount: dec("2000"),
	}))

	result := pricing.Calculate(rs, dec("1000"), []string{"battery"}, nil)
	require.True(t, result.TotalDiscounts.IsZero(), "fixed rule must gate against the original amount")

	// A percentage rule with the same floor does apply: it gates against
	// the amount with accessories.
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind:          pricing.KindPercentage,
		Value:         dec("10"),
		Description:   "big order percent",
		Active:        true,
		MinimumAmount: dec("2000"),
	}))
	result = pricing.Calculate(rs, dec("1000"), []string{"battery"}, nil)
	require.True(t, result.TotalDiscounts.Equal(dec("250")))
}

func TestNegativeFinalAmountClamped(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindFixed, Value: dec("500"), Description: "oversized rebate", Active: true,
	}))

	result := pricing.Calculate(rs, dec("100"), nil, nil)
	require.True(t, result.FinalAmount.IsZero())
	require.True(t, result.PreventedNegative)
}

func TestUnknownAccessoryIDsSilentlySkipped(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterAccessory(pricing.Accessory{
		ID: "optimizer", Name: "Optimizer", UnitPrice: dec("80"), Quantity: 2,
	}))

	result := pricing.Calculate(rs, dec("1000"), []string{"optimizer", "no-such-item"}, nil)
	require.True(t, result.AccessoriesCost.Equal(dec("160")))
	require.Len(t, result.Applications, 1)
}

func TestInactiveRuleSkipped(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("10"), Description: "disabled", Active: false,
	}))

	result := pricing.Calculate(rs, dec("1000"), nil, nil)
	require.True(t, result.TotalDiscounts.IsZero())
	require.Empty(t, result.Applications)
}

func TestTieredRuleContributesNothing(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindTiered, Value: dec("10"), Description: "volume tiers", Active: true,
	}))

	result := pricing.Calculate(rs, dec("1000"), nil, nil)
	require.True(t, result.TotalDiscounts.IsZero())
	require.Empty(t, result.Applications, "tiered rules must not appear in the audit trail")
	require.True(t, result.FinalAmount.Equal(dec("1000")))
}

func TestCalculateIsIdempotent(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterAccessory(pricing.Accessory{
		ID: "wallbox", Name: "Wallbox", UnitPrice: dec("200"), Quantity: 1,
	}))
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindPercentage, Value: dec("7.5"), Description: "promo", Active: true,
	}))

	ctx := map[string]any{"region": "north"}
	first := pricing.Calculate(rs, dec("1234.56"), []string{"wallbox"}, ctx)
	second := pricing.Calculate(rs, dec("1234.56"), []string{"wallbox"}, ctx)
	require.Equal(t, first, second)

	// The ruleset itself must be untouched by calculations.
	require.Len(t, rs.Discounts(), 1)
	require.Len(t, rs.Accessories(), 1)
}

func TestNegativeOriginalAmountIsNotAnError(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	result := pricing.Calculate(rs, dec("-50"), nil, nil)
	require.True(t, result.FinalAmount.IsZero())
	require.True(t, result.PreventedNegative)
}
