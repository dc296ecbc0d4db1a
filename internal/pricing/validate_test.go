package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heliosol/backend-offer/internal/pricing"
)

func TestValidateInputsNegativeAmount(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	report := pricing.ValidateInputs(rs, dec("-10"), nil)
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
}

func TestValidateInputsUnknownAccessory(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterAccessory(pricing.Accessory{ID: "wb", Name: "Wallbox", UnitPrice: dec("1"), Quantity: 1}))

	report := pricing.ValidateInputs(rs, dec("100"), []string{"wb", "ghost"})
	require.True(t, report.Valid, "unknown ids warn, they do not invalidate")
	require.Len(t, report.Warnings, 1)
	require.Contains(t, report.Warnings[0], "ghost")
}

func TestValidateInputsRecommendsRules(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	report := pricing.ValidateInputs(rs, dec("100"), nil)
	require.True(t, report.Valid)
	require.NotEmpty(t, report.Recommendations)
}

func TestValidateInputsFlagsTieredRules(t *testing.T) {
	t.Parallel()

	rs := newRuleset(t)
	require.NoError(t, rs.RegisterDiscount(pricing.Rule{
		Kind: pricing.KindTiered, Value: dec("5"), Description: "volume", Active: true,
	}))

	report := pricing.ValidateInputs(rs, dec("100"), nil)
	require.True(t, report.Valid)
	found := false
	for _, w := range report.Warnings {
		if w == `rule "DISCOUNT_VOLUME" has the reserved tiered kind and will not be evaluated` {
			found = true
		}
	}
	require.True(t, found, "warnings: %v", report.Warnings)
}
