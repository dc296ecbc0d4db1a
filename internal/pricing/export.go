package pricing

import "github.com/shopspring/decimal"

// Aggregate export keys. The key registry consumes these unformatted;
// currency formatting is the presentation layer's concern.
const (
	KeyBasePrice            = "PRICING_BASE_PRICE"
	KeyAccessoriesCost      = "PRICING_ACCESSORIES_COST"
	KeyPriceWithAccessories = "PRICING_PRICE_WITH_ACCESSORIES"
	KeyTotalDiscounts       = "PRICING_TOTAL_DISCOUNTS"
	KeyTotalSurcharges      = "PRICING_TOTAL_SURCHARGES"
	KeyNetModification      = "PRICING_NET_MODIFICATION"
	KeyFinalAmount          = "PRICING_FINAL_AMOUNT"

	percentageKeySuffix = "_PERCENTAGE"
	baseAmountKeySuffix = "_BASE_AMOUNT"
)

// ExportKeys flattens a result into the name→value table consumed by the
// key registry: the aggregate totals, one key per application under its
// derived key, and for percentage applications the percentage used and the
// base it was measured against. Raw decimals only, no formatting.
func ExportKeys(result Result) map[string]decimal.Decimal {
	keys := map[string]decimal.Decimal{
		KeyBasePrice:            result.OriginalAmount,
		KeyAccessoriesCost:      result.AccessoriesCost,
		KeyPriceWithAccessories: result.Totals.AmountWithAccessories,
		KeyTotalDiscounts:       result.TotalDiscounts,
		KeyTotalSurcharges:      result.TotalSurcharges,
		KeyNetModification:      result.Totals.NetModification,
		KeyFinalAmount:          result.FinalAmount,
	}
	for _, app := range result.Applications {
		if app.Ref == "" {
			continue
		}
		keys[app.Ref] = app.Applied
		if app.Detail.Percentage != nil {
			keys[app.Ref+percentageKeySuffix] = *app.Detail.Percentage
			keys[app.Ref+baseAmountKeySuffix] = app.BaseAmount
		}
	}
	return keys
}
