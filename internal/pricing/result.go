package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationKind identifies which pipeline step produced an audit record.
type ApplicationKind string

const (
	ApplyAccessory           ApplicationKind = "accessory"
	ApplyDiscountPercentage  ApplicationKind = "discount_percentage"
	ApplyDiscountFixed       ApplicationKind = "discount_fixed"
	ApplySurchargePercentage ApplicationKind = "surcharge_percentage"
	ApplySurchargeFixed      ApplicationKind = "surcharge_fixed"
)

// Detail carries the arithmetic behind one application: the percentage used
// (percentage kinds only), the raw amount before capping and whether the
// per-rule cap actually reduced it.
type Detail struct {
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	RawAmount  decimal.Decimal  `json:"raw_amount"`
	Capped     bool             `json:"capped"`
}

// Application is one audit-trail record: a single rule or accessory that
// contributed to the final amount.
type Application struct {
	Kind       ApplicationKind `json:"kind"`
	Ref        string          `json:"ref"`
	Applied    decimal.Decimal `json:"applied_amount"`
	BaseAmount decimal.Decimal `json:"base_amount_used"`
	Detail     Detail          `json:"calculation_detail"`
	AppliedAt  time.Time       `json:"timestamp"`
}

// Totals names the intermediate totals of a calculation.
type Totals struct {
	Original              decimal.Decimal `json:"original"`
	AccessoriesCost       decimal.Decimal `json:"accessories_cost"`
	AmountWithAccessories decimal.Decimal `json:"amount_with_accessories"`
	TotalDiscounts        decimal.Decimal `json:"total_discounts"`
	TotalSurcharges       decimal.Decimal `json:"total_surcharges"`
	FinalAmount           decimal.Decimal `json:"final_amount"`
	// NetModification is total surcharges minus total discounts.
	NetModification decimal.Decimal `json:"net_modification"`
}

// Result is the transient outcome of one calculation run. It is a pure
// function of (original amount, selected accessory ids, context, ruleset)
// and is never stored by the engine.
type Result struct {
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	AccessoriesCost decimal.Decimal `json:"accessories_cost"`
	TotalDiscounts  decimal.Decimal `json:"total_discounts"`
	TotalSurcharges decimal.Decimal `json:"total_surcharges"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	// PreventedNegative flags that the final amount went below zero and was
	// clamped. Clamping is a guard, never an error.
	PreventedNegative bool                       `json:"prevented_negative"`
	Applications      []Application              `json:"applications"`
	ExportedKeys      map[string]decimal.Decimal `json:"exported_keys"`
	Totals            Totals                     `json:"breakdown"`
}
