// Package pricing implements the offer pricing modification engine: it turns a
// base price, a set of selected accessory items and a collection of conditional
// discount/surcharge rules into a final amount together with a complete audit
// trail of every applied modification.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies how a rule's value is interpreted.
type Kind string

const (
	// KindPercentage applies the rule value as percentage points of the step base.
	KindPercentage Kind = "percentage"
	// KindFixed applies the rule value as an absolute currency amount.
	KindFixed Kind = "fixed"
	// KindTiered is reserved for future tiered rules. It is accepted at
	// registration but no pipeline step evaluates it, so such a rule
	// contributes nothing to any total. The tier semantics are an open
	// question for the rule author and deliberately not guessed here.
	KindTiered Kind = "tiered"
)

// Scope declares which part of an offer a rule targets. Scope is stored for
// future condition use and is not evaluated by the calculator.
type Scope string

const (
	ScopeTotal    Scope = "total"
	ScopeCategory Scope = "category"
	ScopeItem     Scope = "item"
)

// percentWarnThreshold triggers a non-fatal warning on registration.
var percentWarnThreshold = decimal.NewFromInt(100)

// Rule describes a conditional discount or surcharge. Discounts and
// surcharges share the same shape; the owning collection decides the sign.
//
// Priority orders rules inside the audit trail only. It never changes the
// computed total: rules of the same kind are evaluated independently against
// the same base amount and summed, so they do not compound.
type Rule struct {
	// Key is a stable identifier used for key export. When empty it is
	// derived once at registration from Description and never changes
	// afterwards, even if the description is edited later.
	Key           string           `json:"key"`
	Kind          Kind             `json:"kind"`
	Value         decimal.Decimal  `json:"value"`
	Description   string           `json:"description"`
	Scope         Scope            `json:"scope,omitempty"`
	TargetID      string           `json:"targetId,omitempty"`
	Conditions    map[string]any   `json:"conditions,omitempty"`
	MinimumAmount decimal.Decimal  `json:"minimumAmount"`
	MaximumCap    *decimal.Decimal `json:"maximumCap,omitempty"`
	Active        bool             `json:"active"`
	Priority      int              `json:"priority"`
}

// Accessory is an optional add-on item priced per unit.
type Accessory struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Key       string          `json:"key"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category,omitempty"`
	Optional  bool            `json:"optional"`
}

// Cost returns unit price times quantity.
func (a Accessory) Cost() decimal.Decimal {
	return a.UnitPrice.Mul(decimal.NewFromInt(int64(a.Quantity)))
}

// ValidationError reports why a rule or accessory was rejected at
// registration time. The offending collection is left unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("pricing: invalid %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func validateRule(r Rule) error {
	switch r.Kind {
	case KindPercentage, KindFixed, KindTiered:
	default:
		return validationErrorf("kind", "%q is not one of percentage, fixed or tiered", r.Kind)
	}
	if r.Value.IsNegative() {
		return validationErrorf("value", "must not be negative, got %s", r.Value)
	}
	return nil
}

func validateAccessory(a Accessory) error {
	if a.ID == "" {
		return validationErrorf("id", "must not be empty")
	}
	if a.UnitPrice.IsNegative() {
		return validationErrorf("unitPrice", "must not be negative, got %s", a.UnitPrice)
	}
	if a.Quantity <= 0 {
		return validationErrorf("quantity", "must be positive, got %d", a.Quantity)
	}
	return nil
}
