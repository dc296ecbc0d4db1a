package pricing

import (
	"reflect"

	"github.com/shopspring/decimal"
)

// AppliesTo reports whether the rule fires for the given base amount and
// calculation context. A rule applies when it is active, the base amount
// reaches its minimum, and every configured condition matches the context
// exactly. Matching is strict equality, with no ranges and no partial matches.
// Composite conditions must be pre-resolved by the caller into exact-match
// context values.
func (r Rule) AppliesTo(base decimal.Decimal, ctx map[string]any) bool {
	if !r.Active {
		return false
	}
	if base.LessThan(r.MinimumAmount) {
		return false
	}
	for key, expected := range r.Conditions {
		got, ok := ctx[key]
		if !ok || !equalValue(expected, got) {
			return false
		}
	}
	return true
}

// equalValue compares condition values. Values that round-trip through JSON
// compare as decoded (strings, float64, bool); anything else falls back to
// deep equality. Callers must pre-normalise types on both sides.
func equalValue(expected, got any) bool {
	if e, ok := expected.(decimal.Decimal); ok {
		if g, ok := got.(decimal.Decimal); ok {
			return e.Equal(g)
		}
	}
	return reflect.DeepEqual(expected, got)
}
