package pricing

import "strings"

// Export key prefixes per collection.
const (
	discountKeyPrefix  = "DISCOUNT_"
	surchargeKeyPrefix = "SURCHARGE_"
	accessoryKeyPrefix = "ACCESSORY_"
)

// DeriveKey builds a stable export key from a free-text description: letters
// and digits are uppercased, every other rune collapses to an underscore.
// The result is prefix + sanitised description. Keys are derived exactly once
// at registration; when two rules sanitise to the same key the last
// registered one wins in the export table.
func DeriveKey(prefix, description string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(description))
	b.WriteString(prefix)
	for _, r := range description {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
