package pricing

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Ruleset is the configuration a calculation runs against: the registered
// discount rules, surcharge rules and accessory catalog. Registration
// mutates the ruleset; a calculation never does. The ruleset itself carries
// no locking; callers that mutate and calculate concurrently must serialise
// registration externally (one ruleset per session, or a lock around it).
type Ruleset struct {
	log zerolog.Logger

	discounts   []Rule
	surcharges  []Rule
	accessories []Accessory

	// Now is the clock used to stamp audit records. Overridable in tests;
	// nil means time.Now.
	Now func() time.Time
}

// NewRuleset returns an empty ruleset logging warnings through log.
func NewRuleset(log zerolog.Logger) *Ruleset {
	return &Ruleset{log: log}
}

// RegisterDiscount validates and inserts a discount rule, keeping the
// collection ordered by priority descending (stable for equal priorities).
func (rs *Ruleset) RegisterDiscount(r Rule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	rs.warnOnPercent(r, "discount")
	if r.Key == "" {
		r.Key = DeriveKey(discountKeyPrefix, r.Description)
	}
	rs.discounts = insertByPriority(rs.discounts, r)
	return nil
}

// RegisterSurcharge validates and inserts a surcharge rule.
func (rs *Ruleset) RegisterSurcharge(r Rule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	rs.warnOnPercent(r, "surcharge")
	if r.Key == "" {
		r.Key = DeriveKey(surchargeKeyPrefix, r.Description)
	}
	rs.surcharges = insertByPriority(rs.surcharges, r)
	return nil
}

// RegisterAccessory validates and inserts an accessory item. Re-registering
// an existing ID replaces the earlier item.
func (rs *Ruleset) RegisterAccessory(a Accessory) error {
	if err := validateAccessory(a); err != nil {
		return err
	}
	if a.Key == "" {
		name := a.Name
		if name == "" {
			name = a.ID
		}
		a.Key = DeriveKey(accessoryKeyPrefix, name)
	}
	for i, existing := range rs.accessories {
		if existing.ID == a.ID {
			rs.accessories[i] = a
			return nil
		}
	}
	rs.accessories = append(rs.accessories, a)
	return nil
}

// ClearDiscounts removes every discount rule.
func (rs *Ruleset) ClearDiscounts() { rs.discounts = nil }

// ClearSurcharges removes every surcharge rule.
func (rs *Ruleset) ClearSurcharges() { rs.surcharges = nil }

// ClearAccessories removes every accessory item.
func (rs *Ruleset) ClearAccessories() { rs.accessories = nil }

// Discounts returns a copy of the discount collection in evaluation order.
func (rs *Ruleset) Discounts() []Rule {
	return append([]Rule(nil), rs.discounts...)
}

// Surcharges returns a copy of the surcharge collection in evaluation order.
func (rs *Ruleset) Surcharges() []Rule {
	return append([]Rule(nil), rs.surcharges...)
}

// Accessories returns a copy of the accessory catalog.
func (rs *Ruleset) Accessories() []Accessory {
	return append([]Accessory(nil), rs.accessories...)
}

// Accessory looks up a catalog item by ID.
func (rs *Ruleset) Accessory(id string) (Accessory, bool) {
	for _, a := range rs.accessories {
		if a.ID == id {
			return a, true
		}
	}
	return Accessory{}, false
}

func (rs *Ruleset) warnOnPercent(r Rule, collection string) {
	if r.Kind == KindPercentage && r.Value.GreaterThan(percentWarnThreshold) {
		rs.log.Warn().
			Str("collection", collection).
			Str("description", r.Description).
			Str("value", r.Value.String()).
			Msg("percentage rule value exceeds 100")
	}
}

func (rs *Ruleset) now() time.Time {
	if rs != nil && rs.Now != nil {
		return rs.Now()
	}
	return time.Now()
}

// insertByPriority appends and re-sorts priority descending. sort.SliceStable
// preserves insertion order between rules of equal priority.
func insertByPriority(rules []Rule, r Rule) []Rule {
	rules = append(rules, r)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules
}
