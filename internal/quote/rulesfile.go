package quote

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/heliosol/backend-offer/internal/pricing"
)

// Catalog is the YAML schema of a rules catalog file. Values are plain YAML
// numbers; they are converted to decimals at registration time.
type Catalog struct {
	Discounts   []CatalogRule      `yaml:"discounts"`
	Surcharges  []CatalogRule      `yaml:"surcharges"`
	Accessories []CatalogAccessory `yaml:"accessories"`
}

type CatalogRule struct {
	Key           string         `yaml:"key"`
	Kind          string         `yaml:"kind"`
	Value         float64        `yaml:"value"`
	Description   string         `yaml:"description"`
	Scope         string         `yaml:"scope"`
	TargetID      string         `yaml:"targetId"`
	Conditions    map[string]any `yaml:"conditions"`
	MinimumAmount float64        `yaml:"minimumAmount"`
	MaximumCap    *float64       `yaml:"maximumCap"`
	Active        *bool          `yaml:"active"`
	Priority      int            `yaml:"priority"`
}

type CatalogAccessory struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Key       string  `yaml:"key"`
	UnitPrice float64 `yaml:"unitPrice"`
	Quantity  int     `yaml:"quantity"`
	Category  string  `yaml:"category"`
	Optional  bool    `yaml:"optional"`
}

// LoadCatalog parses a rules catalog file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("quote: read catalog: %w", err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("quote: parse catalog: %w", err)
	}
	return catalog, nil
}

// ApplyCatalog registers every catalog entry through the service's validated
// registration path. It stops at the first rejected entry so a broken
// catalog is noticed at boot instead of producing a partially priced offer.
func (s *Service) ApplyCatalog(catalog Catalog) error {
	for i, entry := range catalog.Discounts {
		if err := s.RegisterDiscount(entry.toRule()); err != nil {
			return fmt.Errorf("quote: catalog discount %d (%s): %w", i, entry.Description, err)
		}
	}
	for i, entry := range catalog.Surcharges {
		if err := s.RegisterSurcharge(entry.toRule()); err != nil {
			return fmt.Errorf("quote: catalog surcharge %d (%s): %w", i, entry.Description, err)
		}
	}
	for i, entry := range catalog.Accessories {
		if err := s.RegisterAccessory(entry.toAccessory()); err != nil {
			return fmt.Errorf("quote: catalog accessory %d (%s): %w", i, entry.ID, err)
		}
	}
	return nil
}

// LoadCatalogFile parses path and registers its contents.
func (s *Service) LoadCatalogFile(path string) error {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return err
	}
	return s.ApplyCatalog(catalog)
}

func (r CatalogRule) toRule() pricing.Rule {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	scope := pricing.Scope(r.Scope)
	if scope == "" {
		scope = pricing.ScopeTotal
	}
	var maxCap *decimal.Decimal
	if r.MaximumCap != nil {
		v := decimal.NewFromFloat(*r.MaximumCap)
		maxCap = &v
	}
	return pricing.Rule{
		Key:           r.Key,
		Kind:          pricing.Kind(r.Kind),
		Value:         decimal.NewFromFloat(r.Value),
		Description:   r.Description,
		Scope:         scope,
		TargetID:      r.TargetID,
		Conditions:    r.Conditions,
		MinimumAmount: decimal.NewFromFloat(r.MinimumAmount),
		MaximumCap:    maxCap,
		Active:        active,
		Priority:      r.Priority,
	}
}

func (a CatalogAccessory) toAccessory() pricing.Accessory {
	quantity := a.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return pricing.Accessory{
		ID:        a.ID,
		Name:      a.Name,
		Key:       a.Key,
		UnitPrice: decimal.NewFromFloat(a.UnitPrice),
		Quantity:  quantity,
		Category:  a.Category,
		Optional:  a.Optional,
	}
}
