// Package quote exposes the pricing engine as a service: rule
// administration, quote calculation, detailed breakdowns and key export to
// the registry consumed by the document rendering layer.
package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/heliosol/backend-offer/internal/common"
	"github.com/heliosol/backend-offer/internal/obs"
	"github.com/heliosol/backend-offer/internal/pricing"
	"github.com/heliosol/backend-offer/internal/registry"
)

// Collection names accepted by Clear and reported in metrics.
const (
	CollectionDiscounts   = "discounts"
	CollectionSurcharges  = "surcharges"
	CollectionAccessories = "accessories"
)

// ErrUnknownCollection is returned when clearing a collection that does not exist.
var ErrUnknownCollection = errors.New("quote: unknown collection")

// Request carries the inputs of one calculation run.
type Request struct {
	OriginalAmount decimal.Decimal
	AccessoryIDs   []string
	Context        map[string]any
	// Category, when non-empty, exports the computed key table to the
	// registry under that category.
	Category string
}

// Service owns one engine ruleset. Registration takes the write lock;
// calculations run under the read lock, so concurrent quoting is safe while
// rule administration is serialised.
type Service struct {
	mu    sync.RWMutex
	rules *pricing.Ruleset

	Reg registry.Registry
	Log zerolog.Logger
}

// NewService builds a service around an empty ruleset.
func NewService(log zerolog.Logger, reg registry.Registry) *Service {
	return &Service{rules: pricing.NewRuleset(log), Reg: reg, Log: log}
}

// RegisterDiscount adds a discount rule to the engine's collection.
func (s *Service) RegisterDiscount(rule pricing.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observeRegistration(CollectionDiscounts, s.rules.RegisterDiscount(rule))
}

// RegisterSurcharge adds a surcharge rule to the engine's collection.
func (s *Service) RegisterSurcharge(rule pricing.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observeRegistration(CollectionSurcharges, s.rules.RegisterSurcharge(rule))
}

// RegisterAccessory adds an accessory to the engine's catalog.
func (s *Service) RegisterAccessory(item pricing.Accessory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observeRegistration(CollectionAccessories, s.rules.RegisterAccessory(item))
}

// Clear wipes one collection wholesale.
func (s *Service) Clear(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch collection {
	case CollectionDiscounts:
		s.rules.ClearDiscounts()
	case CollectionSurcharges:
		s.rules.ClearSurcharges()
	case CollectionAccessories:
		s.rules.ClearAccessories()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	s.Log.Info().Str("collection", collection).Msg("collection cleared")
	return nil
}

// Rules returns the current collections in evaluation order.
func (s *Service) Rules() (discounts, surcharges []pricing.Rule, accessories []pricing.Accessory) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Discounts(), s.rules.Surcharges(), s.rules.Accessories()
}

// Quote runs the calculation and, when the request names a category,
// submits the exported key table to the registry. Registry failures do not
// invalidate the computed result; they are reported alongside it.
func (s *Service) Quote(ctx context.Context, req Request) (pricing.Result, error) {
	start := time.Now()
	s.mu.RLock()
	result := pricing.Calculate(s.rules, req.OriginalAmount, req.AccessoryIDs, req.Context)
	s.mu.RUnlock()

	outcome := "ok"
	if result.PreventedNegative {
		outcome = "clamped"
	}
	if obs.QuotesTotal != nil {
		obs.QuotesTotal.WithLabelValues(outcome).Inc()
	}
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.Observe(obs.DurationMillis(time.Since(start)))
	}

	s.Log.Info().
		Str("original_amount", result.OriginalAmount.String()).
		Str("final_amount", result.FinalAmount.String()).
		Int("applications", len(result.Applications)).
		Bool("prevented_negative", result.PreventedNegative).
		Msg("quote computed")

	if req.Category == "" {
		return result, nil
	}
	if err := s.export(ctx, req.Category, result); err != nil {
		return result, err
	}
	return result, nil
}

// Breakdown runs the calculation and expands it into the audit view.
func (s *Service) Breakdown(req Request) pricing.Breakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pricing.DetailedBreakdown(s.rules, req.OriginalAmount, req.AccessoryIDs, req.Context)
}

// ValidateInputs pre-flights a calculation without running it.
func (s *Service) ValidateInputs(original decimal.Decimal, accessoryIDs []string) pricing.InputReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pricing.ValidateInputs(s.rules, original, accessoryIDs)
}

// Keys reads a category's exported table back from the registry.
func (s *Service) Keys(ctx context.Context, category string) (map[string]decimal.Decimal, error) {
	if s.Reg == nil {
		return nil, errNoRegistry()
	}
	return s.Reg.Snapshot(ctx, category)
}

func errNoRegistry() *common.AppError {
	return common.NewAppError("UNAVAILABLE", "key registry not configured", http.StatusServiceUnavailable, nil)
}

func (s *Service) export(ctx context.Context, category string, result pricing.Result) error {
	if s.Reg == nil {
		return errNoRegistry()
	}
	category = strings.TrimSpace(category)
	err := s.Reg.Submit(ctx, category, registry.Entries(result.ExportedKeys))
	if err != nil {
		if obs.RegistryExportsTotal != nil {
			obs.RegistryExportsTotal.WithLabelValues("error").Inc()
		}
		s.Log.Error().Err(err).Str("category", category).Msg("registry export failed")
		return fmt.Errorf("quote: export keys: %w", err)
	}
	if obs.RegistryExportsTotal != nil {
		obs.RegistryExportsTotal.WithLabelValues("ok").Inc()
	}
	return nil
}

func (s *Service) observeRegistration(collection string, err error) error {
	if obs.RuleRegistrationsTotal != nil {
		result := "ok"
		if err != nil {
			result = "rejected"
		}
		obs.RuleRegistrationsTotal.WithLabelValues(collection, result).Inc()
	}
	return err
}
