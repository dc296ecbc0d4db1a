package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/heliosol/backend-offer/internal/common"
	"github.com/heliosol/backend-offer/internal/pricing"
	"github.com/heliosol/backend-offer/internal/registry"
)

// Handler exposes rule administration and quoting endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type rulePayload struct {
	Key           string           `json:"key"`
	Kind          string           `json:"kind" validate:"required,oneof=percentage fixed tiered"`
	Value         decimal.Decimal  `json:"value"`
	Description   string           `json:"description"`
	Scope         string           `json:"scope" validate:"omitempty,oneof=total category item"`
	TargetID      string           `json:"targetId"`
	Conditions    map[string]any   `json:"conditions"`
	MinimumAmount *decimal.Decimal `json:"minimumAmount"`
	MaximumCap    *decimal.Decimal `json:"maximumCap"`
	Active        *bool            `json:"active"`
	Priority      int              `json:"priority"`
}

type accessoryPayload struct {
	ID        string          `json:"id" validate:"required"`
	Name      string          `json:"name"`
	Key       string          `json:"key"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category"`
	Optional  bool            `json:"optional"`
}

type quoteRequest struct {
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	AccessoryIDs   []string        `json:"accessoryIds"`
	Context        map[string]any  `json:"context"`
	Export         bool            `json:"export"`
	Category       string          `json:"category" validate:"required_if=Export true"`
}

func (p rulePayload) toRule() pricing.Rule {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	scope := pricing.Scope(p.Scope)
	if scope == "" {
		scope = pricing.ScopeTotal
	}
	var minimum decimal.Decimal
	if p.MinimumAmount != nil {
		minimum = *p.MinimumAmount
	}
	return pricing.Rule{
		Key:           p.Key,
		Kind:          pricing.Kind(p.Kind),
		Value:         p.Value,
		Description:   p.Description,
		Scope:         scope,
		TargetID:      p.TargetID,
		Conditions:    p.Conditions,
		MinimumAmount: minimum,
		MaximumCap:    p.MaximumCap,
		Active:        active,
		Priority:      p.Priority,
	}
}

func (p accessoryPayload) toAccessory() pricing.Accessory {
	quantity := p.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return pricing.Accessory{
		ID:        p.ID,
		Name:      p.Name,
		Key:       p.Key,
		UnitPrice: p.UnitPrice,
		Quantity:  quantity,
		Category:  p.Category,
		Optional:  p.Optional,
	}
}

// RegisterDiscount handles POST /v1/rules/discounts.
func (h *Handler) RegisterDiscount(w http.ResponseWriter, r *http.Request) {
	h.registerRule(w, r, h.Svc.RegisterDiscount)
}

// RegisterSurcharge handles POST /v1/rules/surcharges.
func (h *Handler) RegisterSurcharge(w http.ResponseWriter, r *http.Request) {
	h.registerRule(w, r, h.Svc.RegisterSurcharge)
}

func (h *Handler) registerRule(w http.ResponseWriter, r *http.Request, register func(pricing.Rule) error) {
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if details, ok := h.checkPayload(payload); !ok {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid rule", details)
		return
	}
	rule := payload.toRule()
	if err := register(rule); err != nil {
		writeRegistrationError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rule})
}

// RegisterAccessory handles POST /v1/rules/accessories.
func (h *Handler) RegisterAccessory(w http.ResponseWriter, r *http.Request) {
	var payload accessoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if details, ok := h.checkPayload(payload); !ok {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid accessory", details)
		return
	}
	item := payload.toAccessory()
	if err := h.Svc.RegisterAccessory(item); err != nil {
		writeRegistrationError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Clear handles DELETE /v1/rules/{collection}.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	collection := strings.TrimSpace(chi.URLParam(r, "collection"))
	if err := h.Svc.Clear(collection); err != nil {
		if errors.Is(err, ErrUnknownCollection) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown collection", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to clear collection", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /v1/rules.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	discounts, surcharges, accessories := h.Svc.Rules()
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"discounts":   discounts,
		"surcharges":  surcharges,
		"accessories": accessories,
	}})
}

// Quote handles POST /v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuoteRequest(w, r)
	if !ok {
		return
	}
	category := ""
	if req.Export {
		category = req.Category
	}
	result, err := h.Svc.Quote(r.Context(), Request{
		OriginalAmount: req.OriginalAmount,
		AccessoryIDs:   req.AccessoryIDs,
		Context:        req.Context,
		Category:       category,
	})
	if err != nil {
		// The calculation itself succeeded; only the registry hand-off failed.
		common.JSON(w, http.StatusOK, map[string]any{"data": result, "exportError": err.Error()})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Breakdown handles POST /v1/quotes/breakdown.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuoteRequest(w, r)
	if !ok {
		return
	}
	breakdown := h.Svc.Breakdown(Request{
		OriginalAmount: req.OriginalAmount,
		AccessoryIDs:   req.AccessoryIDs,
		Context:        req.Context,
	})
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}

// ValidateInputs handles POST /v1/quotes/validate.
func (h *Handler) ValidateInputs(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuoteRequest(w, r)
	if !ok {
		return
	}
	report := h.Svc.ValidateInputs(req.OriginalAmount, req.AccessoryIDs)
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// Keys handles GET /v1/keys/{category}.
func (h *Handler) Keys(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(chi.URLParam(r, "category"))
	if category == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "category is required", nil)
		return
	}
	keys, err := h.Svc.Keys(r.Context(), category)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownCategory) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "category has no exported keys", nil)
			return
		}
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to read registry", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": keys})
}

func (h *Handler) decodeQuoteRequest(w http.ResponseWriter, r *http.Request) (quoteRequest, bool) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return req, false
	}
	if details, ok := h.checkPayload(req); !ok {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid quote request", details)
		return req, false
	}
	return req, true
}

// checkPayload runs struct tag validation when a validator is configured and
// flattens failures into a field→reason map.
func (h *Handler) checkPayload(payload any) (map[string]string, bool) {
	if h.Validate == nil {
		return nil, true
	}
	err := h.Validate.Struct(payload)
	if err == nil {
		return nil, true
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"payload": err.Error()}, false
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return details, false
}

func writeRegistrationError(w http.ResponseWriter, err error) {
	var verr *pricing.ValidationError
	if errors.As(err, &verr) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", verr.Error(), map[string]string{verr.Field: verr.Reason})
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to register rule", nil)
}
