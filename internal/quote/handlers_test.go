package quote_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/heliosol/backend-offer/internal/quote"
	"github.com/heliosol/backend-offer/internal/registry"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()
	svc := quote.NewService(zerolog.Nop(), registry.NewMemory())
	h := &quote.Handler{Svc: svc, Validate: validator.New()}

	r := chi.NewRouter()
	r.Route("/v1", func(v chi.Router) {
		v.Route("/rules", func(rules chi.Router) {
			rules.Get("/", h.List)
			rules.Post("/discounts", h.RegisterDiscount)
			rules.Post("/surcharges", h.RegisterSurcharge)
			rules.Post("/accessories", h.RegisterAccessory)
			rules.Delete("/{collection}", h.Clear)
		})
		v.Route("/quotes", func(q chi.Router) {
			q.Post("/", h.Quote)
			q.Post("/breakdown", h.Breakdown)
			q.Post("/validate", h.ValidateInputs)
		})
		v.Get("/keys/{category}", h.Keys)
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestQuoteEndToEndOverHTTP(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/rules/accessories", map[string]any{
		"id": "wallbox", "name": "Wallbox", "unitPrice": "100", "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/rules/discounts", map[string]any{
		"kind": "percentage", "value": "10", "description": "spring promo",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/quotes/", map[string]any{
		"originalAmount": "1000",
		"accessoryIds":   []string{"wallbox"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			FinalAmount       string `json:"final_amount"`
			PreventedNegative bool   `json:"prevented_negative"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1080", resp.Data.FinalAmount)
	require.False(t, resp.Data.PreventedNegative)
}

func TestRegisterRuleValidation(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/rules/discounts", map[string]any{
		"kind": "bogus", "value": "10", "description": "broken",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestRegisterRuleRejectsNegativeValue(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/rules/surcharges", map[string]any{
		"kind": "fixed", "value": "-5", "description": "broken",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "value")
}

func TestClearCollectionOverHTTP(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/rules/discounts", map[string]any{
		"kind": "percentage", "value": "10", "description": "spring promo",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/v1/rules/discounts", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/v1/rules/vouchers", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/rules/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Discounts []json.RawMessage `json:"discounts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Data.Discounts)
}

func TestQuoteExportRequiresCategory(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/quotes/", map[string]any{
		"originalAmount": "1000",
		"export":         true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestKeysRoundTripOverHTTP(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/v1/keys/residential", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/quotes/", map[string]any{
		"originalAmount": "1000",
		"export":         true,
		"category":       "residential",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/v1/keys/residential", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1000", resp.Data["PRICING_FINAL_AMOUNT"])
}

func TestBreakdownOverHTTP(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/rules/discounts", map[string]any{
		"kind": "percentage", "value": "10", "description": "spring promo",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/quotes/breakdown", map[string]any{
		"originalAmount": "1000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Step10 string `json:"step_10_final_amount"`
			Checks struct {
				FinalAmountValid bool `json:"final_amount_valid"`
			} `json:"validation_checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "900", resp.Data.Step10)
	require.True(t, resp.Data.Checks.FinalAmountValid)
}

func TestValidateInputsOverHTTP(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/quotes/validate", map[string]any{
		"originalAmount": "-10",
		"accessoryIds":   []string{"ghost"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Valid    bool     `json:"is_valid"`
			Errors   []string `json:"errors"`
			Warnings []string `json:"warnings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Errors)
	require.NotEmpty(t, resp.Data.Warnings)
}

func TestQuoteRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	r := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes/", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
