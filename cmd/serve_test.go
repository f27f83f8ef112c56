package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/compat"
	"github.com/partsight/partsight-cli/internal/config"
	"github.com/partsight/partsight-cli/internal/currency"
	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/market"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
	"github.com/partsight/partsight-cli/internal/stockpred"
	"github.com/partsight/partsight-cli/pkg/rates"
	"github.com/partsight/partsight-cli/pkg/supplier"
)

// testEnv wires every engine onto in-memory stores and one simulated
// supplier so the router can be exercised without a network.
func testEnv(t *testing.T) *env {
	t.Helper()

	cfg = &config.Config{}
	cfg.Currency.Base = "USD"
	cfg.Prediction.ReorderHorizonDays = 90

	inv := inventory.NewMemory()
	inv.AddComponent(model.Component{
		ID: "res-001", Name: "10k Resistor", Category: "resistor",
		Quantity: 40, UnitPrice: 0.05, Currency: "USD",
		CreatedAt: time.Now().AddDate(0, -2, 0),
	})
	inv.AddMetrics(model.UsageMetrics{
		ComponentID: "res-001", TotalUsed: 60, ProjectCount: 4,
		LastUsed: time.Now().AddDate(0, 0, -2), Frequency: model.FrequencyHigh,
		SuccessRate: 0.9,
	})

	store := cache.NewMemory()
	errs := recerr.NewHandler(100, recerr.HealthThresholds{MaxErrorsPerHour: 10, MaxAIErrors: 5})
	conv := currency.New(store, []rates.Source{
		rates.NewStatic("fixed", "USD", map[string]float64{"USD": 1, "EUR": 0.9}),
	}, errs, currency.Config{TTL: time.Hour, Majors: []string{"USD", "EUR"}})

	agg := market.New(inv, []supplier.Source{
		supplier.NewSimulated("partsdepot", "USD", "$", true, 10.0),
	}, conv, store, errs, market.Config{TargetCurrency: "USD"})

	eng := compat.New(inv, inv, errs, compat.Config{})
	pred := stockpred.New(inv, inv, store, errs, stockpred.Config{})

	return &env{
		Cache:     store,
		Inventory: inv,
		Usage:     inv,
		Errors:    errs,
		Converter: conv,
		Market:    agg,
		Compat:    eng,
		Predictor: pred,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	r := newRouter(testEnv(t))

	rr := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var health recerr.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.True(t, health.OK)
}

func TestRouter_MarketAndPrediction(t *testing.T) {
	r := newRouter(testEnv(t))

	rr := doJSON(t, r, http.MethodGet, "/components/res-001/market", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var items []model.MarketDataItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "partsdepot", items[0].Supplier)
	assert.Equal(t, "USD", items[0].Currency)

	rr = doJSON(t, r, http.MethodGet, "/components/res-001/prediction", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var pred model.StockPrediction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pred))
	assert.Equal(t, "res-001", pred.ComponentID)
	assert.Greater(t, pred.Confidence, 0.0)

	rr = doJSON(t, r, http.MethodGet, "/components/res-001/forecast?horizon=60", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var fc model.DemandForecast
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fc))
	assert.Equal(t, 60, fc.HorizonDays)
}

func TestRouter_PriceAlertLifecycle(t *testing.T) {
	r := newRouter(testEnv(t))

	rr := doJSON(t, r, http.MethodPost, "/alerts/price/", model.PriceAlert{
		ComponentID: "res-001",
		Type:        model.AlertPriceDrop,
		Threshold:   10,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created model.PriceAlert
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)

	rr = doJSON(t, r, http.MethodGet, "/alerts/price/?component=res-001", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var listed []model.PriceAlert
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	rr = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/alerts/price/%s", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/alerts/price/%s", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_PriceAlertValidation(t *testing.T) {
	r := newRouter(testEnv(t))

	rr := doJSON(t, r, http.MethodPost, "/alerts/price/", model.PriceAlert{
		Type:      model.AlertPriceDrop,
		Threshold: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "component")
}

func TestRouter_Rates(t *testing.T) {
	r := newRouter(testEnv(t))

	rr := doJSON(t, r, http.MethodGet, "/rates/usd/eur", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var rate model.ExchangeRate
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rate))
	assert.Equal(t, "USD", rate.From)
	assert.Equal(t, "EUR", rate.To)
	assert.InDelta(t, 0.9, rate.Rate, 1e-9)
}
