package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/store/memory"
)

func newRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memory.New()
	uc := usecase.NewInventoryUseCase(s, nil, time.Second, logger.Nop())

	r := gin.New()
	r.Use(auth.Middleware())
	NewInventoryHandler(uc, logger.Nop()).RegisterRoutes(r.Group("/api/v1"))
	return r, s
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderUserID, "clerk-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createIngredient(t *testing.T, r http.Handler, name, qty, cost string) model.Ingredient {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/ingredients", map[string]any{
		"name": name, "unit": "kg", "quantity_on_hand": qty, "unit_cost": cost, "reorder_point": "5",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ing model.Ingredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ing))
	return ing
}

func TestIngredientLifecycle(t *testing.T) {
	r, _ := newRouter(t)
	flour := createIngredient(t, r, "Flour", "10", "2.70")
	createIngredient(t, r, "Salt", "1", "0.50")

	w := do(r, http.MethodGet, "/api/v1/ingredients/"+flour.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/ingredients/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var low struct {
		Items []model.Ingredient `json:"items"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &low))
	require.Equal(t, 1, low.Total)
	assert.Equal(t, "Salt", low.Items[0].Name)

	w = do(r, http.MethodPost, "/api/v1/ingredients/"+flour.ID+"/restock", map[string]any{
		"quantity": "10", "unit_cost": "3.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var restocked model.Ingredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restocked))
	assert.True(t, restocked.QuantityOnHand.Equal(decimal.NewFromInt(20)))
	assert.True(t, restocked.UnitCost.Equal(decimal.RequireFromString("2.85")))

	w = do(r, http.MethodGet, "/api/v1/stock-movements?item_id="+flour.ID+"&movement_type=restock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var moves struct {
		Items []model.StockMovement `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moves))
	require.Len(t, moves.Items, 1)
	require.NotNil(t, moves.Items[0].CreatedBy)
	assert.Equal(t, "clerk-1", *moves.Items[0].CreatedBy)

	w = do(r, http.MethodDelete, "/api/v1/ingredients/"+flour.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/v1/ingredients/"+flour.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateIngredient_Rejected(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/api/v1/ingredients", map[string]any{"quantity_on_hand": "-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body["kind"])
	assert.NotEmpty(t, body["details"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingredients", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSellFinishedGood(t *testing.T) {
	r, s := newRouter(t)
	_, err := s.Inventory().CreditFinishedGood(context.Background(), &inventory.Credit{
		FinishedGoodID: "pizza",
		Name:           "Pizza",
		Unit:           "pcs",
		Quantity:       decimal.NewFromInt(3),
		CostPerUnit:    decimal.RequireFromString("2.70"),
	})
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/api/v1/finished-goods/pizza/sell", map[string]any{"quantity": "2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/finished-goods/pizza/sell", map[string]any{"quantity": "2"})
	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pizza", body["finished_good_id"])
	assert.Equal(t, "1", body["available"])

	w = do(r, http.MethodGet, "/api/v1/finished-goods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}
