package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/logger"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	WriteError(c, logger.Nop(), err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestWriteError_Statuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", apperror.Invalid("batch_multiplier", "must be greater than zero"), http.StatusBadRequest},
		{"not found", apperror.NotFound("recipe", "r1"), http.StatusNotFound},
		{"conflict", &apperror.ConflictError{Entity: "ingredient", ID: "i", Reason: "in use"}, http.StatusConflict},
		{"tx", &apperror.TransactionFailure{Op: "commit", Err: errors.New("reset")}, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := render(t, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWriteError_InsufficientStockBody(t *testing.T) {
	err := fmt.Errorf("produce: %w", &apperror.InsufficientStockError{
		Item: "ingredient", ID: "cheese",
		Requested: decimal.RequireFromString("5"), Available: decimal.RequireFromString("3"),
	})

	w, body := render(t, err)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cheese", body["ingredient_id"])
	assert.Equal(t, "5", body["required"])
	assert.Equal(t, "3", body["available"])
	assert.Equal(t, "insufficient_stock", body["kind"])
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	_, body := render(t, errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", body["error"])
}

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil)
	page, size := Pagination(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, maxPageSize, size)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=-1&page_size=abc", nil)
	page, size = Pagination(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageSize, size)
}
