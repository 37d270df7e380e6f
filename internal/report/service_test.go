package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/store/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var day = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	batches := []struct {
		id, product, produced, cost string
		at                          time.Time
	}{
		{"b1", "pizza", "10", "27", day.Add(9 * time.Hour)},
		{"b2", "pizza", "50", "135", day.Add(15 * time.Hour)},
		{"b3", "bread", "4", "6.40", day.Add(20 * time.Hour)},
		{"b4", "bread", "8", "12.80", day.Add(30 * time.Hour)},
	}
	for _, b := range batches {
		require.NoError(t, s.Ledger().AppendBatch(ctx, &model.ProductionBatch{
			ID: b.id, RecipeID: b.product, ProductID: b.product, BatchMultiplier: dec("1"),
			ProducedQuantity: dec(b.produced), TotalCost: dec(b.cost), CreatedAt: b.at,
		}))
	}

	for _, ing := range []struct{ id, qty, rp string }{
		{"salt", "1", "5"},
		{"flour", "100", "5"},
	} {
		require.NoError(t, s.Inventory().CreateIngredient(ctx, &model.Ingredient{
			ID: ing.id, Name: ing.id, Unit: "kg", QuantityOnHand: dec(ing.qty), ReorderPoint: dec(ing.rp),
		}))
	}
	return s
}

func TestDailySummary(t *testing.T) {
	svc := NewService(seedStore(t), time.UTC, logger.Nop())

	summary, err := svc.DailySummary(context.Background(), day.Add(12*time.Hour))
	require.NoError(t, err)

	assert.True(t, summary.Date.Equal(day))
	assert.Equal(t, 3, summary.BatchCount)
	assert.Equal(t, "168.40", summary.TotalCost)
	assert.Equal(t, map[string]string{"pizza": "60", "bread": "4"}, summary.ProducedByProduct)
	require.Len(t, summary.LowStock, 1)
	assert.Equal(t, "salt", summary.LowStock[0].IngredientID)
}

func TestDailySummary_Timezone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	svc := NewService(seedStore(t), jakarta, logger.Nop())

	// 20:00 UTC on the 17th is 03:00 on the 18th in WIB.
	summary, err := svc.DailySummary(context.Background(), day.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.BatchCount)
	assert.Equal(t, map[string]string{"bread": "12"}, summary.ProducedByProduct)
}

func TestDailySummary_Empty(t *testing.T) {
	svc := NewService(memory.New(), nil, logger.Nop())

	summary, err := svc.DailySummary(context.Background(), day)
	require.NoError(t, err)
	assert.Zero(t, summary.BatchCount)
	assert.Equal(t, "0.00", summary.TotalCost)
	assert.Empty(t, summary.LowStock)
}
