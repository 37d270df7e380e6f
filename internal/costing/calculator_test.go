package costing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestCostConservation(t *testing.T) {
	lines := []Line{
		{Quantity: d("2"), UnitPrice: d("5.50")},
		{Quantity: d("0.5"), UnitPrice: d("8.00")},
		{Quantity: d("1"), UnitPrice: d("12.00")},
	}

	total := RecipeCost(lines)
	assertDecimal(t, "27.00", total)

	perUnit, err := CostPerUnit(total, d("10"))
	require.NoError(t, err)
	assertDecimal(t, "2.70", perUnit)

	batch, err := CalculateBatchCost(perUnit, d("5"))
	require.NoError(t, err)
	assertDecimal(t, "13.50", batch.TotalCost)
	assertDecimal(t, "2.70", batch.CostPerUnit)
}

func TestIngredientCost(t *testing.T) {
	tests := []struct {
		name     string
		qty      string
		price    string
		expected string
	}{
		{"simple", "2", "5.50", "11"},
		{"fractional", "0.125", "8", "1"},
		{"negative quantity clamps", "-3", "5", "0"},
		{"negative price clamps", "3", "-5", "0"},
		{"zero", "0", "9.99", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.expected, IngredientCost(d(tt.qty), d(tt.price)))
		})
	}
}

func TestRecipeCost_Empty(t *testing.T) {
	assert.True(t, RecipeCost(nil).IsZero())
	assert.True(t, RecipeCost([]Line{}).IsZero())
}

func TestRecipeCost_ManySmallLinesStayExact(t *testing.T) {
	lines := make([]Line, 1000)
	for i := range lines {
		lines[i] = Line{Quantity: d("0.1"), UnitPrice: d("0.1")}
	}
	assertDecimal(t, "10", RecipeCost(lines))
}

func TestCostPerUnit_InvalidYield(t *testing.T) {
	for _, yield := range []string{"0", "-1"} {
		_, err := CostPerUnit(d("27"), d(yield))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidYield))
		assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
	}
}

func TestCalculateBatchCost_InvalidBatchSize(t *testing.T) {
	for _, m := range []string{"0", "-2"} {
		_, err := CalculateBatchCost(d("2.70"), d(m))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidBatchSize))
	}
}

func TestProfitMargin(t *testing.T) {
	t.Run("regular sale", func(t *testing.T) {
		m := ProfitMargin(d("2.70"), d("5.40"))
		assertDecimal(t, "2.70", m.Value)
		assertDecimal(t, "50", m.Percentage)
	})

	t.Run("loss", func(t *testing.T) {
		m := ProfitMargin(d("3"), d("2"))
		assertDecimal(t, "-1", m.Value)
		assertDecimal(t, "-50", m.Percentage)
	})

	t.Run("zero sale price guards division", func(t *testing.T) {
		m := ProfitMargin(d("2.70"), d("0"))
		assert.True(t, m.Value.IsZero())
		assert.True(t, m.Percentage.IsZero())
	})

	t.Run("negative sale price", func(t *testing.T) {
		m := ProfitMargin(d("2.70"), d("-1"))
		assert.True(t, m.Value.IsZero())
		assert.True(t, m.Percentage.IsZero())
	})
}

func TestWeightedAverageCost(t *testing.T) {
	first := WeightedAverageCost(d("0"), d("0"), d("10"), d("2.70"))
	assertDecimal(t, "2.70", first)

	second := WeightedAverageCost(d("10"), first, d("10"), d("3.00"))
	assertDecimal(t, "2.85", second)

	unchanged := WeightedAverageCost(d("10"), d("2.85"), d("0"), d("9"))
	assertDecimal(t, "2.85", unchanged)
}

func TestPureFunctionsAreRepeatable(t *testing.T) {
	lines := []Line{{Quantity: d("0.333"), UnitPrice: d("7.77")}, {Quantity: d("1.5"), UnitPrice: d("0.01")}}

	a := RecipeCost(lines)
	b := RecipeCost(lines)
	assert.Equal(t, a.String(), b.String())

	pa, errA := CostPerUnit(a, d("3"))
	pb, errB := CostPerUnit(b, d("3"))
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, pa.String(), pb.String())

	assert.Equal(t, ProfitMargin(pa, d("9")), ProfitMargin(pb, d("9")))
}
