// Package costing holds the pure cost arithmetic used by recipes and
// production runs. Nothing here performs I/O or keeps state.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
)

var hundred = decimal.NewFromInt(100)

var (
	ErrInvalidYield     = &apperror.InvalidInputError{Field: "yield_quantity", Reason: "must be greater than zero"}
	ErrInvalidBatchSize = &apperror.InvalidInputError{Field: "batch_multiplier", Reason: "must be greater than zero"}
)

// Line is one priced ingredient requirement.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// BatchCost is the cost of a production run scaled by its multiplier.
type BatchCost struct {
	TotalCost   decimal.Decimal `json:"total_cost"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

// Margin is the gross profit of selling one unit.
type Margin struct {
	Value      decimal.Decimal `json:"margin_value"`
	Percentage decimal.Decimal `json:"margin_percentage"`
}

// IngredientCost returns quantity*unitPrice. Negative operands count as zero;
// request validation rejects them long before they reach this point.
func IngredientCost(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return clamp(quantity).Mul(clamp(unitPrice))
}

// RecipeCost sums IngredientCost over lines. Empty input costs zero.
func RecipeCost(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(IngredientCost(l.Quantity, l.UnitPrice))
	}
	return total
}

// CostPerUnit divides a total cost over the yield it produced.
func CostPerUnit(totalCost, yieldQuantity decimal.Decimal) (decimal.Decimal, error) {
	if !yieldQuantity.IsPositive() {
		return decimal.Zero, ErrInvalidYield
	}
	return totalCost.Div(yieldQuantity), nil
}

// CalculateBatchCost scales a unit cost by the batch multiplier.
func CalculateBatchCost(costPerUnit, batchMultiplier decimal.Decimal) (BatchCost, error) {
	if !batchMultiplier.IsPositive() {
		return BatchCost{}, ErrInvalidBatchSize
	}
	return BatchCost{
		TotalCost:   costPerUnit.Mul(batchMultiplier),
		CostPerUnit: costPerUnit,
	}, nil
}

// ProfitMargin returns sale-cost and its share of the sale price in percent.
// A non-positive sale price yields a zero margin.
func ProfitMargin(costPrice, salePrice decimal.Decimal) Margin {
	if !salePrice.IsPositive() {
		return Margin{Value: decimal.Zero, Percentage: decimal.Zero}
	}
	value := salePrice.Sub(costPrice)
	return Margin{
		Value:      value,
		Percentage: value.Div(salePrice).Mul(hundred),
	}
}

// WeightedAverageCost blends an existing cost basis with an incoming lot:
//
//	(oldQty*oldCost + addedQty*addedCost) / (oldQty + addedQty)
//
// It falls back to addedCost when nothing is on hand and to oldCost when
// nothing is added.
func WeightedAverageCost(oldQty, oldCost, addedQty, addedCost decimal.Decimal) decimal.Decimal {
	if !oldQty.IsPositive() {
		return addedCost
	}
	if !addedQty.IsPositive() {
		return oldCost
	}
	num := oldQty.Mul(oldCost).Add(addedQty.Mul(addedCost))
	return num.Div(oldQty.Add(addedQty))
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
