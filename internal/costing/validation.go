package costing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
)

// ValidationResult lists every rule a payload violates.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Err returns nil for a valid result, otherwise a *apperror.ValidationError.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &apperror.ValidationError{Errors: r.Errors}
}

func (r *ValidationResult) add(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) done() ValidationResult {
	r.IsValid = len(r.Errors) == 0
	return *r
}

// RecipeLineData is an unvalidated ingredient line.
type RecipeLineData struct {
	IngredientID     string
	QuantityPerYield decimal.Decimal
}

// RecipeData is an unvalidated recipe payload.
type RecipeData struct {
	Name          string
	YieldQuantity decimal.Decimal
	YieldUnit     string
	SalePrice     decimal.Decimal
	Ingredients   []RecipeLineData
}

// IngredientData is an unvalidated ingredient payload.
type IngredientData struct {
	Name           string
	Unit           string
	QuantityOnHand decimal.Decimal
	UnitCost       decimal.Decimal
	ReorderPoint   decimal.Decimal
}

// ValidateRecipe checks every recipe rule and collects all violations.
func ValidateRecipe(data RecipeData) ValidationResult {
	var res ValidationResult

	if strings.TrimSpace(data.Name) == "" {
		res.add("name is required")
	}
	if !data.YieldQuantity.IsPositive() {
		res.add("yield_quantity must be greater than zero")
	}
	if strings.TrimSpace(data.YieldUnit) == "" {
		res.add("yield_unit is required")
	}
	if data.SalePrice.IsNegative() {
		res.add("sale_price must not be negative")
	}
	if len(data.Ingredients) == 0 {
		res.add("at least one ingredient is required")
	}

	seen := make(map[string]bool, len(data.Ingredients))
	for i, line := range data.Ingredients {
		id := strings.TrimSpace(line.IngredientID)
		if id == "" {
			res.add("ingredients[%d]: ingredient_id is required", i)
		} else if seen[id] {
			res.add("ingredients[%d]: duplicate ingredient %q", i, id)
		}
		seen[id] = true

		if !line.QuantityPerYield.IsPositive() {
			res.add("ingredients[%d]: quantity_per_yield must be greater than zero", i)
		}
	}

	return res.done()
}

// ValidateIngredient checks every ingredient rule and collects all violations.
func ValidateIngredient(data IngredientData) ValidationResult {
	var res ValidationResult

	if strings.TrimSpace(data.Name) == "" {
		res.add("name is required")
	}
	if strings.TrimSpace(data.Unit) == "" {
		res.add("unit is required")
	}
	if !data.UnitCost.IsPositive() {
		res.add("unit_cost must be greater than zero")
	}
	if data.QuantityOnHand.IsNegative() {
		res.add("quantity_on_hand must not be negative")
	}
	if data.ReorderPoint.IsNegative() {
		res.add("reorder_point must not be negative")
	}

	return res.done()
}
