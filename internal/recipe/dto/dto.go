package dto

import "github.com/shopspring/decimal"

type RecipeFilters struct {
	Name      string
	ProductID string
	Page      int
	PageSize  int
}

type RecipeCostLine struct {
	IngredientID     string          `json:"ingredient_id"`
	QuantityPerYield decimal.Decimal `json:"quantity_per_yield"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Cost             decimal.Decimal `json:"cost"`
}

// RecipeCost is a costing preview at current ingredient prices for one base yield.
type RecipeCost struct {
	RecipeID         string           `json:"recipe_id"`
	TotalCost        decimal.Decimal  `json:"total_cost"`
	YieldQuantity    decimal.Decimal  `json:"yield_quantity"`
	CostPerUnit      decimal.Decimal  `json:"cost_per_unit"`
	SalePrice        decimal.Decimal  `json:"sale_price"`
	MarginValue      decimal.Decimal  `json:"margin_value"`
	MarginPercentage decimal.Decimal  `json:"margin_percentage"`
	Lines            []RecipeCostLine `json:"lines"`
}
