package dto

import "github.com/shopspring/decimal"

type RecipeLineInput struct {
	IngredientID     string          `json:"ingredient_id"`
	QuantityPerYield decimal.Decimal `json:"quantity_per_yield"`
}

type RecipeInput struct {
	ProductID     string            `json:"product_id"` // defaults to the recipe id
	Name          string            `json:"name"`
	YieldQuantity decimal.Decimal   `json:"yield_quantity"`
	YieldUnit     string            `json:"yield_unit"`
	SalePrice     decimal.Decimal   `json:"sale_price"`
	Ingredients   []RecipeLineInput `json:"ingredients"`
}
