package dto

import "github.com/shopspring/decimal"

type ProduceInput struct {
	RecipeID        string          `json:"recipe_id"`
	BatchMultiplier decimal.Decimal `json:"batch_multiplier"`
	Notes           string          `json:"notes"`
	UserID          string          `json:"-"`
}
