package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type BatchFilters struct {
	RecipeID  string
	ProductID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

type ProduceResult struct {
	BatchID          string          `json:"batch_id"`
	ProducedQuantity decimal.Decimal `json:"produced_quantity"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	CostPerUnit      decimal.Decimal `json:"cost_per_unit"`
}

type PreviewLine struct {
	IngredientID string          `json:"ingredient_id"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Cost         decimal.Decimal `json:"cost"`
	Sufficient   bool            `json:"sufficient"`
}

type CostPreview struct {
	RecipeID         string          `json:"recipe_id"`
	BatchMultiplier  decimal.Decimal `json:"batch_multiplier"`
	ProducedQuantity decimal.Decimal `json:"produced_quantity"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	CostPerUnit      decimal.Decimal `json:"cost_per_unit"`
	CanProduce       bool            `json:"can_produce"`
	Lines            []PreviewLine   `json:"lines"`
}
