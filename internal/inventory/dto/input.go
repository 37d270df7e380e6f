package dto

import "github.com/shopspring/decimal"

type CreateIngredientInput struct {
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ReorderPoint   decimal.Decimal `json:"reorder_point"`
	UserID         string          `json:"-"`
}

// UpdateIngredientInput changes descriptive fields only; stock moves through
// Restock, sales and production.
type UpdateIngredientInput struct {
	ID           string          `json:"-"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

type RestockInput struct {
	IngredientID  string           `json:"-"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"` // nil keeps the current cost
	ReferenceID   string           `json:"reference_id"`
	ReferenceType string           `json:"reference_type"` // 'manual', 'purchase'
	Notes         string           `json:"notes"`
	UserID        string           `json:"-"`
}

type SellInput struct {
	FinishedGoodID string          `json:"-"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReferenceID    string          `json:"reference_id"`
	ReferenceType  string          `json:"reference_type"` // 'manual', 'sale'
	Notes          string          `json:"notes"`
	UserID         string          `json:"-"`
}
