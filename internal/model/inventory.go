package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemTypeIngredient   ItemType = "ingredient"
	ItemTypeFinishedGood ItemType = "finished_good"
)

type MovementType string

const (
	MovementProductionConsume MovementType = "production_consume"
	MovementProductionOutput  MovementType = "production_output"
	MovementRestock           MovementType = "restock"
	MovementSale              MovementType = "sale"
	MovementAdjustment        MovementType = "adjustment"
)

type Ingredient struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Unit           string          `db:"unit" json:"unit"`
	QuantityOnHand decimal.Decimal `db:"quantity_on_hand" json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	ReorderPoint   decimal.Decimal `db:"reorder_point" json:"reorder_point"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// IsLowStock reports whether the ingredient has fallen to its reorder point.
func (i *Ingredient) IsLowStock() bool {
	return i.ReorderPoint.IsPositive() && i.QuantityOnHand.LessThanOrEqual(i.ReorderPoint)
}

type FinishedGood struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Unit           string          `db:"unit" json:"unit"`
	QuantityOnHand decimal.Decimal `db:"quantity_on_hand" json:"quantity_on_hand"`
	CostPerUnit    decimal.Decimal `db:"cost_per_unit" json:"cost_per_unit"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// StockMovement is one entry of the stock audit log. Quantities are signed:
// consumption and sales are negative.
type StockMovement struct {
	ID             string          `db:"id" json:"id"`
	ItemType       ItemType        `db:"item_type" json:"item_type"`
	ItemID         string          `db:"item_id" json:"item_id"`
	MovementType   MovementType    `db:"movement_type" json:"movement_type"`
	QuantityChange decimal.Decimal `db:"quantity_change" json:"quantity_change"`
	QuantityBefore decimal.Decimal `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  decimal.Decimal `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string         `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID    *string         `db:"reference_id" json:"reference_id,omitempty"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedBy      *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
