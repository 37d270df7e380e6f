package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionBatch is an immutable ledger entry for one completed production run.
type ProductionBatch struct {
	ID               string                `db:"id" json:"id"`
	RecipeID         string                `db:"recipe_id" json:"recipe_id"`
	ProductID        string                `db:"product_id" json:"product_id"`
	BatchMultiplier  decimal.Decimal       `db:"batch_multiplier" json:"batch_multiplier"`
	ProducedQuantity decimal.Decimal       `db:"produced_quantity" json:"produced_quantity"`
	TotalCost        decimal.Decimal       `db:"total_cost" json:"total_cost"`
	CostPerUnit      decimal.Decimal       `db:"cost_per_unit" json:"cost_per_unit"`
	Notes            string                `db:"notes" json:"notes"`
	CreatedBy        *string               `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time             `db:"created_at" json:"created_at"`
	Lines            []ProductionBatchLine `db:"-" json:"lines"`
}

// ProductionBatchLine records what one ingredient contributed to a batch.
type ProductionBatchLine struct {
	BatchID      string          `db:"batch_id" json:"-"`
	IngredientID string          `db:"ingredient_id" json:"ingredient_id"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost     decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Cost         decimal.Decimal `db:"cost" json:"cost"`
}

// ProductionSummary aggregates a day of production for reporting.
type ProductionSummary struct {
	Date              time.Time         `bson:"date" json:"date"`
	BatchCount        int               `bson:"batch_count" json:"batch_count"`
	TotalCost         string            `bson:"total_cost" json:"total_cost"`
	ProducedByProduct map[string]string `bson:"produced_by_product" json:"produced_by_product"`
	LowStock          []LowStockEntry   `bson:"low_stock" json:"low_stock"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
}

type LowStockEntry struct {
	IngredientID   string `bson:"ingredient_id" json:"ingredient_id"`
	Name           string `bson:"name" json:"name"`
	QuantityOnHand string `bson:"quantity_on_hand" json:"quantity_on_hand"`
	ReorderPoint   string `bson:"reorder_point" json:"reorder_point"`
}
