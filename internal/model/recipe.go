package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Recipe struct {
	ID            string             `db:"id" json:"id"`
	ProductID     string             `db:"product_id" json:"product_id"` // finished good produced by this recipe
	Name          string             `db:"name" json:"name"`
	YieldQuantity decimal.Decimal    `db:"yield_quantity" json:"yield_quantity"`
	YieldUnit     string             `db:"yield_unit" json:"yield_unit"`
	SalePrice     decimal.Decimal    `db:"sale_price" json:"sale_price"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
	Ingredients   []RecipeIngredient `db:"-" json:"ingredients"` // ordered by position
}

type RecipeIngredient struct {
	RecipeID         string          `db:"recipe_id" json:"-"`
	IngredientID     string          `db:"ingredient_id" json:"ingredient_id"`
	QuantityPerYield decimal.Decimal `db:"quantity_per_yield" json:"quantity_per_yield"`
	Position         int             `db:"position" json:"position"`
}

// IngredientIDs returns the ids referenced by the recipe in line order.
func (r *Recipe) IngredientIDs() []string {
	ids := make([]string, len(r.Ingredients))
	for i, line := range r.Ingredients {
		ids[i] = line.IngredientID
	}
	return ids
}

// Clone returns a deep copy so callers can hold a snapshot safely.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.Ingredients = append([]RecipeIngredient(nil), r.Ingredients...)
	return &c
}
