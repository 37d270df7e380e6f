package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ingredients (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		unit             TEXT NOT NULL,
		quantity_on_hand NUMERIC NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
		unit_cost        NUMERIC NOT NULL DEFAULT 0 CHECK (unit_cost >= 0),
		reorder_point    NUMERIC NOT NULL DEFAULT 0 CHECK (reorder_point >= 0),
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS finished_goods (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		unit             TEXT NOT NULL,
		quantity_on_hand NUMERIC NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
		cost_per_unit    NUMERIC NOT NULL DEFAULT 0 CHECK (cost_per_unit >= 0),
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id             TEXT PRIMARY KEY,
		product_id     TEXT NOT NULL,
		name           TEXT NOT NULL,
		yield_quantity NUMERIC NOT NULL CHECK (yield_quantity > 0),
		yield_unit     TEXT NOT NULL,
		sale_price     NUMERIC NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS recipe_ingredients (
		recipe_id          TEXT NOT NULL REFERENCES recipes (id) ON DELETE CASCADE,
		ingredient_id      TEXT NOT NULL REFERENCES ingredients (id) ON DELETE RESTRICT,
		quantity_per_yield NUMERIC NOT NULL CHECK (quantity_per_yield > 0),
		position           INT NOT NULL,
		PRIMARY KEY (recipe_id, ingredient_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_ingredient ON recipe_ingredients (ingredient_id)`,
	`CREATE TABLE IF NOT EXISTS production_batches (
		id                TEXT PRIMARY KEY,
		recipe_id         TEXT NOT NULL,
		product_id        TEXT NOT NULL,
		batch_multiplier  NUMERIC NOT NULL CHECK (batch_multiplier > 0),
		produced_quantity NUMERIC NOT NULL,
		total_cost        NUMERIC NOT NULL,
		cost_per_unit     NUMERIC NOT NULL,
		notes             TEXT NOT NULL DEFAULT '',
		created_by        TEXT,
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_production_batches_recipe ON production_batches (recipe_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS production_batch_lines (
		batch_id      TEXT NOT NULL REFERENCES production_batches (id),
		ingredient_id TEXT NOT NULL,
		quantity      NUMERIC NOT NULL,
		unit_cost     NUMERIC NOT NULL,
		cost          NUMERIC NOT NULL,
		PRIMARY KEY (batch_id, ingredient_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id              TEXT PRIMARY KEY,
		item_type       TEXT NOT NULL,
		item_id         TEXT NOT NULL,
		movement_type   TEXT NOT NULL,
		quantity_change NUMERIC NOT NULL,
		quantity_before NUMERIC NOT NULL,
		quantity_after  NUMERIC NOT NULL,
		reference_type  TEXT,
		reference_id    TEXT,
		notes           TEXT NOT NULL DEFAULT '',
		created_by      TEXT,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_item ON stock_movements (item_type, item_id, created_at DESC)`,
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}

	return tx.Commit()
}
