package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/costing"
	"github.com/fekuna/omnipos-production-service/internal/database/postgres"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

var _ inventory.Repository = (*PGRepository)(nil)

// PGRepository works on either a *sqlx.DB or a *sqlx.Tx.
type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateIngredient(ctx context.Context, ing *model.Ingredient) error {
	query := `
        INSERT INTO ingredients (
            id, name, unit, quantity_on_hand, unit_cost, reorder_point, created_at, updated_at
        )
        VALUES (
            :id, :name, :unit, :quantity_on_hand, :unit_cost, :reorder_point, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, ing)
	if postgres.IsUniqueViolation(err) {
		return &apperror.ConflictError{Entity: "ingredient", ID: ing.ID, Reason: "already exists"}
	}
	return err
}

func (r *PGRepository) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := sqlx.GetContext(ctx, r.DB, &ing, `SELECT * FROM ingredients WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, err
	}
	return &ing, nil
}

func (r *PGRepository) ListIngredients(ctx context.Context, f *dto.IngredientFilters) ([]model.Ingredient, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Name != "" {
		conditions = append(conditions, "name ILIKE :name")
		args["name"] = "%" + f.Name + "%"
	}
	if f.LowStock {
		conditions = append(conditions, "reorder_point > 0 AND quantity_on_hand <= reorder_point")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var items []model.Ingredient
	count, err := r.selectPage(ctx, &items, "ingredients", whereClause, "name ASC", f.Page, f.PageSize, args)
	return items, count, err
}

func (r *PGRepository) UpdateIngredient(ctx context.Context, ing *model.Ingredient) error {
	query := `
        UPDATE ingredients
        SET name = :name, unit = :unit, unit_cost = :unit_cost,
            reorder_point = :reorder_point, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := sqlx.NamedExecContext(ctx, r.DB, query, ing)
	if err != nil {
		return err
	}
	return expectOne(res, "ingredient", ing.ID)
}

func (r *PGRepository) DeleteIngredient(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return &apperror.ConflictError{Entity: "ingredient", ID: id, Reason: "referenced by a recipe"}
		}
		return err
	}
	return expectOne(res, "ingredient", id)
}

// LockIngredients takes row locks in ascending id order. Ids without a row are
// simply absent from the result.
func (r *PGRepository) LockIngredients(ctx context.Context, ids []string) (map[string]*model.Ingredient, error) {
	out := make(map[string]*model.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM ingredients WHERE id IN (?) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var items []model.Ingredient
	if err := sqlx.SelectContext(ctx, r.DB, &items, query, args...); err != nil {
		return nil, fmt.Errorf("lock ingredients: %w", err)
	}
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

func (r *PGRepository) TryDecrement(ctx context.Context, id string, amount decimal.Decimal) (*model.Ingredient, error) {
	if !amount.IsPositive() {
		return nil, apperror.Invalid("amount", "must be greater than zero")
	}

	query := `
		UPDATE ingredients
		SET quantity_on_hand = quantity_on_hand - $1, updated_at = $2
		WHERE id = $3 AND quantity_on_hand >= $1
		RETURNING *
	`
	var ing model.Ingredient
	err := sqlx.GetContext(ctx, r.DB, &ing, query, amount, time.Now().UTC(), id)
	if err == nil {
		return &ing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Nothing updated: either the row is missing or stock is short.
	current, err := r.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &apperror.InsufficientStockError{
		Item:      string(model.ItemTypeIngredient),
		ID:        id,
		Requested: amount,
		Available: current.QuantityOnHand,
	}
}

func (r *PGRepository) SetIngredientStock(ctx context.Context, id string, quantity, unitCost decimal.Decimal) (*model.Ingredient, error) {
	if quantity.IsNegative() {
		return nil, apperror.Invalid("quantity_on_hand", "must not be negative")
	}

	query := `
		UPDATE ingredients
		SET quantity_on_hand = $1, unit_cost = $2, updated_at = $3
		WHERE id = $4
		RETURNING *
	`
	var ing model.Ingredient
	err := sqlx.GetContext(ctx, r.DB, &ing, query, quantity, unitCost, time.Now().UTC(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, err
	}
	return &ing, nil
}

func (r *PGRepository) GetFinishedGood(ctx context.Context, id string) (*model.FinishedGood, error) {
	var fg model.FinishedGood
	err := sqlx.GetContext(ctx, r.DB, &fg, `SELECT * FROM finished_goods WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("finished good", id)
		}
		return nil, err
	}
	return &fg, nil
}

func (r *PGRepository) ListFinishedGoods(ctx context.Context, f *dto.FinishedGoodFilters) ([]model.FinishedGood, int, error) {
	var items []model.FinishedGood
	count, err := r.selectPage(ctx, &items, "finished_goods", "", "name ASC", f.Page, f.PageSize, map[string]interface{}{})
	return items, count, err
}

// CreditFinishedGood adds produced units and blends the cost basis with a
// weighted average. The row is created on first credit.
func (r *PGRepository) CreditFinishedGood(ctx context.Context, c *inventory.Credit) (*model.FinishedGood, error) {
	if !c.Quantity.IsPositive() {
		return nil, apperror.Invalid("produced_quantity", "must be greater than zero")
	}
	now := time.Now().UTC()

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO finished_goods (id, name, unit, quantity_on_hand, cost_per_unit, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4)
		ON CONFLICT (id) DO NOTHING
	`, c.FinishedGoodID, c.Name, c.Unit, now)
	if err != nil {
		return nil, fmt.Errorf("ensure finished good: %w", err)
	}

	var current model.FinishedGood
	err = sqlx.GetContext(ctx, r.DB, &current, `SELECT * FROM finished_goods WHERE id = $1 FOR UPDATE`, c.FinishedGoodID)
	if err != nil {
		return nil, fmt.Errorf("lock finished good: %w", err)
	}

	newQty := current.QuantityOnHand.Add(c.Quantity)
	newCost := costing.WeightedAverageCost(current.QuantityOnHand, current.CostPerUnit, c.Quantity, c.CostPerUnit)

	var fg model.FinishedGood
	err = sqlx.GetContext(ctx, r.DB, &fg, `
		UPDATE finished_goods
		SET quantity_on_hand = $1, cost_per_unit = $2, updated_at = $3
		WHERE id = $4
		RETURNING *
	`, newQty, newCost, now, c.FinishedGoodID)
	if err != nil {
		return nil, fmt.Errorf("credit finished good: %w", err)
	}
	return &fg, nil
}

func (r *PGRepository) DebitFinishedGood(ctx context.Context, id string, amount decimal.Decimal) (*model.FinishedGood, error) {
	if !amount.IsPositive() {
		return nil, apperror.Invalid("quantity", "must be greater than zero")
	}

	query := `
		UPDATE finished_goods
		SET quantity_on_hand = quantity_on_hand - $1, updated_at = $2
		WHERE id = $3 AND quantity_on_hand >= $1
		RETURNING *
	`
	var fg model.FinishedGood
	err := sqlx.GetContext(ctx, r.DB, &fg, query, amount, time.Now().UTC(), id)
	if err == nil {
		return &fg, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	current, err := r.GetFinishedGood(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &apperror.InsufficientStockError{
		Item:      string(model.ItemTypeFinishedGood),
		ID:        id,
		Requested: amount,
		Available: current.QuantityOnHand,
	}
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, item_type, item_id, movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :item_type, :item_id, :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, m)
	return err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ItemType != "" {
		conditions = append(conditions, "item_type = :item_type")
		args["item_type"] = string(f.ItemType)
	}
	if f.ItemID != "" {
		conditions = append(conditions, "item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = string(f.MovementType)
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var items []model.StockMovement
	count, err := r.selectPage(ctx, &items, "stock_movements", whereClause, "created_at DESC", f.Page, f.PageSize, args)
	return items, count, err
}

// selectPage runs a count and a paged select over table with named args.
func (r *PGRepository) selectPage(ctx context.Context, dest interface{}, table, whereClause, orderBy string, page, pageSize int, args map[string]interface{}) (int, error) {
	var count int
	countQuery, countArgs, err := r.DB.BindNamed("SELECT count(*) FROM "+table+whereClause, args)
	if err != nil {
		return 0, err
	}
	if err := sqlx.GetContext(ctx, r.DB, &count, countQuery, countArgs...); err != nil {
		return 0, err
	}

	query := "SELECT * FROM " + table + whereClause + " ORDER BY " + orderBy
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * pageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, offset)
	}

	query, queryArgs, err := r.DB.BindNamed(query, args)
	if err != nil {
		return 0, err
	}
	if err := sqlx.SelectContext(ctx, r.DB, dest, query, queryArgs...); err != nil {
		return 0, err
	}
	return count, nil
}

func expectOne(res sql.Result, entity, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperror.NotFound(entity, id)
	}
	return nil
}
