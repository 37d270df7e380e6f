package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/database/postgres"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
)

var _ production.Repository = (*PGRepository)(nil)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) AppendBatch(ctx context.Context, b *model.ProductionBatch) error {
	query := `
        INSERT INTO production_batches (
            id, recipe_id, product_id, batch_multiplier, produced_quantity,
            total_cost, cost_per_unit, notes, created_by, created_at
        )
        VALUES (
            :id, :recipe_id, :product_id, :batch_multiplier, :produced_quantity,
            :total_cost, :cost_per_unit, :notes, :created_by, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, r.DB, query, b); err != nil {
		if postgres.IsUniqueViolation(err) {
			return &apperror.ConflictError{Entity: "production batch", ID: b.ID, Reason: "already recorded"}
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	if len(b.Lines) == 0 {
		return nil
	}

	for i := range b.Lines {
		b.Lines[i].BatchID = b.ID
	}
	lineQuery := `
        INSERT INTO production_batch_lines (batch_id, ingredient_id, quantity, unit_cost, cost)
        VALUES (:batch_id, :ingredient_id, :quantity, :unit_cost, :cost)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.DB, lineQuery, b.Lines); err != nil {
		return fmt.Errorf("insert batch lines: %w", err)
	}
	return nil
}

func (r *PGRepository) FindBatchByID(ctx context.Context, id string) (*model.ProductionBatch, error) {
	var b model.ProductionBatch
	err := sqlx.GetContext(ctx, r.DB, &b, `SELECT * FROM production_batches WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("production batch", id)
		}
		return nil, err
	}

	err = sqlx.SelectContext(ctx, r.DB, &b.Lines,
		`SELECT * FROM production_batch_lines WHERE batch_id = $1 ORDER BY ingredient_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load batch lines: %w", err)
	}
	return &b, nil
}

// FindBatches lists headers newest first. Lines are only loaded by FindBatchByID.
func (r *PGRepository) FindBatches(ctx context.Context, f *dto.BatchFilters) ([]model.ProductionBatch, int, error) {
	var batches []model.ProductionBatch
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.RecipeID != "" {
		conditions = append(conditions, "recipe_id = :recipe_id")
		args["recipe_id"] = f.RecipeID
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.From != nil {
		conditions = append(conditions, "created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, "created_at < :to")
		args["to"] = *f.To
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := r.DB.BindNamed("SELECT count(*) FROM production_batches"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, r.DB, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM production_batches" + whereClause + " ORDER BY created_at DESC, id ASC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	query, queryArgs, err := r.DB.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.SelectContext(ctx, r.DB, &batches, query, queryArgs...); err != nil {
		return nil, 0, err
	}
	return batches, count, nil
}
