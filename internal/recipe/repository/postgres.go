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
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

var _ recipe.Repository = (*PGRepository)(nil)

type PGRepository struct {
	DB sqlx.ExtContext
}

func NewPGRepository(db sqlx.ExtContext) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, rec *model.Recipe) error {
	query := `
        INSERT INTO recipes (id, product_id, name, yield_quantity, yield_unit, sale_price, created_at, updated_at)
        VALUES (:id, :product_id, :name, :yield_quantity, :yield_unit, :sale_price, :created_at, :updated_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.DB, query, rec); err != nil {
		if postgres.IsUniqueViolation(err) {
			return &apperror.ConflictError{Entity: "recipe", ID: rec.ID, Reason: "already exists"}
		}
		return err
	}
	return r.insertLines(ctx, rec)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	return r.findByID(ctx, `SELECT * FROM recipes WHERE id = $1 LIMIT 1`, id)
}

// LockRecipe holds a share lock on the header row so Update and Delete, which
// touch the header first, wait until the caller's transaction ends.
func (r *PGRepository) LockRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	return r.findByID(ctx, `SELECT * FROM recipes WHERE id = $1 FOR SHARE`, id)
}

func (r *PGRepository) findByID(ctx context.Context, query, id string) (*model.Recipe, error) {
	var rec model.Recipe
	err := sqlx.GetContext(ctx, r.DB, &rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, err
	}

	lines, err := r.loadLines(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	rec.Ingredients = lines[id]
	return &rec, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.RecipeFilters) ([]model.Recipe, int, error) {
	var recipes []model.Recipe
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Name != "" {
		conditions = append(conditions, "name ILIKE :name")
		args["name"] = "%" + f.Name + "%"
	}
	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := r.DB.BindNamed("SELECT count(*) FROM recipes"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := sqlx.GetContext(ctx, r.DB, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM recipes" + whereClause + " ORDER BY name ASC, id ASC"
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
	if err := sqlx.SelectContext(ctx, r.DB, &recipes, query, queryArgs...); err != nil {
		return nil, 0, err
	}
	if len(recipes) == 0 {
		return recipes, count, nil
	}

	ids := make([]string, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range recipes {
		recipes[i].Ingredients = lines[recipes[i].ID]
	}

	return recipes, count, nil
}

// Update rewrites the header and replaces every ingredient line.
func (r *PGRepository) Update(ctx context.Context, rec *model.Recipe) error {
	query := `
        UPDATE recipes
        SET product_id = :product_id,
            name = :name,
            yield_quantity = :yield_quantity,
            yield_unit = :yield_unit,
            sale_price = :sale_price,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := sqlx.NamedExecContext(ctx, r.DB, query, rec)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		return apperror.NotFound("recipe", rec.ID)
	}

	if _, err := r.DB.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, rec.ID); err != nil {
		return err
	}
	return r.insertLines(ctx, rec)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	// recipe_ingredients rows go with it (ON DELETE CASCADE).
	res, err := r.DB.ExecContext(ctx, "DELETE FROM recipes WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

func (r *PGRepository) IsIngredientReferenced(ctx context.Context, ingredientID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.DB, &exists,
		`SELECT EXISTS (SELECT 1 FROM recipe_ingredients WHERE ingredient_id = $1)`, ingredientID)
	return exists, err
}

func (r *PGRepository) insertLines(ctx context.Context, rec *model.Recipe) error {
	if len(rec.Ingredients) == 0 {
		return nil
	}
	for i := range rec.Ingredients {
		rec.Ingredients[i].RecipeID = rec.ID
		rec.Ingredients[i].Position = i
	}

	query := `
        INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity_per_yield, position)
        VALUES (:recipe_id, :ingredient_id, :quantity_per_yield, :position)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.DB, query, rec.Ingredients); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.Invalid("ingredients", "references an unknown ingredient")
		}
		if postgres.IsUniqueViolation(err) {
			return apperror.Invalid("ingredients", "lists an ingredient more than once")
		}
		return fmt.Errorf("insert recipe lines: %w", err)
	}
	return nil
}

func (r *PGRepository) loadLines(ctx context.Context, recipeIDs []string) (map[string][]model.RecipeIngredient, error) {
	query, args, err := sqlx.In(
		`SELECT * FROM recipe_ingredients WHERE recipe_id IN (?) ORDER BY recipe_id, position`, recipeIDs)
	if err != nil {
		return nil, err
	}

	var lines []model.RecipeIngredient
	if err := sqlx.SelectContext(ctx, r.DB, &lines, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load recipe lines: %w", err)
	}

	out := make(map[string][]model.RecipeIngredient, len(recipeIDs))
	for _, l := range lines {
		out[l.RecipeID] = append(out[l.RecipeID], l)
	}
	return out, nil
}
