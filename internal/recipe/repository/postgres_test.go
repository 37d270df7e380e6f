package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

var (
	recipeColumns = []string{"id", "product_id", "name", "yield_quantity", "yield_unit", "sale_price", "created_at", "updated_at"}
	lineColumns   = []string{"recipe_id", "ingredient_id", "quantity_per_yield", "position"}
)

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestPGRepository_FindByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM recipes WHERE id = $1")).
		WithArgs("bread").
		WillReturnRows(sqlmock.NewRows(recipeColumns).AddRow("bread", "bread", "Bread", "10", "loaf", "5", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM recipe_ingredients WHERE recipe_id IN ($1)")).
		WithArgs("bread").
		WillReturnRows(sqlmock.NewRows(lineColumns).
			AddRow("bread", "flour", "10", 0).
			AddRow("bread", "sugar", "2", 1))

	rec, err := repo.FindByID(context.Background(), "bread")
	require.NoError(t, err)
	assert.Equal(t, []string{"flour", "sugar"}, rec.IngredientIDs())
	assert.True(t, rec.YieldQuantity.Equal(decimal.NewFromInt(10)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_LockRecipe(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM recipes WHERE id = $1 FOR SHARE")).
		WithArgs("bread").
		WillReturnRows(sqlmock.NewRows(recipeColumns).AddRow("bread", "bread", "Bread", "20", "loaf", "5", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM recipe_ingredients WHERE recipe_id IN ($1)")).
		WithArgs("bread").
		WillReturnRows(sqlmock.NewRows(lineColumns).AddRow("bread", "flour", "20", 0))

	rec, err := repo.LockRecipe(context.Background(), "bread")
	require.NoError(t, err)
	assert.True(t, rec.YieldQuantity.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, []string{"flour"}, rec.IngredientIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_LockRecipe_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FOR SHARE")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(recipeColumns))

	_, err := repo.LockRecipe(context.Background(), "ghost")
	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM recipes WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(recipeColumns))

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestPGRepository_Update_ReplacesLines(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE recipes")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipe_ingredients WHERE recipe_id = $1")).
		WithArgs("bread").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recipe_ingredients")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &model.Recipe{
		ID:            "bread",
		ProductID:     "bread",
		Name:          "Bread",
		YieldQuantity: decimal.NewFromInt(10),
		YieldUnit:     "loaf",
		UpdatedAt:     time.Now(),
		Ingredients: []model.RecipeIngredient{
			{IngredientID: "flour", QuantityPerYield: decimal.NewFromInt(12)},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestPGRepository_IsIngredientReferenced(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("flour").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	used, err := repo.IsIngredientReferenced(context.Background(), "flour")
	require.NoError(t, err)
	assert.True(t, used)
}
