package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

// Credit describes finished goods entering stock. Name and Unit are only used
// when the finished good does not exist yet.
type Credit struct {
	FinishedGoodID string
	Name           string
	Unit           string
	Quantity       decimal.Decimal
	CostPerUnit    decimal.Decimal
}

type Repository interface {
	// Ingredients
	CreateIngredient(ctx context.Context, ing *model.Ingredient) error
	GetIngredient(ctx context.Context, id string) (*model.Ingredient, error)
	ListIngredients(ctx context.Context, filters *dto.IngredientFilters) ([]model.Ingredient, int, error)
	UpdateIngredient(ctx context.Context, ing *model.Ingredient) error
	DeleteIngredient(ctx context.Context, id string) error

	// Core stock operations. Inside a transaction scope these hold row locks
	// until the scope ends.
	LockIngredients(ctx context.Context, ids []string) (map[string]*model.Ingredient, error)
	TryDecrement(ctx context.Context, id string, amount decimal.Decimal) (*model.Ingredient, error)
	SetIngredientStock(ctx context.Context, id string, quantity, unitCost decimal.Decimal) (*model.Ingredient, error)

	// Finished goods
	GetFinishedGood(ctx context.Context, id string) (*model.FinishedGood, error)
	ListFinishedGoods(ctx context.Context, filters *dto.FinishedGoodFilters) ([]model.FinishedGood, int, error)
	CreditFinishedGood(ctx context.Context, credit *Credit) (*model.FinishedGood, error)
	DebitFinishedGood(ctx context.Context, id string, amount decimal.Decimal) (*model.FinishedGood, error)

	// Movements / Audit
	LogMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
