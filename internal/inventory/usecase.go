package inventory

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

type UseCase interface {
	CreateIngredient(ctx context.Context, input *dto.CreateIngredientInput) (*model.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*model.Ingredient, error)
	ListIngredients(ctx context.Context, filters *dto.IngredientFilters) ([]model.Ingredient, int, error)
	ListLowStock(ctx context.Context, page, pageSize int) ([]model.Ingredient, int, error)
	UpdateIngredient(ctx context.Context, input *dto.UpdateIngredientInput) (*model.Ingredient, error)
	DeleteIngredient(ctx context.Context, id string) error
	Restock(ctx context.Context, input *dto.RestockInput) (*model.Ingredient, error)

	GetFinishedGood(ctx context.Context, id string) (*model.FinishedGood, error)
	ListFinishedGoods(ctx context.Context, filters *dto.FinishedGoodFilters) ([]model.FinishedGood, int, error)
	SellFinishedGood(ctx context.Context, input *dto.SellInput) (*model.FinishedGood, error)

	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
