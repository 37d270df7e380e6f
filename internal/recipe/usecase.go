package recipe

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

type UseCase interface {
	CreateRecipe(ctx context.Context, input *dto.RecipeInput) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filters *dto.RecipeFilters) ([]model.Recipe, int, error)
	UpdateRecipe(ctx context.Context, id string, input *dto.RecipeInput) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	GetRecipeCost(ctx context.Context, id string) (*dto.RecipeCost, error)
}
