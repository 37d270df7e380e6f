package recipe

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

type Repository interface {
	Create(ctx context.Context, r *model.Recipe) error
	FindByID(ctx context.Context, id string) (*model.Recipe, error)
	// LockRecipe reads header and lines as one snapshot. Inside a transaction
	// scope the recipe cannot be updated or deleted until the scope ends.
	LockRecipe(ctx context.Context, id string) (*model.Recipe, error)
	FindAll(ctx context.Context, filters *dto.RecipeFilters) ([]model.Recipe, int, error)
	Update(ctx context.Context, r *model.Recipe) error
	Delete(ctx context.Context, id string) error
	IsIngredientReferenced(ctx context.Context, ingredientID string) (bool, error)
}
