package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/cache"
	"github.com/fekuna/omnipos-production-service/internal/costing"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

type recipeUseCase struct {
	store    store.Store
	cache    cache.JSONCache
	cacheTTL time.Duration
	logger   logger.ZapLogger
}

// NewRecipeUseCase builds the use case. A nil cache disables read-through caching.
func NewRecipeUseCase(s store.Store, c cache.JSONCache, cacheTTL time.Duration, log logger.ZapLogger) recipe.UseCase {
	return &recipeUseCase{
		store:    s,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}

func cacheKey(id string) string {
	return "recipe:" + id
}

func (uc *recipeUseCase) CreateRecipe(ctx context.Context, input *dto.RecipeInput) (*model.Recipe, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &model.Recipe{
		ID:        uuid.New().String(),
		CreatedAt: now,
	}
	apply(rec, input, now)

	err := uc.store.Execute(ctx, func(repos store.Repositories) error {
		if err := ensureIngredients(ctx, repos, rec); err != nil {
			return err
		}
		return repos.Recipes().Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Recipe created", zap.String("recipe_id", rec.ID), zap.Int("lines", len(rec.Ingredients)))
	return rec, nil
}

func (uc *recipeUseCase) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	if uc.cache != nil {
		var cached model.Recipe
		err := uc.cache.GetJSON(ctx, cacheKey(id), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.logger.Warn("Recipe cache read failed", zap.String("recipe_id", id), zap.Error(err))
		}
	}

	rec, err := uc.store.Recipes().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, cacheKey(id), rec, uc.cacheTTL); err != nil {
			uc.logger.Warn("Recipe cache write failed", zap.String("recipe_id", id), zap.Error(err))
		} else {
			uc.revalidate(ctx, rec)
		}
	}
	return rec, nil
}

// revalidate drops the entry just written when the recipe was updated or
// deleted after it was read. The writer's invalidation may have run before
// the write landed.
func (uc *recipeUseCase) revalidate(ctx context.Context, cached *model.Recipe) {
	cur, err := uc.store.Recipes().FindByID(ctx, cached.ID)
	if err == nil && cur.UpdatedAt.Equal(cached.UpdatedAt) {
		return
	}
	if err := uc.cache.Delete(context.WithoutCancel(ctx), cacheKey(cached.ID)); err != nil {
		uc.logger.Warn("Recipe cache invalidation failed", zap.String("recipe_id", cached.ID), zap.Error(err))
	}
}

func (uc *recipeUseCase) ListRecipes(ctx context.Context, filters *dto.RecipeFilters) ([]model.Recipe, int, error) {
	return uc.store.Recipes().FindAll(ctx, filters)
}

// UpdateRecipe replaces the recipe header and every ingredient line.
func (uc *recipeUseCase) UpdateRecipe(ctx context.Context, id string, input *dto.RecipeInput) (*model.Recipe, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	var updated *model.Recipe
	err := uc.store.Execute(ctx, func(repos store.Repositories) error {
		rec, err := repos.Recipes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		apply(rec, input, time.Now().UTC())

		if err := ensureIngredients(ctx, repos, rec); err != nil {
			return err
		}
		if err := repos.Recipes().Update(ctx, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, id)
	return updated, nil
}

func (uc *recipeUseCase) DeleteRecipe(ctx context.Context, id string) error {
	err := uc.store.Execute(ctx, func(repos store.Repositories) error {
		return repos.Recipes().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	uc.invalidate(ctx, id)
	uc.logger.Info("Recipe deleted", zap.String("recipe_id", id))
	return nil
}

// GetRecipeCost prices one base yield of the recipe at current ingredient costs.
func (uc *recipeUseCase) GetRecipeCost(ctx context.Context, id string) (*dto.RecipeCost, error) {
	rec, err := uc.store.Recipes().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &dto.RecipeCost{
		RecipeID:      rec.ID,
		YieldQuantity: rec.YieldQuantity,
		SalePrice:     rec.SalePrice,
		Lines:         make([]dto.RecipeCostLine, 0, len(rec.Ingredients)),
	}

	lines := make([]costing.Line, 0, len(rec.Ingredients))
	for _, ri := range rec.Ingredients {
		ing, err := uc.store.Inventory().GetIngredient(ctx, ri.IngredientID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, costing.Line{Quantity: ri.QuantityPerYield, UnitPrice: ing.UnitCost})
		out.Lines = append(out.Lines, dto.RecipeCostLine{
			IngredientID:     ri.IngredientID,
			QuantityPerYield: ri.QuantityPerYield,
			UnitCost:         ing.UnitCost,
			Cost:             costing.IngredientCost(ri.QuantityPerYield, ing.UnitCost),
		})
	}

	out.TotalCost = costing.RecipeCost(lines)
	out.CostPerUnit, err = costing.CostPerUnit(out.TotalCost, rec.YieldQuantity)
	if err != nil {
		return nil, err
	}

	margin := costing.ProfitMargin(out.CostPerUnit, rec.SalePrice)
	out.MarginValue = margin.Value
	out.MarginPercentage = margin.Percentage
	return out, nil
}

func (uc *recipeUseCase) invalidate(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(context.WithoutCancel(ctx), cacheKey(id)); err != nil {
		uc.logger.Warn("Recipe cache invalidation failed", zap.String("recipe_id", id), zap.Error(err))
	}
}

func validate(input *dto.RecipeInput) error {
	data := costing.RecipeData{
		Name:          input.Name,
		YieldQuantity: input.YieldQuantity,
		YieldUnit:     input.YieldUnit,
		SalePrice:     input.SalePrice,
		Ingredients:   make([]costing.RecipeLineData, len(input.Ingredients)),
	}
	for i, line := range input.Ingredients {
		data.Ingredients[i] = costing.RecipeLineData{
			IngredientID:     line.IngredientID,
			QuantityPerYield: line.QuantityPerYield,
		}
	}
	res := costing.ValidateRecipe(data)
	return res.Err()
}

func apply(rec *model.Recipe, input *dto.RecipeInput, now time.Time) {
	rec.ProductID = input.ProductID
	if rec.ProductID == "" {
		rec.ProductID = rec.ID
	}
	rec.Name = input.Name
	rec.YieldQuantity = input.YieldQuantity
	rec.YieldUnit = input.YieldUnit
	rec.SalePrice = input.SalePrice
	rec.UpdatedAt = now

	rec.Ingredients = make([]model.RecipeIngredient, len(input.Ingredients))
	for i, line := range input.Ingredients {
		rec.Ingredients[i] = model.RecipeIngredient{
			RecipeID:         rec.ID,
			IngredientID:     line.IngredientID,
			QuantityPerYield: line.QuantityPerYield,
			Position:         i,
		}
	}
}

// ensureIngredients fails with NotFound on the first line whose ingredient is missing.
func ensureIngredients(ctx context.Context, repos store.Repositories, rec *model.Recipe) error {
	for _, line := range rec.Ingredients {
		if _, err := repos.Inventory().GetIngredient(ctx, line.IngredientID); err != nil {
			return err
		}
	}
	return nil
}
