package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/recipe/dto"
)

func (t *tx) Create(_ context.Context, rec *model.Recipe) error {
	if _, exists := t.recipe(rec.ID); exists {
		return &apperror.ConflictError{Entity: "recipe", ID: rec.ID, Reason: "already exists"}
	}
	if err := t.checkLines(rec); err != nil {
		return err
	}

	t.recipes[rec.ID] = rec.Clone()
	t.createdRecipes[rec.ID] = true
	delete(t.deletedRecipes, rec.ID)
	return nil
}

func (t *tx) FindByID(_ context.Context, id string) (*model.Recipe, error) {
	rec, ok := t.recipe(id)
	if !ok {
		return nil, apperror.NotFound("recipe", id)
	}
	return rec, nil
}

// LockRecipe is FindByID: commits apply under the store write lock, so a
// recipe read here is always a consistent snapshot.
func (t *tx) LockRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	return t.FindByID(ctx, id)
}

func (t *tx) FindAll(_ context.Context, f *dto.RecipeFilters) ([]model.Recipe, int, error) {
	name := strings.ToLower(f.Name)

	items := make([]model.Recipe, 0)
	for _, rec := range t.visibleRecipes() {
		if name != "" && !strings.Contains(strings.ToLower(rec.Name), name) {
			continue
		}
		if f.ProductID != "" && rec.ProductID != f.ProductID {
			continue
		}
		items = append(items, *rec)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})

	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func (t *tx) Update(ctx context.Context, rec *model.Recipe) error {
	if err := t.lock(ctx, recipeKey(rec.ID)); err != nil {
		return err
	}
	current, ok := t.recipe(rec.ID)
	if !ok {
		return apperror.NotFound("recipe", rec.ID)
	}
	if err := t.checkLines(rec); err != nil {
		return err
	}

	updated := rec.Clone()
	updated.CreatedAt = current.CreatedAt
	t.recipes[rec.ID] = updated
	return nil
}

func (t *tx) Delete(ctx context.Context, id string) error {
	if err := t.lock(ctx, recipeKey(id)); err != nil {
		return err
	}
	if _, ok := t.recipe(id); !ok {
		return apperror.NotFound("recipe", id)
	}

	delete(t.recipes, id)
	delete(t.createdRecipes, id)
	t.deletedRecipes[id] = true
	return nil
}

func (t *tx) IsIngredientReferenced(_ context.Context, ingredientID string) (bool, error) {
	for _, rec := range t.visibleRecipes() {
		for _, line := range rec.Ingredients {
			if line.IngredientID == ingredientID {
				return true, nil
			}
		}
	}
	return false, nil
}

// checkLines numbers the lines and applies the checks the recipe_ingredients
// keys apply in Postgres.
func (t *tx) checkLines(rec *model.Recipe) error {
	seen := make(map[string]bool, len(rec.Ingredients))
	for i := range rec.Ingredients {
		line := &rec.Ingredients[i]
		line.RecipeID = rec.ID
		line.Position = i

		if seen[line.IngredientID] {
			return apperror.Invalid("ingredients", "lists an ingredient more than once")
		}
		seen[line.IngredientID] = true

		if _, ok := t.ingredient(line.IngredientID); !ok {
			return apperror.Invalid("ingredients", fmt.Sprintf("references unknown ingredient %q", line.IngredientID))
		}
	}
	return nil
}
