package memory

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

var (
	_ store.Repositories    = (*tx)(nil)
	_ inventory.Repository  = (*tx)(nil)
	_ recipe.Repository     = (*tx)(nil)
	_ production.Repository = (*tx)(nil)
)

// tx is one unit of work. Reads see committed state overlaid with the tx's
// own staged writes; nothing is visible to other callers before commit.
type tx struct {
	s *Store

	held []string

	ingredients        map[string]*model.Ingredient
	createdIngredients map[string]bool
	deletedIngredients map[string]bool
	finishedGoods      map[string]*model.FinishedGood
	recipes            map[string]*model.Recipe
	createdRecipes     map[string]bool
	deletedRecipes     map[string]bool
	batches            []*model.ProductionBatch
	movements          []model.StockMovement
}

func newTx(s *Store) *tx {
	return &tx{
		s:                  s,
		ingredients:        make(map[string]*model.Ingredient),
		createdIngredients: make(map[string]bool),
		deletedIngredients: make(map[string]bool),
		finishedGoods:      make(map[string]*model.FinishedGood),
		recipes:            make(map[string]*model.Recipe),
		createdRecipes:     make(map[string]bool),
		deletedRecipes:     make(map[string]bool),
	}
}

func (t *tx) Inventory() inventory.Repository { return t }
func (t *tx) Recipes() recipe.Repository      { return t }
func (t *tx) Ledger() production.Repository   { return t }

func ingredientKey(id string) string   { return "ingredient:" + id }
func finishedGoodKey(id string) string { return "finished_good:" + id }
func recipeKey(id string) string       { return "recipe:" + id }

// lock takes the row lock for key unless this tx already holds it.
func (t *tx) lock(ctx context.Context, key string) error {
	for _, k := range t.held {
		if k == key {
			return nil
		}
	}
	if err := t.s.locks.acquire(ctx, key); err != nil {
		return err
	}
	t.held = append(t.held, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
}

func (t *tx) ingredient(id string) (*model.Ingredient, bool) {
	if t.deletedIngredients[id] {
		return nil, false
	}
	if ing, ok := t.ingredients[id]; ok {
		c := *ing
		return &c, true
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if ing, ok := t.s.ingredients[id]; ok {
		c := *ing
		return &c, true
	}
	return nil, false
}

func (t *tx) finishedGood(id string) (*model.FinishedGood, bool) {
	if fg, ok := t.finishedGoods[id]; ok {
		c := *fg
		return &c, true
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if fg, ok := t.s.finishedGoods[id]; ok {
		c := *fg
		return &c, true
	}
	return nil, false
}

func (t *tx) recipe(id string) (*model.Recipe, bool) {
	if t.deletedRecipes[id] {
		return nil, false
	}
	if rec, ok := t.recipes[id]; ok {
		return rec.Clone(), true
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if rec, ok := t.s.recipes[id]; ok {
		return rec.Clone(), true
	}
	return nil, false
}

func (t *tx) visibleIngredients() []model.Ingredient {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	out := make([]model.Ingredient, 0, len(t.s.ingredients)+len(t.ingredients))
	for id, ing := range t.s.ingredients {
		if t.deletedIngredients[id] {
			continue
		}
		if staged, ok := t.ingredients[id]; ok {
			out = append(out, *staged)
			continue
		}
		out = append(out, *ing)
	}
	for id, ing := range t.ingredients {
		if _, committed := t.s.ingredients[id]; !committed {
			out = append(out, *ing)
		}
	}
	return out
}

func (t *tx) visibleFinishedGoods() []model.FinishedGood {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	out := make([]model.FinishedGood, 0, len(t.s.finishedGoods)+len(t.finishedGoods))
	for id, fg := range t.s.finishedGoods {
		if staged, ok := t.finishedGoods[id]; ok {
			out = append(out, *staged)
			continue
		}
		out = append(out, *fg)
	}
	for id, fg := range t.finishedGoods {
		if _, committed := t.s.finishedGoods[id]; !committed {
			out = append(out, *fg)
		}
	}
	return out
}

func (t *tx) visibleRecipes() []*model.Recipe {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.mergedRecipesLocked()
}

// mergedRecipesLocked expects t.s.mu to be held.
func (t *tx) mergedRecipesLocked() []*model.Recipe {
	out := make([]*model.Recipe, 0, len(t.s.recipes)+len(t.recipes))
	for id, rec := range t.s.recipes {
		if t.deletedRecipes[id] {
			continue
		}
		if staged, ok := t.recipes[id]; ok {
			out = append(out, staged.Clone())
			continue
		}
		out = append(out, rec.Clone())
	}
	for id, rec := range t.recipes {
		if _, committed := t.s.recipes[id]; !committed {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// checkIntegrity runs under the store write lock right before staged writes
// are applied. It enforces what foreign keys enforce in Postgres.
func (s *Store) checkIntegrity(t *tx) error {
	for id := range t.createdIngredients {
		if _, exists := s.ingredients[id]; exists {
			return &apperror.ConflictError{Entity: "ingredient", ID: id, Reason: "already exists"}
		}
	}
	for id := range t.createdRecipes {
		if _, exists := s.recipes[id]; exists {
			return &apperror.ConflictError{Entity: "recipe", ID: id, Reason: "already exists"}
		}
	}
	for _, b := range t.batches {
		if _, exists := s.batches[b.ID]; exists {
			return &apperror.ConflictError{Entity: "production batch", ID: b.ID, Reason: "already recorded"}
		}
	}

	ingredientExists := func(id string) bool {
		if t.deletedIngredients[id] {
			return false
		}
		if _, ok := t.ingredients[id]; ok {
			return true
		}
		_, ok := s.ingredients[id]
		return ok
	}

	for _, rec := range t.mergedRecipesLocked() {
		for _, line := range rec.Ingredients {
			if t.deletedIngredients[line.IngredientID] {
				return &apperror.ConflictError{Entity: "ingredient", ID: line.IngredientID, Reason: "referenced by a recipe"}
			}
			if !ingredientExists(line.IngredientID) {
				return apperror.Invalid("ingredients", fmt.Sprintf("references unknown ingredient %q", line.IngredientID))
			}
		}
	}
	return nil
}
