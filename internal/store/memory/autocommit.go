package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-production-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
	proddto "github.com/fekuna/omnipos-production-service/internal/production/dto"
	recipedto "github.com/fekuna/omnipos-production-service/internal/recipe/dto"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

// run executes fn in its own unit of work.
func (s *Store) run(ctx context.Context, fn func(t *tx) error) error {
	return s.Execute(ctx, func(repos store.Repositories) error {
		return fn(repos.(*tx))
	})
}

type autoInventory struct{ s *Store }

func (a autoInventory) CreateIngredient(ctx context.Context, ing *model.Ingredient) error {
	return a.s.run(ctx, func(t *tx) error { return t.CreateIngredient(ctx, ing) })
}

func (a autoInventory) GetIngredient(ctx context.Context, id string) (out *model.Ingredient, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.GetIngredient(ctx, id); return err })
	return out, err
}

func (a autoInventory) ListIngredients(ctx context.Context, f *invdto.IngredientFilters) (items []model.Ingredient, total int, err error) {
	err = a.s.run(ctx, func(t *tx) error { items, total, err = t.ListIngredients(ctx, f); return err })
	return items, total, err
}

func (a autoInventory) UpdateIngredient(ctx context.Context, ing *model.Ingredient) error {
	return a.s.run(ctx, func(t *tx) error { return t.UpdateIngredient(ctx, ing) })
}

func (a autoInventory) DeleteIngredient(ctx context.Context, id string) error {
	return a.s.run(ctx, func(t *tx) error { return t.DeleteIngredient(ctx, id) })
}

func (a autoInventory) LockIngredients(ctx context.Context, ids []string) (out map[string]*model.Ingredient, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.LockIngredients(ctx, ids); return err })
	return out, err
}

func (a autoInventory) TryDecrement(ctx context.Context, id string, amount decimal.Decimal) (out *model.Ingredient, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.TryDecrement(ctx, id, amount); return err })
	return out, err
}

func (a autoInventory) SetIngredientStock(ctx context.Context, id string, quantity, unitCost decimal.Decimal) (out *model.Ingredient, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.SetIngredientStock(ctx, id, quantity, unitCost); return err })
	return out, err
}

func (a autoInventory) GetFinishedGood(ctx context.Context, id string) (out *model.FinishedGood, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.GetFinishedGood(ctx, id); return err })
	return out, err
}

func (a autoInventory) ListFinishedGoods(ctx context.Context, f *invdto.FinishedGoodFilters) (items []model.FinishedGood, total int, err error) {
	err = a.s.run(ctx, func(t *tx) error { items, total, err = t.ListFinishedGoods(ctx, f); return err })
	return items, total, err
}

func (a autoInventory) CreditFinishedGood(ctx context.Context, c *inventory.Credit) (out *model.FinishedGood, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.CreditFinishedGood(ctx, c); return err })
	return out, err
}

func (a autoInventory) DebitFinishedGood(ctx context.Context, id string, amount decimal.Decimal) (out *model.FinishedGood, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.DebitFinishedGood(ctx, id, amount); return err })
	return out, err
}

func (a autoInventory) LogMovement(ctx context.Context, m *model.StockMovement) error {
	return a.s.run(ctx, func(t *tx) error { return t.LogMovement(ctx, m) })
}

func (a autoInventory) ListMovements(ctx context.Context, f *invdto.MovementFilters) (items []model.StockMovement, total int, err error) {
	err = a.s.run(ctx, func(t *tx) error { items, total, err = t.ListMovements(ctx, f); return err })
	return items, total, err
}

type autoRecipes struct{ s *Store }

func (a autoRecipes) Create(ctx context.Context, r *model.Recipe) error {
	return a.s.run(ctx, func(t *tx) error { return t.Create(ctx, r) })
}

func (a autoRecipes) FindByID(ctx context.Context, id string) (out *model.Recipe, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.FindByID(ctx, id); return err })
	return out, err
}

func (a autoRecipes) LockRecipe(ctx context.Context, id string) (out *model.Recipe, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.LockRecipe(ctx, id); return err })
	return out, err
}

func (a autoRecipes) FindAll(ctx context.Context, f *recipedto.RecipeFilters) (items []model.Recipe, total int, err error) {
	err = a.s.run(ctx, func(t *tx) error { items, total, err = t.FindAll(ctx, f); return err })
	return items, total, err
}

func (a autoRecipes) Update(ctx context.Context, r *model.Recipe) error {
	return a.s.run(ctx, func(t *tx) error { return t.Update(ctx, r) })
}

func (a autoRecipes) Delete(ctx context.Context, id string) error {
	return a.s.run(ctx, func(t *tx) error { return t.Delete(ctx, id) })
}

func (a autoRecipes) IsIngredientReferenced(ctx context.Context, ingredientID string) (used bool, err error) {
	err = a.s.run(ctx, func(t *tx) error { used, err = t.IsIngredientReferenced(ctx, ingredientID); return err })
	return used, err
}

type autoLedger struct{ s *Store }

func (a autoLedger) AppendBatch(ctx context.Context, b *model.ProductionBatch) error {
	return a.s.run(ctx, func(t *tx) error { return t.AppendBatch(ctx, b) })
}

func (a autoLedger) FindBatchByID(ctx context.Context, id string) (out *model.ProductionBatch, err error) {
	err = a.s.run(ctx, func(t *tx) error { out, err = t.FindBatchByID(ctx, id); return err })
	return out, err
}

func (a autoLedger) FindBatches(ctx context.Context, f *proddto.BatchFilters) (items []model.ProductionBatch, total int, err error) {
	err = a.s.run(ctx, func(t *tx) error { items, total, err = t.FindBatches(ctx, f); return err })
	return items, total, err
}
