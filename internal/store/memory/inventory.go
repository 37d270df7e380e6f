package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/costing"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

func (t *tx) CreateIngredient(_ context.Context, ing *model.Ingredient) error {
	if _, exists := t.ingredient(ing.ID); exists {
		return &apperror.ConflictError{Entity: "ingredient", ID: ing.ID, Reason: "already exists"}
	}
	c := *ing
	t.ingredients[ing.ID] = &c
	t.createdIngredients[ing.ID] = true
	delete(t.deletedIngredients, ing.ID)
	return nil
}

func (t *tx) GetIngredient(_ context.Context, id string) (*model.Ingredient, error) {
	ing, ok := t.ingredient(id)
	if !ok {
		return nil, apperror.NotFound("ingredient", id)
	}
	return ing, nil
}

func (t *tx) ListIngredients(_ context.Context, f *dto.IngredientFilters) ([]model.Ingredient, int, error) {
	name := strings.ToLower(f.Name)

	items := make([]model.Ingredient, 0)
	for _, ing := range t.visibleIngredients() {
		if name != "" && !strings.Contains(strings.ToLower(ing.Name), name) {
			continue
		}
		if f.LowStock && !ing.IsLowStock() {
			continue
		}
		items = append(items, ing)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})

	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func (t *tx) UpdateIngredient(ctx context.Context, ing *model.Ingredient) error {
	if err := t.lock(ctx, ingredientKey(ing.ID)); err != nil {
		return err
	}
	current, ok := t.ingredient(ing.ID)
	if !ok {
		return apperror.NotFound("ingredient", ing.ID)
	}

	current.Name = ing.Name
	current.Unit = ing.Unit
	current.UnitCost = ing.UnitCost
	current.ReorderPoint = ing.ReorderPoint
	current.UpdatedAt = ing.UpdatedAt
	t.ingredients[ing.ID] = current
	return nil
}

func (t *tx) DeleteIngredient(ctx context.Context, id string) error {
	if err := t.lock(ctx, ingredientKey(id)); err != nil {
		return err
	}
	if _, ok := t.ingredient(id); !ok {
		return apperror.NotFound("ingredient", id)
	}
	used, err := t.IsIngredientReferenced(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return &apperror.ConflictError{Entity: "ingredient", ID: id, Reason: "referenced by a recipe"}
	}

	delete(t.ingredients, id)
	delete(t.createdIngredients, id)
	t.deletedIngredients[id] = true
	return nil
}

// LockIngredients locks in ascending id order regardless of the order of ids.
func (t *tx) LockIngredients(ctx context.Context, ids []string) (map[string]*model.Ingredient, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	out := make(map[string]*model.Ingredient, len(sorted))
	for _, id := range sorted {
		if _, seen := out[id]; seen {
			continue
		}
		if err := t.lock(ctx, ingredientKey(id)); err != nil {
			return nil, err
		}
		if ing, ok := t.ingredient(id); ok {
			out[id] = ing
		}
	}
	return out, nil
}

func (t *tx) TryDecrement(ctx context.Context, id string, amount decimal.Decimal) (*model.Ingredient, error) {
	if !amount.IsPositive() {
		return nil, apperror.Invalid("amount", "must be greater than zero")
	}
	if err := t.lock(ctx, ingredientKey(id)); err != nil {
		return nil, err
	}

	ing, ok := t.ingredient(id)
	if !ok {
		return nil, apperror.NotFound("ingredient", id)
	}
	if ing.QuantityOnHand.LessThan(amount) {
		return nil, &apperror.InsufficientStockError{
			Item:      string(model.ItemTypeIngredient),
			ID:        id,
			Requested: amount,
			Available: ing.QuantityOnHand,
		}
	}

	ing.QuantityOnHand = ing.QuantityOnHand.Sub(amount)
	ing.UpdatedAt = time.Now().UTC()
	t.ingredients[id] = ing

	out := *ing
	return &out, nil
}

func (t *tx) SetIngredientStock(ctx context.Context, id string, quantity, unitCost decimal.Decimal) (*model.Ingredient, error) {
	if quantity.IsNegative() {
		return nil, apperror.Invalid("quantity_on_hand", "must not be negative")
	}
	if err := t.lock(ctx, ingredientKey(id)); err != nil {
		return nil, err
	}

	ing, ok := t.ingredient(id)
	if !ok {
		return nil, apperror.NotFound("ingredient", id)
	}
	ing.QuantityOnHand = quantity
	ing.UnitCost = unitCost
	ing.UpdatedAt = time.Now().UTC()
	t.ingredients[id] = ing

	out := *ing
	return &out, nil
}

func (t *tx) GetFinishedGood(_ context.Context, id string) (*model.FinishedGood, error) {
	fg, ok := t.finishedGood(id)
	if !ok {
		return nil, apperror.NotFound("finished good", id)
	}
	return fg, nil
}

func (t *tx) ListFinishedGoods(_ context.Context, f *dto.FinishedGoodFilters) ([]model.FinishedGood, int, error) {
	items := t.visibleFinishedGoods()
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func (t *tx) CreditFinishedGood(ctx context.Context, c *inventory.Credit) (*model.FinishedGood, error) {
	if !c.Quantity.IsPositive() {
		return nil, apperror.Invalid("produced_quantity", "must be greater than zero")
	}
	if err := t.lock(ctx, finishedGoodKey(c.FinishedGoodID)); err != nil {
		return nil, err
	}

	fg, ok := t.finishedGood(c.FinishedGoodID)
	if !ok {
		fg = &model.FinishedGood{
			ID:             c.FinishedGoodID,
			Name:           c.Name,
			Unit:           c.Unit,
			QuantityOnHand: decimal.Zero,
			CostPerUnit:    decimal.Zero,
		}
	}

	fg.CostPerUnit = costing.WeightedAverageCost(fg.QuantityOnHand, fg.CostPerUnit, c.Quantity, c.CostPerUnit)
	fg.QuantityOnHand = fg.QuantityOnHand.Add(c.Quantity)
	fg.UpdatedAt = time.Now().UTC()
	t.finishedGoods[fg.ID] = fg

	out := *fg
	return &out, nil
}

func (t *tx) DebitFinishedGood(ctx context.Context, id string, amount decimal.Decimal) (*model.FinishedGood, error) {
	if !amount.IsPositive() {
		return nil, apperror.Invalid("quantity", "must be greater than zero")
	}
	if err := t.lock(ctx, finishedGoodKey(id)); err != nil {
		return nil, err
	}

	fg, ok := t.finishedGood(id)
	if !ok {
		return nil, apperror.NotFound("finished good", id)
	}
	if fg.QuantityOnHand.LessThan(amount) {
		return nil, &apperror.InsufficientStockError{
			Item:      string(model.ItemTypeFinishedGood),
			ID:        id,
			Requested: amount,
			Available: fg.QuantityOnHand,
		}
	}

	fg.QuantityOnHand = fg.QuantityOnHand.Sub(amount)
	fg.UpdatedAt = time.Now().UTC()
	t.finishedGoods[id] = fg

	out := *fg
	return &out, nil
}

func (t *tx) LogMovement(_ context.Context, m *model.StockMovement) error {
	t.movements = append(t.movements, *m)
	return nil
}

func (t *tx) ListMovements(_ context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	t.s.mu.RLock()
	all := make([]model.StockMovement, 0, len(t.s.movements)+len(t.movements))
	all = append(all, t.s.movements...)
	t.s.mu.RUnlock()
	all = append(all, t.movements...)

	items := make([]model.StockMovement, 0)
	for _, m := range all {
		if f.ItemType != "" && m.ItemType != f.ItemType {
			continue
		}
		if f.ItemID != "" && m.ItemID != f.ItemID {
			continue
		}
		if f.MovementType != "" && m.MovementType != f.MovementType {
			continue
		}
		if f.ReferenceID != "" && (m.ReferenceID == nil || *m.ReferenceID != f.ReferenceID) {
			continue
		}
		items = append(items, m)
	}

	// Newest first; entries logged at the same instant keep reverse insertion order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+pageSize, len(items))]
}
