package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/cache"
	"github.com/fekuna/omnipos-production-service/internal/costing"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

type inventoryUseCase struct {
	store   store.Store
	locker  cache.Locker
	lockTTL time.Duration
	logger  logger.ZapLogger
}

// NewInventoryUseCase builds the use case. locker may be nil, in which case
// only the store's row locks serialize stock changes.
func NewInventoryUseCase(s store.Store, locker cache.Locker, lockTTL time.Duration, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		store:   s,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  log,
	}
}

func (uc *inventoryUseCase) CreateIngredient(ctx context.Context, input *dto.CreateIngredientInput) (*model.Ingredient, error) {
	res := costing.ValidateIngredient(costing.IngredientData{
		Name:           input.Name,
		Unit:           input.Unit,
		QuantityOnHand: input.QuantityOnHand,
		UnitCost:       input.UnitCost,
		ReorderPoint:   input.ReorderPoint,
	})
	if err := res.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ing := &model.Ingredient{
		ID:             uuid.New().String(),
		Name:           input.Name,
		Unit:           input.Unit,
		QuantityOnHand: input.QuantityOnHand,
		UnitCost:       input.UnitCost,
		ReorderPoint:   input.ReorderPoint,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := uc.store.Execute(ctx, func(repos store.Repositories) error {
		if err := repos.Inventory().CreateIngredient(ctx, ing); err != nil {
			return err
		}
		if !ing.QuantityOnHand.IsPositive() {
			return nil
		}
		// Opening stock is recorded so the movement log sums to quantity_on_hand.
		return repos.Inventory().LogMovement(ctx, inventory.NewMovement(inventory.Movement{
			ItemType:      model.ItemTypeIngredient,
			ItemID:        ing.ID,
			Type:          model.MovementAdjustment,
			Before:        decimal.Zero,
			After:         ing.QuantityOnHand,
			ReferenceType: "initial",
			Notes:         "Opening stock",
			UserID:        input.UserID,
			At:            now,
		}))
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Ingredient created", zap.String("ingredient_id", ing.ID), zap.String("name", ing.Name))
	return ing, nil
}

func (uc *inventoryUseCase) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	return uc.store.Inventory().GetIngredient(ctx, id)
}

func (uc *inventoryUseCase) ListIngredients(ctx context.Context, filters *dto.IngredientFilters) ([]model.Ingredient, int, error) {
	return uc.store.Inventory().ListIngredients(ctx, filters)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, page, pageSize int) ([]model.Ingredient, int, error) {
	return uc.store.Inventory().ListIngredients(ctx, &dto.IngredientFilters{
		LowStock: true,
		Page:     page,
		PageSize: pageSize,
	})
}

func (uc *inventoryUseCase) UpdateIngredient(ctx context.Context, input *dto.UpdateIngredientInput) (*model.Ingredient, error) {
	res := costing.ValidateIngredient(costing.IngredientData{
		Name:           input.Name,
		Unit:           input.Unit,
		QuantityOnHand: decimal.Zero,
		UnitCost:       input.UnitCost,
		ReorderPoint:   input.ReorderPoint,
	})
	if err := res.Err(); err != nil {
		return nil, err
	}

	var updated *model.Ingredient
	err := uc.store.Execute(ctx, func(repos store.Repositories) error {
		ing, err := repos.Inventory().GetIngredient(ctx, input.ID)
		if err != nil {
			return err
		}
		ing.Name = input.Name
		ing.Unit = input.Unit
		ing.UnitCost = input.UnitCost
		ing.ReorderPoint = input.ReorderPoint
		ing.UpdatedAt = time.Now().UTC()

		if err := repos.Inventory().UpdateIngredient(ctx, ing); err != nil {
			return err
		}
		updated = ing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteIngredient refuses to remove an ingredient that any recipe still uses.
func (uc *inventoryUseCase) DeleteIngredient(ctx context.Context, id string) error {
	return uc.store.Execute(ctx, func(repos store.Repositories) error {
		used, err := repos.Recipes().IsIngredientReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return &apperror.ConflictError{Entity: "ingredient", ID: id, Reason: "referenced by a recipe"}
		}
		return repos.Inventory().DeleteIngredient(ctx, id)
	})
}

func (uc *inventoryUseCase) Restock(ctx context.Context, input *dto.RestockInput) (*model.Ingredient, error) {
	if !input.Quantity.IsPositive() {
		return nil, apperror.Invalid("quantity", "must be greater than zero")
	}
	if input.UnitCost != nil && !input.UnitCost.IsPositive() {
		return nil, apperror.Invalid("unit_cost", "must be greater than zero")
	}

	unlock, err := uc.lock(ctx, fmt.Sprintf("lock:inventory:ingredient:%s", input.IngredientID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var restocked *model.Ingredient
	err = uc.store.Execute(ctx, func(repos store.Repositories) error {
		locked, err := repos.Inventory().LockIngredients(ctx, []string{input.IngredientID})
		if err != nil {
			return err
		}
		current, ok := locked[input.IngredientID]
		if !ok {
			return apperror.NotFound("ingredient", input.IngredientID)
		}

		addedCost := current.UnitCost
		if input.UnitCost != nil {
			addedCost = *input.UnitCost
		}
		newQty := current.QuantityOnHand.Add(input.Quantity)
		newCost := costing.WeightedAverageCost(current.QuantityOnHand, current.UnitCost, input.Quantity, addedCost)

		restocked, err = repos.Inventory().SetIngredientStock(ctx, current.ID, newQty, newCost)
		if err != nil {
			return err
		}

		return repos.Inventory().LogMovement(ctx, inventory.NewMovement(inventory.Movement{
			ItemType:      model.ItemTypeIngredient,
			ItemID:        current.ID,
			Type:          model.MovementRestock,
			Before:        current.QuantityOnHand,
			After:         newQty,
			ReferenceType: orDefault(input.ReferenceType, "manual"),
			ReferenceID:   input.ReferenceID,
			Notes:         input.Notes,
			UserID:        input.UserID,
			At:            restocked.UpdatedAt,
		}))
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Ingredient restocked",
		zap.String("ingredient_id", restocked.ID),
		zap.String("quantity", input.Quantity.String()),
		zap.String("unit_cost", restocked.UnitCost.String()),
	)
	return restocked, nil
}

func (uc *inventoryUseCase) GetFinishedGood(ctx context.Context, id string) (*model.FinishedGood, error) {
	return uc.store.Inventory().GetFinishedGood(ctx, id)
}

func (uc *inventoryUseCase) ListFinishedGoods(ctx context.Context, filters *dto.FinishedGoodFilters) ([]model.FinishedGood, int, error) {
	return uc.store.Inventory().ListFinishedGoods(ctx, filters)
}

func (uc *inventoryUseCase) SellFinishedGood(ctx context.Context, input *dto.SellInput) (*model.FinishedGood, error) {
	if !input.Quantity.IsPositive() {
		return nil, apperror.Invalid("quantity", "must be greater than zero")
	}

	unlock, err := uc.lock(ctx, fmt.Sprintf("lock:inventory:finished_good:%s", input.FinishedGoodID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var sold *model.FinishedGood
	err = uc.store.Execute(ctx, func(repos store.Repositories) error {
		var err error
		sold, err = repos.Inventory().DebitFinishedGood(ctx, input.FinishedGoodID, input.Quantity)
		if err != nil {
			return err
		}

		return repos.Inventory().LogMovement(ctx, inventory.NewMovement(inventory.Movement{
			ItemType:      model.ItemTypeFinishedGood,
			ItemID:        sold.ID,
			Type:          model.MovementSale,
			Before:        sold.QuantityOnHand.Add(input.Quantity),
			After:         sold.QuantityOnHand,
			ReferenceType: orDefault(input.ReferenceType, "sale"),
			ReferenceID:   input.ReferenceID,
			Notes:         input.Notes,
			UserID:        input.UserID,
			At:            sold.UpdatedAt,
		}))
	})
	if err != nil {
		return nil, err
	}
	return sold, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.store.Inventory().ListMovements(ctx, filters)
}

func (uc *inventoryUseCase) lock(ctx context.Context, key string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}
	unlock, err := uc.locker.Lock(ctx, key, uc.lockTTL)
	if err != nil {
		uc.logger.Error("Failed to acquire lock", zap.String("key", key), zap.Error(err))
		return nil, &apperror.TransactionFailure{Op: "lock", Err: err}
	}
	return unlock, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
