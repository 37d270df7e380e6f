package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedIngredient(t *testing.T, s *Store, id, qty, cost string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.Inventory().CreateIngredient(context.Background(), &model.Ingredient{
		ID: id, Name: id, Unit: "kg",
		QuantityOnHand: dec(qty), UnitCost: dec(cost), ReorderPoint: decimal.Zero,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func TestExecute_RollsBackOnError(t *testing.T) {
	s := New()
	seedIngredient(t, s, "flour", "10", "1.5")
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Execute(ctx, func(r store.Repositories) error {
		if _, err := r.Inventory().TryDecrement(ctx, "flour", dec("4")); err != nil {
			return err
		}
		_, err := r.Inventory().CreditFinishedGood(ctx, &inventory.Credit{
			FinishedGoodID: "bread", Name: "Bread", Unit: "loaf", Quantity: dec("1"), CostPerUnit: dec("6"),
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ing, err := s.Inventory().GetIngredient(ctx, "flour")
	require.NoError(t, err)
	assert.True(t, ing.QuantityOnHand.Equal(dec("10")))

	_, err = s.Inventory().GetFinishedGood(ctx, "bread")
	assert.True(t, apperror.IsNotFound(err))
}

func TestExecute_StagedWritesVisibleInsideScope(t *testing.T) {
	s := New()
	seedIngredient(t, s, "flour", "10", "1.5")
	ctx := context.Background()

	err := s.Execute(ctx, func(r store.Repositories) error {
		_, err := r.Inventory().TryDecrement(ctx, "flour", dec("4"))
		require.NoError(t, err)

		inside, err := r.Inventory().GetIngredient(ctx, "flour")
		require.NoError(t, err)
		assert.True(t, inside.QuantityOnHand.Equal(dec("6")))

		outside, err := s.Inventory().GetIngredient(ctx, "flour")
		require.NoError(t, err)
		assert.True(t, outside.QuantityOnHand.Equal(dec("10")))
		return nil
	})
	require.NoError(t, err)

	ing, _ := s.Inventory().GetIngredient(ctx, "flour")
	assert.True(t, ing.QuantityOnHand.Equal(dec("6")))
}

func TestTryDecrement_Shortfall(t *testing.T) {
	s := New()
	seedIngredient(t, s, "sugar", "1", "2")

	_, err := s.Inventory().TryDecrement(context.Background(), "sugar", dec("1.5"))

	var stockErr *apperror.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "sugar", stockErr.ID)
	assert.True(t, stockErr.Available.Equal(dec("1")))
}

func TestTryDecrement_ConcurrentNeverNegative(t *testing.T) {
	s := New()
	seedIngredient(t, s, "flour", "10", "1")
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Execute(ctx, func(r store.Repositories) error {
				_, err := r.Inventory().TryDecrement(ctx, "flour", dec("1"))
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	ing, err := s.Inventory().GetIngredient(ctx, "flour")
	require.NoError(t, err)
	assert.Equal(t, 10, succeeded)
	assert.True(t, ing.QuantityOnHand.IsZero())
	assert.Zero(t, s.locks.size())
}

func TestLockIngredients_WaitHonoursContext(t *testing.T) {
	s := New()
	seedIngredient(t, s, "flour", "10", "1")

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.Execute(context.Background(), func(r store.Repositories) error {
			_, err := r.Inventory().LockIngredients(context.Background(), []string{"flour"})
			close(holding)
			<-done
			return err
		})
	}()
	<-holding
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Execute(ctx, func(r store.Repositories) error {
		_, err := r.Inventory().LockIngredients(ctx, []string{"flour"})
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, s.locks.size())
}

func TestRowLocks_IdleEntriesRemoved(t *testing.T) {
	s := New()
	ctx := context.Background()
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		seedIngredient(t, s, id, "10", "1")
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Execute(ctx, func(r store.Repositories) error {
			_, err := r.Inventory().LockIngredients(ctx, ids)
			return err
		}))
	}
	assert.Zero(t, s.locks.size())

	require.NoError(t, s.locks.acquire(ctx, "ingredient:a"))
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.locks.acquire(cancelled, "ingredient:a"), context.Canceled)
	assert.Equal(t, 1, s.locks.size())
	s.locks.release("ingredient:a")
	assert.Zero(t, s.locks.size())
}

func TestDeleteIngredient_ReferencedByRecipe(t *testing.T) {
	s := New()
	seedIngredient(t, s, "flour", "10", "1")
	ctx := context.Background()

	require.NoError(t, s.Recipes().Create(ctx, &model.Recipe{
		ID: "bread", ProductID: "bread", Name: "Bread", YieldQuantity: dec("10"), YieldUnit: "loaf",
		Ingredients: []model.RecipeIngredient{{IngredientID: "flour", QuantityPerYield: dec("5")}},
	}))

	err := s.Inventory().DeleteIngredient(ctx, "flour")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, s.Recipes().Delete(ctx, "bread"))
	require.NoError(t, s.Inventory().DeleteIngredient(ctx, "flour"))
}

func TestRecipeCreate_UnknownIngredient(t *testing.T) {
	s := New()
	err := s.Recipes().Create(context.Background(), &model.Recipe{
		ID: "bread", Name: "Bread", YieldQuantity: dec("1"), YieldUnit: "loaf",
		Ingredients: []model.RecipeIngredient{{IngredientID: "ghost", QuantityPerYield: dec("1")}},
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCreditFinishedGood_WeightedAverage(t *testing.T) {
	s := New()
	ctx := context.Background()
	inv := s.Inventory()

	_, err := inv.CreditFinishedGood(ctx, &inventory.Credit{FinishedGoodID: "bread", Name: "Bread", Unit: "loaf", Quantity: dec("10"), CostPerUnit: dec("2.70")})
	require.NoError(t, err)
	fg, err := inv.CreditFinishedGood(ctx, &inventory.Credit{FinishedGoodID: "bread", Quantity: dec("10"), CostPerUnit: dec("3.00")})
	require.NoError(t, err)

	assert.True(t, fg.QuantityOnHand.Equal(dec("20")))
	assert.True(t, fg.CostPerUnit.Equal(dec("2.85")))
	assert.Equal(t, "Bread", fg.Name)
}

func TestListIngredients_FilterAndPage(t *testing.T) {
	s := New()
	seedIngredient(t, s, "flour", "1", "1")
	seedIngredient(t, s, "flaxseed", "5", "1")
	seedIngredient(t, s, "sugar", "1", "1")
	ctx := context.Background()

	items, total, err := s.Inventory().ListIngredients(ctx, &invdto.IngredientFilters{Name: "FL", Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "flaxseed", items[0].ID)

	items, _, err = s.Inventory().ListIngredients(ctx, &invdto.IngredientFilters{Page: 5, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
}
