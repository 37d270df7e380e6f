// Package memory implements store.Store in process. It backs the dev server
// (STORE_DRIVER=memory) and the coordinator tests.
package memory

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	ingredients   map[string]*model.Ingredient
	finishedGoods map[string]*model.FinishedGood
	recipes       map[string]*model.Recipe
	batches       map[string]*model.ProductionBatch
	movements     []model.StockMovement

	locks *rowLocks
}

func New() *Store {
	return &Store{
		ingredients:   make(map[string]*model.Ingredient),
		finishedGoods: make(map[string]*model.FinishedGood),
		recipes:       make(map[string]*model.Recipe),
		batches:       make(map[string]*model.ProductionBatch),
		movements:     make([]model.StockMovement, 0),
		locks:         newRowLocks(),
	}
}

// Inventory, Recipes and Ledger outside Execute run every call as its own
// single-statement transaction.
func (s *Store) Inventory() inventory.Repository { return autoInventory{s} }
func (s *Store) Recipes() recipe.Repository      { return autoRecipes{s} }
func (s *Store) Ledger() production.Repository   { return autoLedger{s} }

// Execute stages every write made through repos and applies them at once when
// fn succeeds. Row locks are held until Execute returns. The commit itself
// ignores ctx.
func (s *Store) Execute(ctx context.Context, fn func(repos store.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := newTx(s)
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) Close() error { return nil }

// commit validates cross-entity integrity against committed state and applies
// the staged writes. Either everything lands or nothing does.
func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIntegrity(t); err != nil {
		return err
	}

	for id := range t.deletedIngredients {
		delete(s.ingredients, id)
	}
	for id, ing := range t.ingredients {
		s.ingredients[id] = ing
	}
	for id, fg := range t.finishedGoods {
		s.finishedGoods[id] = fg
	}
	for id := range t.deletedRecipes {
		delete(s.recipes, id)
	}
	for id, rec := range t.recipes {
		s.recipes[id] = rec
	}
	for _, b := range t.batches {
		s.batches[b.ID] = b
	}
	s.movements = append(s.movements, t.movements...)

	return nil
}

// rowLocks hands out one exclusive lock per row key. A lock is a buffered
// channel of size one so waiting can observe ctx. Entries are counted by
// holders plus waiters and removed when the count drops to zero.
type rowLocks struct {
	mu   sync.Mutex
	rows map[string]*rowLock
}

type rowLock struct {
	ch   chan struct{}
	refs int
}

func newRowLocks() *rowLocks {
	return &rowLocks{rows: make(map[string]*rowLock)}
}

func (l *rowLocks) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	rl, ok := l.rows[key]
	if !ok {
		rl = &rowLock{ch: make(chan struct{}, 1)}
		l.rows[key] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, rl)
		return ctx.Err()
	}
}

func (l *rowLocks) release(key string) {
	l.mu.Lock()
	rl := l.rows[key]
	l.mu.Unlock()
	<-rl.ch
	l.unref(key, rl)
}

func (l *rowLocks) unref(key string, rl *rowLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.rows, key)
	}
}

func (l *rowLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}
