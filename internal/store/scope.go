// Package store defines the unit of work shared by the inventory, recipe and
// ledger repositories.
package store

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
)

// Repositories gives access to every repository. Inside TransactionScope.Execute
// they all share one transaction; outside it they read committed state.
type Repositories interface {
	Inventory() inventory.Repository
	Recipes() recipe.Repository
	Ledger() production.Repository
}

// TransactionScope runs fn atomically. If fn returns an error every write made
// through repos is rolled back and that error is returned unchanged. A failure
// of the commit itself is reported as *apperror.TransactionFailure.
//
// Row locks taken inside fn (Inventory().LockIngredients, TryDecrement,
// CreditFinishedGood, ...) are held until Execute returns. Lock ingredients in
// ascending id order before touching finished goods.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is a backing store: plain repositories plus the ability to open a unit of work.
type Store interface {
	Repositories
	TransactionScope
	Close() error
}
