// Package postgres implements store.Store on a *sqlx.DB.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	pgdb "github.com/fekuna/omnipos-production-service/internal/database/postgres"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	invrepo "github.com/fekuna/omnipos-production-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/production"
	prodrepo "github.com/fekuna/omnipos-production-service/internal/production/repository"
	"github.com/fekuna/omnipos-production-service/internal/recipe"
	reciperepo "github.com/fekuna/omnipos-production-service/internal/recipe/repository"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

var _ store.Store = (*Store)(nil)

const retryBackoff = 20 * time.Millisecond

// repos binds the three repositories to one executor, either the pool or a tx.
type repos struct {
	inventory *invrepo.PGRepository
	recipes   *reciperepo.PGRepository
	ledger    *prodrepo.PGRepository
}

func newRepos(db sqlx.ExtContext) *repos {
	return &repos{
		inventory: invrepo.NewPGRepository(db),
		recipes:   reciperepo.NewPGRepository(db),
		ledger:    prodrepo.NewPGRepository(db),
	}
}

func (r *repos) Inventory() inventory.Repository { return r.inventory }
func (r *repos) Recipes() recipe.Repository      { return r.recipes }
func (r *repos) Ledger() production.Repository   { return r.ledger }

type Store struct {
	*repos
	db         *sqlx.DB
	maxRetries int
	logger     logger.ZapLogger
}

// New returns a store whose Execute retries serialization failures and
// deadlocks up to maxRetries times.
func New(db *sqlx.DB, maxRetries int, log logger.ZapLogger) *Store {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Store{
		repos:      newRepos(db),
		db:         db,
		maxRetries: maxRetries,
		logger:     log,
	}
}

func (s *Store) Execute(ctx context.Context, fn func(repos store.Repositories) error) error {
	for attempt := 0; ; attempt++ {
		err := s.executeOnce(ctx, fn)
		if err == nil || !pgdb.IsConflict(err) {
			return err
		}

		if attempt >= s.maxRetries || ctx.Err() != nil {
			return &apperror.TransactionFailure{Op: "execute", Err: err}
		}

		s.logger.Warn("Retrying transaction after conflict",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return &apperror.TransactionFailure{Op: "execute", Err: ctx.Err()}
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}
}

func (s *Store) executeOnce(ctx context.Context, fn func(repos store.Repositories) error) error {
	// The tx outlives cancellation of ctx so a cancelled caller can never
	// leave a half-committed transaction behind. Statements still use ctx.
	tx, err := s.db.BeginTxx(context.WithoutCancel(ctx), &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return &apperror.TransactionFailure{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &apperror.TransactionFailure{Op: "commit", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
