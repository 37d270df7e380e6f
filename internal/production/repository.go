package production

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
)

// Repository is the production ledger. It is append-only: batches are never
// updated or deleted once written.
type Repository interface {
	AppendBatch(ctx context.Context, batch *model.ProductionBatch) error
	FindBatchByID(ctx context.Context, id string) (*model.ProductionBatch, error)
	FindBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.ProductionBatch, int, error)
}

// EventPublisher announces committed batches to the outside world.
type EventPublisher interface {
	PublishBatchCompleted(ctx context.Context, batch *model.ProductionBatch) error
}
