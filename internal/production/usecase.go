package production

import (
	"context"

	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
)

type UseCase interface {
	// Produce runs one recipe batch as a single atomic unit.
	Produce(ctx context.Context, input *dto.ProduceInput) (*dto.ProduceResult, error)
	// PreviewCost prices a batch at current stock without locking or writing anything.
	PreviewCost(ctx context.Context, input *dto.ProduceInput) (*dto.CostPreview, error)
	GetBatch(ctx context.Context, id string) (*model.ProductionBatch, error)
	ListBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.ProductionBatch, int, error)
}
