// Package report builds the daily production summary and ships it to the
// archive and the webhook.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	invdto "github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

const scanPageSize = 100

// Archive persists summaries. Saving the same day twice replaces the first one.
type Archive interface {
	SaveSummary(ctx context.Context, summary *model.ProductionSummary) error
}

type Notifier interface {
	Notify(ctx context.Context, summary *model.ProductionSummary) error
}

// Service aggregates committed batches. It only reads, so it never opens a
// transaction scope.
type Service struct {
	repos  store.Repositories
	loc    *time.Location
	logger logger.ZapLogger
}

func NewService(repos store.Repositories, loc *time.Location, log logger.ZapLogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repos: repos, loc: loc, logger: log}
}

// DailySummary covers the calendar day containing day, in the service timezone.
func (s *Service) DailySummary(ctx context.Context, day time.Time) (*model.ProductionSummary, error) {
	local := day.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	summary := &model.ProductionSummary{
		Date:              from,
		ProducedByProduct: map[string]string{},
		LowStock:          []model.LowStockEntry{},
		CreatedAt:         time.Now().UTC(),
	}

	totalCost := decimal.Zero
	produced := map[string]decimal.Decimal{}
	for page := 1; ; page++ {
		batches, total, err := s.repos.Ledger().FindBatches(ctx, &dto.BatchFilters{
			From:     &from,
			To:       &to,
			Page:     page,
			PageSize: scanPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("load batches: %w", err)
		}
		for _, b := range batches {
			summary.BatchCount++
			totalCost = totalCost.Add(b.TotalCost)
			produced[b.ProductID] = produced[b.ProductID].Add(b.ProducedQuantity)
		}
		if len(batches) == 0 || page*scanPageSize >= total {
			break
		}
	}
	summary.TotalCost = totalCost.StringFixed(2)
	for id, qty := range produced {
		summary.ProducedByProduct[id] = qty.String()
	}

	for page := 1; ; page++ {
		items, total, err := s.repos.Inventory().ListIngredients(ctx, &invdto.IngredientFilters{
			LowStock: true,
			Page:     page,
			PageSize: scanPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("load low stock: %w", err)
		}
		for _, ing := range items {
			summary.LowStock = append(summary.LowStock, model.LowStockEntry{
				IngredientID:   ing.ID,
				Name:           ing.Name,
				QuantityOnHand: ing.QuantityOnHand.String(),
				ReorderPoint:   ing.ReorderPoint.String(),
			})
		}
		if len(items) == 0 || page*scanPageSize >= total {
			break
		}
	}

	s.logger.Debug("Built production summary",
		zap.Time("date", from),
		zap.Int("batches", summary.BatchCount),
		zap.Int("low_stock", len(summary.LowStock)),
	)
	return summary, nil
}
