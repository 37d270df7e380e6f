package memory

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
)

func (t *tx) AppendBatch(_ context.Context, b *model.ProductionBatch) error {
	if _, exists := t.batch(b.ID); exists {
		return &apperror.ConflictError{Entity: "production batch", ID: b.ID, Reason: "already recorded"}
	}
	for i := range b.Lines {
		b.Lines[i].BatchID = b.ID
	}
	t.batches = append(t.batches, cloneBatch(b))
	return nil
}

func (t *tx) FindBatchByID(_ context.Context, id string) (*model.ProductionBatch, error) {
	b, ok := t.batch(id)
	if !ok {
		return nil, apperror.NotFound("production batch", id)
	}
	return b, nil
}

// FindBatches lists headers newest first, without lines.
func (t *tx) FindBatches(_ context.Context, f *dto.BatchFilters) ([]model.ProductionBatch, int, error) {
	t.s.mu.RLock()
	all := make([]model.ProductionBatch, 0, len(t.s.batches)+len(t.batches))
	for _, b := range t.s.batches {
		all = append(all, *b)
	}
	t.s.mu.RUnlock()
	for _, b := range t.batches {
		all = append(all, *b)
	}

	items := make([]model.ProductionBatch, 0)
	for _, b := range all {
		if f.RecipeID != "" && b.RecipeID != f.RecipeID {
			continue
		}
		if f.ProductID != "" && b.ProductID != f.ProductID {
			continue
		}
		if f.From != nil && b.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !b.CreatedAt.Before(*f.To) {
			continue
		}
		b.Lines = nil
		items = append(items, b)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	return paginate(items, f.Page, f.PageSize), len(items), nil
}

func (t *tx) batch(id string) (*model.ProductionBatch, bool) {
	for _, b := range t.batches {
		if b.ID == id {
			return cloneBatch(b), true
		}
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if b, ok := t.s.batches[id]; ok {
		return cloneBatch(b), true
	}
	return nil, false
}

func cloneBatch(b *model.ProductionBatch) *model.ProductionBatch {
	c := *b
	c.Lines = append([]model.ProductionBatchLine(nil), b.Lines...)
	return &c
}
