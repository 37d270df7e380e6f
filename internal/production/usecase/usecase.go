package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/costing"
	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/metrics"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/production/dto"
	"github.com/fekuna/omnipos-production-service/internal/store"
)

// Phase is a step of a production run.
type Phase string

const (
	PhaseValidating Phase = "validating"
	PhasePricing    Phase = "pricing"
	PhaseReserving  Phase = "reserving"
	PhaseCommitting Phase = "committing"
	PhaseCommitted  Phase = "committed"
	PhaseAborted    Phase = "aborted"
)

const publishTimeout = 5 * time.Second

type productionUseCase struct {
	store     store.Store
	publisher production.EventPublisher
	metrics   *metrics.Production
	txTimeout time.Duration
	logger    logger.ZapLogger
}

// NewProductionUseCase builds the coordinator. publisher and m may be nil.
func NewProductionUseCase(s store.Store, publisher production.EventPublisher, m *metrics.Production, txTimeout time.Duration, log logger.ZapLogger) production.UseCase {
	return &productionUseCase{
		store:     s,
		publisher: publisher,
		metrics:   m,
		txTimeout: txTimeout,
		logger:    log,
	}
}

// run tracks the phase of one Produce call.
type run struct {
	phase  Phase
	logger logger.ZapLogger
}

func (r *run) enter(ctx context.Context, next Phase) error {
	// Cancellation is honoured up to the commit phase only.
	if next != PhaseCommitting {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	r.logger.Debug("Production phase", zap.String("from", string(r.phase)), zap.String("to", string(next)))
	r.phase = next
	return nil
}

// plannedLine is one ingredient requirement priced at its locked unit cost.
type plannedLine struct {
	ingredient *model.Ingredient
	required   decimal.Decimal
	cost       decimal.Decimal
}

func (uc *productionUseCase) Produce(ctx context.Context, input *dto.ProduceInput) (*dto.ProduceResult, error) {
	start := time.Now()
	batchID := uuid.New().String()
	r := &run{
		phase: PhaseValidating,
		logger: uc.logger.With(
			zap.String("batch_id", batchID),
			zap.String("recipe_id", input.RecipeID),
			zap.String("batch_multiplier", input.BatchMultiplier.String()),
		),
	}

	batch, err := uc.produce(ctx, r, batchID, input)
	if err != nil {
		failedIn := r.phase
		r.phase = PhaseAborted
		outcome := string(apperror.KindOf(err))
		uc.metrics.ObserveRun(outcome, time.Since(start))
		r.logger.Warn("Production aborted",
			zap.String("phase", string(failedIn)),
			zap.String("kind", outcome),
			zap.Error(err),
		)
		return nil, err
	}

	r.phase = PhaseCommitted
	uc.metrics.ObserveRun(string(PhaseCommitted), time.Since(start))
	uc.metrics.AddProduced(batch.ProductID, batch.ProducedQuantity.InexactFloat64())
	r.logger.Info("Production committed",
		zap.String("product_id", batch.ProductID),
		zap.String("produced_quantity", batch.ProducedQuantity.String()),
		zap.String("total_cost", batch.TotalCost.String()),
		zap.Duration("elapsed", time.Since(start)),
	)

	uc.publish(ctx, batch)

	return &dto.ProduceResult{
		BatchID:          batch.ID,
		ProducedQuantity: batch.ProducedQuantity,
		TotalCost:        batch.TotalCost,
		CostPerUnit:      batch.CostPerUnit,
	}, nil
}

func (uc *productionUseCase) produce(ctx context.Context, r *run, batchID string, input *dto.ProduceInput) (*model.ProductionBatch, error) {
	if input.RecipeID == "" {
		return nil, apperror.Invalid("recipe_id", "is required")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	var batch *model.ProductionBatch
	err := uc.store.Execute(ctx, func(repos store.Repositories) error {
		// A retried unit of work starts over from the first phase.
		r.phase = PhaseValidating

		rec, err := repos.Recipes().LockRecipe(ctx, input.RecipeID)
		if err != nil {
			return err
		}
		if !input.BatchMultiplier.IsPositive() {
			return costing.ErrInvalidBatchSize
		}
		if len(rec.Ingredients) == 0 {
			return apperror.Invalid("ingredients", "recipe has no ingredients")
		}
		if !rec.YieldQuantity.IsPositive() {
			return costing.ErrInvalidYield
		}

		if err := r.enter(ctx, PhasePricing); err != nil {
			return err
		}
		plan, totalCost, err := price(ctx, repos, rec, input.BatchMultiplier)
		if err != nil {
			return err
		}

		if err := r.enter(ctx, PhaseReserving); err != nil {
			return err
		}
		for _, line := range plan {
			if line.ingredient.QuantityOnHand.LessThan(line.required) {
				return &apperror.InsufficientStockError{
					Item:      string(model.ItemTypeIngredient),
					ID:        line.ingredient.ID,
					Requested: line.required,
					Available: line.ingredient.QuantityOnHand,
				}
			}
		}

		if err := r.enter(ctx, PhaseCommitting); err != nil {
			return err
		}
		batch, err = commit(context.WithoutCancel(ctx), repos, rec, plan, totalCost, batchID, input)
		return err
	})
	if err != nil {
		if apperror.IsDomain(err) {
			return nil, err
		}
		return nil, &apperror.TransactionFailure{Op: "produce", Err: err}
	}
	return batch, nil
}

// price locks every ingredient of rec in ascending id order and prices the
// scaled requirement of each line in recipe order.
func price(ctx context.Context, repos store.Repositories, rec *model.Recipe, multiplier decimal.Decimal) ([]plannedLine, decimal.Decimal, error) {
	locked, err := repos.Inventory().LockIngredients(ctx, rec.IngredientIDs())
	if err != nil {
		return nil, decimal.Zero, err
	}

	plan := make([]plannedLine, 0, len(rec.Ingredients))
	costLines := make([]costing.Line, 0, len(rec.Ingredients))
	for _, ri := range rec.Ingredients {
		ing, ok := locked[ri.IngredientID]
		if !ok {
			return nil, decimal.Zero, apperror.NotFound("ingredient", ri.IngredientID)
		}
		required := ri.QuantityPerYield.Mul(multiplier)
		plan = append(plan, plannedLine{
			ingredient: ing,
			required:   required,
			cost:       costing.IngredientCost(required, ing.UnitCost),
		})
		costLines = append(costLines, costing.Line{Quantity: required, UnitPrice: ing.UnitCost})
	}
	return plan, costing.RecipeCost(costLines), nil
}

// commit applies every write of the run. ctx must not be cancellable.
func commit(ctx context.Context, repos store.Repositories, rec *model.Recipe, plan []plannedLine, totalCost decimal.Decimal, batchID string, input *dto.ProduceInput) (*model.ProductionBatch, error) {
	now := time.Now().UTC()
	inv := repos.Inventory()

	lines := make([]model.ProductionBatchLine, 0, len(plan))
	for _, line := range plan {
		after, err := inv.TryDecrement(ctx, line.ingredient.ID, line.required)
		if err != nil {
			return nil, err
		}
		err = inv.LogMovement(ctx, inventory.NewMovement(inventory.Movement{
			ItemType:      model.ItemTypeIngredient,
			ItemID:        line.ingredient.ID,
			Type:          model.MovementProductionConsume,
			Before:        line.ingredient.QuantityOnHand,
			After:         after.QuantityOnHand,
			ReferenceType: "production",
			ReferenceID:   batchID,
			UserID:        input.UserID,
			At:            now,
		}))
		if err != nil {
			return nil, err
		}
		lines = append(lines, model.ProductionBatchLine{
			BatchID:      batchID,
			IngredientID: line.ingredient.ID,
			Quantity:     line.required,
			UnitCost:     line.ingredient.UnitCost,
			Cost:         line.cost,
		})
	}

	produced := rec.YieldQuantity.Mul(input.BatchMultiplier)
	costPerUnit, err := costing.CostPerUnit(totalCost, produced)
	if err != nil {
		return nil, err
	}

	fg, err := inv.CreditFinishedGood(ctx, &inventory.Credit{
		FinishedGoodID: rec.ProductID,
		Name:           rec.Name,
		Unit:           rec.YieldUnit,
		Quantity:       produced,
		CostPerUnit:    costPerUnit,
	})
	if err != nil {
		return nil, err
	}
	err = inv.LogMovement(ctx, inventory.NewMovement(inventory.Movement{
		ItemType:      model.ItemTypeFinishedGood,
		ItemID:        fg.ID,
		Type:          model.MovementProductionOutput,
		Before:        fg.QuantityOnHand.Sub(produced),
		After:         fg.QuantityOnHand,
		ReferenceType: "production",
		ReferenceID:   batchID,
		UserID:        input.UserID,
		At:            now,
	}))
	if err != nil {
		return nil, err
	}

	var createdBy *string
	if input.UserID != "" {
		createdBy = &input.UserID
	}
	batch := &model.ProductionBatch{
		ID:               batchID,
		RecipeID:         rec.ID,
		ProductID:        rec.ProductID,
		BatchMultiplier:  input.BatchMultiplier,
		ProducedQuantity: produced,
		TotalCost:        totalCost,
		CostPerUnit:      costPerUnit,
		Notes:            input.Notes,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		Lines:            lines,
	}
	if err := repos.Ledger().AppendBatch(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// publish announces a committed batch. Failures are logged and never undo the run.
func (uc *productionUseCase) publish(ctx context.Context, batch *model.ProductionBatch) {
	if uc.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := uc.publisher.PublishBatchCompleted(ctx, batch); err != nil {
		uc.logger.Error("Failed to publish production event", zap.String("batch_id", batch.ID), zap.Error(err))
	}
}

// PreviewCost prices a run from committed state without locking or writing.
func (uc *productionUseCase) PreviewCost(ctx context.Context, input *dto.ProduceInput) (*dto.CostPreview, error) {
	rec, err := uc.store.Recipes().FindByID(ctx, input.RecipeID)
	if err != nil {
		return nil, err
	}
	if !input.BatchMultiplier.IsPositive() {
		return nil, costing.ErrInvalidBatchSize
	}

	out := &dto.CostPreview{
		RecipeID:         rec.ID,
		BatchMultiplier:  input.BatchMultiplier,
		ProducedQuantity: rec.YieldQuantity.Mul(input.BatchMultiplier),
		CanProduce:       len(rec.Ingredients) > 0,
		Lines:            make([]dto.PreviewLine, 0, len(rec.Ingredients)),
	}

	costLines := make([]costing.Line, 0, len(rec.Ingredients))
	for _, ri := range rec.Ingredients {
		ing, err := uc.store.Inventory().GetIngredient(ctx, ri.IngredientID)
		if err != nil {
			return nil, err
		}
		required := ri.QuantityPerYield.Mul(input.BatchMultiplier)
		sufficient := ing.QuantityOnHand.GreaterThanOrEqual(required)
		out.CanProduce = out.CanProduce && sufficient

		costLines = append(costLines, costing.Line{Quantity: required, UnitPrice: ing.UnitCost})
		out.Lines = append(out.Lines, dto.PreviewLine{
			IngredientID: ri.IngredientID,
			Required:     required,
			Available:    ing.QuantityOnHand,
			UnitCost:     ing.UnitCost,
			Cost:         costing.IngredientCost(required, ing.UnitCost),
			Sufficient:   sufficient,
		})
	}

	out.TotalCost = costing.RecipeCost(costLines)
	out.CostPerUnit, err = costing.CostPerUnit(out.TotalCost, out.ProducedQuantity)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *productionUseCase) GetBatch(ctx context.Context, id string) (*model.ProductionBatch, error) {
	return uc.store.Ledger().FindBatchByID(ctx, id)
}

func (uc *productionUseCase) ListBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.ProductionBatch, int, error) {
	return uc.store.Ledger().FindBatches(ctx, filters)
}
