package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
	"github.com/fekuna/omnipos-production-service/internal/production"
)

const EventProductionCompleted = "ProductionCompleted"

// Producer is the part of broker.KafkaProducer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

type ProductionCompletedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   BatchPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type BatchPayload struct {
	BatchID          string               `json:"batch_id"`
	RecipeID         string               `json:"recipe_id"`
	ProductID        string               `json:"product_id"`
	BatchMultiplier  decimal.Decimal      `json:"batch_multiplier"`
	ProducedQuantity decimal.Decimal      `json:"produced_quantity"`
	TotalCost        decimal.Decimal      `json:"total_cost"`
	CostPerUnit      decimal.Decimal      `json:"cost_per_unit"`
	Consumed         []ConsumedIngredient `json:"consumed"`
}

type ConsumedIngredient struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type KafkaPublisher struct {
	producer Producer
	logger   logger.ZapLogger
}

func NewKafkaPublisher(p Producer, log logger.ZapLogger) production.EventPublisher {
	return &KafkaPublisher{producer: p, logger: log}
}

// PublishBatchCompleted keys the message by product so events for one
// finished good stay ordered.
func (p *KafkaPublisher) PublishBatchCompleted(ctx context.Context, b *model.ProductionBatch) error {
	event := ProductionCompletedEvent{
		EventID:   uuid.New().String(),
		EventType: EventProductionCompleted,
		Payload: BatchPayload{
			BatchID:          b.ID,
			RecipeID:         b.RecipeID,
			ProductID:        b.ProductID,
			BatchMultiplier:  b.BatchMultiplier,
			ProducedQuantity: b.ProducedQuantity,
			TotalCost:        b.TotalCost,
			CostPerUnit:      b.CostPerUnit,
			Consumed:         make([]ConsumedIngredient, 0, len(b.Lines)),
		},
		Timestamp: b.CreatedAt,
	}
	for _, l := range b.Lines {
		event.Payload.Consumed = append(event.Payload.Consumed, ConsumedIngredient{
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
		})
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, []byte(b.ProductID), value); err != nil {
		return err
	}

	p.logger.Debug("Published production event", zap.String("batch_id", b.ID), zap.String("event_id", event.EventID))
	return nil
}

// Noop drops every event. Used when no Kafka brokers are configured.
type Noop struct{}

func (Noop) PublishBatchCompleted(context.Context, *model.ProductionBatch) error { return nil }
