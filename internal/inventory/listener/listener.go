package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/logger"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventPurchaseReceived = "PurchaseReceived"
)

// MessageReader is the part of broker.KafkaConsumer the listener needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type InventoryListener struct {
	consumer MessageReader
	uc       inventory.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewInventoryListener(consumer MessageReader, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Inventory Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type OrderPayload struct {
	ID    string             `json:"id"`
	Items []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type PurchasePayload struct {
	ID    string                `json:"id"`
	Items []PurchaseItemPayload `json:"items"`
}

type PurchaseItemPayload struct {
	IngredientID string           `json:"ingredient_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitCost     *decimal.Decimal `json:"unit_cost"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event envelope
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	switch event.EventType {
	case EventOrderCreated:
		var payload OrderPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			l.logger.Error("Failed to unmarshal order payload", zap.String("event_id", event.EventID), zap.Error(err))
			return
		}
		l.handleOrder(ctx, &payload)
	case EventPurchaseReceived:
		var payload PurchasePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			l.logger.Error("Failed to unmarshal purchase payload", zap.String("event_id", event.EventID), zap.Error(err))
			return
		}
		l.handlePurchase(ctx, &payload)
	}
}

// handleOrder sells each ordered finished good. Items fail independently.
func (l *InventoryListener) handleOrder(ctx context.Context, order *OrderPayload) {
	l.logger.Info("Processing OrderCreated event", zap.String("order_id", order.ID))

	for _, item := range order.Items {
		_, err := l.uc.SellFinishedGood(ctx, &dto.SellInput{
			FinishedGoodID: item.ProductID,
			Quantity:       item.Quantity,
			ReferenceID:    order.ID,
			ReferenceType:  "sale",
			Notes:          "Order Sale",
			UserID:         "system",
		})
		if err != nil {
			l.logger.Error("Failed to sell finished good for order item",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}
}

func (l *InventoryListener) handlePurchase(ctx context.Context, purchase *PurchasePayload) {
	l.logger.Info("Processing PurchaseReceived event", zap.String("purchase_id", purchase.ID))

	for _, item := range purchase.Items {
		_, err := l.uc.Restock(ctx, &dto.RestockInput{
			IngredientID:  item.IngredientID,
			Quantity:      item.Quantity,
			UnitCost:      item.UnitCost,
			ReferenceID:   purchase.ID,
			ReferenceType: "purchase",
			Notes:         "Purchase Received",
			UserID:        "system",
		})
		if err != nil {
			l.logger.Error("Failed to restock ingredient for purchase item",
				zap.String("purchase_id", purchase.ID),
				zap.String("ingredient_id", item.IngredientID),
				zap.Error(err),
			)
		}
	}
}
