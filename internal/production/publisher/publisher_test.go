package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

type captureProducer struct {
	key, value []byte
}

func (c *captureProducer) Publish(_ context.Context, key, value []byte) error {
	c.key, c.value = key, value
	return nil
}

func TestKafkaPublisher_PublishBatchCompleted(t *testing.T) {
	prod := &captureProducer{}
	pub := NewKafkaPublisher(prod, logger.Nop())

	batch := &model.ProductionBatch{
		ID:               "b1",
		RecipeID:         "r1",
		ProductID:        "bread",
		BatchMultiplier:  decimal.NewFromInt(5),
		ProducedQuantity: decimal.NewFromInt(50),
		TotalCost:        decimal.RequireFromString("135"),
		CostPerUnit:      decimal.RequireFromString("2.7"),
		CreatedAt:        time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Lines: []model.ProductionBatchLine{
			{IngredientID: "flour", Quantity: decimal.NewFromInt(10)},
		},
	}
	require.NoError(t, pub.PublishBatchCompleted(context.Background(), batch))

	assert.Equal(t, "bread", string(prod.key))

	var event ProductionCompletedEvent
	require.NoError(t, json.Unmarshal(prod.value, &event))
	assert.Equal(t, EventProductionCompleted, event.EventType)
	assert.Equal(t, "b1", event.Payload.BatchID)
	assert.True(t, event.Payload.TotalCost.Equal(decimal.NewFromInt(135)))
	require.Len(t, event.Payload.Consumed, 1)
	assert.Equal(t, "flour", event.Payload.Consumed[0].IngredientID)
}
