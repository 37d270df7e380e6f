package listener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/inventory"
	"github.com/fekuna/omnipos-production-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

// scriptedReader replays messages, then blocks until ctx is done.
type scriptedReader struct {
	msgs []kafka.Message
	errs []error
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

type stubUseCase struct {
	inventory.UseCase
	sells    []*dto.SellInput
	restocks []*dto.RestockInput
	done     chan struct{}
	want     int
}

func (s *stubUseCase) record() {
	if len(s.sells)+len(s.restocks) == s.want {
		close(s.done)
	}
}

func (s *stubUseCase) SellFinishedGood(_ context.Context, in *dto.SellInput) (*model.FinishedGood, error) {
	s.sells = append(s.sells, in)
	s.record()
	if in.FinishedGoodID == "sold-out" {
		return nil, errors.New("insufficient stock")
	}
	return &model.FinishedGood{ID: in.FinishedGoodID}, nil
}

func (s *stubUseCase) Restock(_ context.Context, in *dto.RestockInput) (*model.Ingredient, error) {
	s.restocks = append(s.restocks, in)
	s.record()
	return &model.Ingredient{ID: in.IngredientID}, nil
}

func TestInventoryListener_Start(t *testing.T) {
	reader := &scriptedReader{
		errs: []error{errors.New("broker hiccup")},
		msgs: []kafka.Message{
			{Value: []byte(`not json`)},
			{Value: []byte(`{"event_type":"OrderCreated","payload":{"id":"o1","items":[
				{"product_id":"sold-out","quantity":"1"},
				{"product_id":"bread","quantity":"2"}]}}`)},
			{Value: []byte(`{"event_type":"SomethingElse","payload":{}}`)},
			{Value: []byte(`{"event_type":"PurchaseReceived","payload":{"id":"po1","items":[
				{"ingredient_id":"flour","quantity":"25","unit_cost":"1.20"}]}}`)},
		},
	}
	uc := &stubUseCase{done: make(chan struct{}), want: 3}
	l := NewInventoryListener(reader, uc, logger.Nop())
	l.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(stopped)
	}()

	select {
	case <-uc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not process events")
	}
	cancel()
	<-stopped

	require.Len(t, uc.sells, 2)
	assert.Equal(t, "bread", uc.sells[1].FinishedGoodID)
	assert.Equal(t, "o1", uc.sells[1].ReferenceID)
	assert.True(t, uc.sells[1].Quantity.Equal(decimal.NewFromInt(2)))

	require.Len(t, uc.restocks, 1)
	assert.Equal(t, "purchase", uc.restocks[0].ReferenceType)
	require.NotNil(t, uc.restocks[0].UnitCost)
	assert.True(t, uc.restocks[0].UnitCost.Equal(decimal.RequireFromString("1.20")))
}
