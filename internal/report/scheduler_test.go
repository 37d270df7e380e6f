package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

type sink struct {
	got []*model.ProductionSummary
	err error
}

func (s *sink) SaveSummary(_ context.Context, summary *model.ProductionSummary) error {
	s.got = append(s.got, summary)
	return s.err
}

func (s *sink) Notify(_ context.Context, summary *model.ProductionSummary) error {
	s.got = append(s.got, summary)
	return s.err
}

func TestScheduler_RunOnce(t *testing.T) {
	svc := NewService(seedStore(t), time.UTC, logger.Nop())

	t.Run("delivers to every sink", func(t *testing.T) {
		archive, notifier := &sink{}, &sink{}
		s := NewScheduler("0 20 * * *", time.UTC, svc, archive, notifier, logger.Nop())

		require.NoError(t, s.RunOnce(context.Background(), day))
		require.Len(t, archive.got, 1)
		require.Len(t, notifier.got, 1)
		assert.Equal(t, 3, notifier.got[0].BatchCount)
	})

	t.Run("archive failure does not skip the webhook", func(t *testing.T) {
		archive, notifier := &sink{err: errors.New("mongo down")}, &sink{}
		s := NewScheduler("0 20 * * *", time.UTC, svc, archive, notifier, logger.Nop())

		err := s.RunOnce(context.Background(), day)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mongo down")
		assert.Len(t, notifier.got, 1)
	})

	t.Run("sinks are optional", func(t *testing.T) {
		s := NewScheduler("0 20 * * *", time.UTC, svc, nil, nil, logger.Nop())
		assert.NoError(t, s.RunOnce(context.Background(), day))
	})
}

func TestScheduler_Start(t *testing.T) {
	svc := NewService(seedStore(t), time.UTC, logger.Nop())

	bad := NewScheduler("every tuesday", time.UTC, svc, nil, nil, logger.Nop())
	assert.Error(t, bad.Start())

	good := NewScheduler("0 20 * * *", time.UTC, svc, nil, nil, logger.Nop())
	require.NoError(t, good.Start())
	good.Stop()
}
