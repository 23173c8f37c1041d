package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniboard/uniboard-api/pkg/jobs"
)

type expiredTokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// TokenMaintenance periodically sweeps expired refresh tokens out of the
// store. Expired rows are already unusable; the sweep only reclaims space.
type TokenMaintenance struct {
	purger   expiredTokenPurger
	queue    *jobs.Queue
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// NewTokenMaintenance constructs the sweeper. Purge work runs on a job queue
// so a slow delete never blocks the scheduler tick.
func NewTokenMaintenance(purger expiredTokenPurger, interval time.Duration, logger *zap.Logger) *TokenMaintenance {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &TokenMaintenance{purger: purger, interval: interval, logger: logger}
	m.queue = jobs.NewQueue("token-purge", m.handlePurge, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		Logger:     logger,
	})
	return m
}

// Start launches the queue workers and the scheduler tick.
func (m *TokenMaintenance) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "purge_expired_tokens"}); err != nil {
					m.logger.Warn("failed to enqueue token purge", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the scheduler and drains the queue.
func (m *TokenMaintenance) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.queue.Stop()
}

func (m *TokenMaintenance) handlePurge(ctx context.Context, job jobs.Job) error {
	purged, err := m.purger.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		m.logger.Info("purged expired refresh tokens", zap.Int64("count", purged))
	}
	return nil
}
