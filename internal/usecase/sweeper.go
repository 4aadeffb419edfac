package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically expires reservations whose hold window elapsed,
// releasing their seats back to the ledger. It keeps no state between ticks,
// so restarts and concurrent instances are safe: the guarded transition lets
// at most one instance perform each release.
type Sweeper struct {
	service   ReservationService
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewSweeper(service ReservationService, interval time.Duration, batchSize int, log *zap.Logger) *Sweeper {
	return &Sweeper{
		service:   service,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With(zap.String("component", "sweeper")),
	}
}

// Start launches the sweep loop. It returns immediately; the loop stops when
// ctx is cancelled. A failed tick is only logged, the next tick runs on
// schedule regardless.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.log.Info("Expiry sweeper started",
			zap.Duration("interval", s.interval),
			zap.Int("batch_size", s.batchSize),
		)

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Expiry sweeper stopped")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Tick runs one sweep cycle.
func (s *Sweeper) Tick(ctx context.Context) {
	start := time.Now()

	expired, err := s.service.SweepExpired(ctx, start, s.batchSize)
	if err != nil {
		s.log.Error("Sweep tick failed", zap.Error(err))
		return
	}

	if expired > 0 {
		s.log.Info("Sweep tick finished",
			zap.Int("expired", expired),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
