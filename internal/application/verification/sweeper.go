package verification

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes expired verification codes on a fixed interval until its context ends.
type Sweeper struct {
	svc      Service
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(svc Service, interval time.Duration, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{svc: svc, interval: interval, now: now}
}

func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		slog.Warn("verification code sweeper disabled", "interval", s.interval)
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs the outcome.
func (s *Sweeper) RunOnce(ctx context.Context) {
	n, err := s.svc.Sweep(ctx, s.now())
	if err != nil {
		slog.Error("verification code sweep failed", "deleted", n, "err", err)
		return
	}
	if n > 0 {
		slog.Info("swept expired verification codes", "deleted", n)
	}
}
