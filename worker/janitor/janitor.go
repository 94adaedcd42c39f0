// Package janitor drops onboarding sessions that have gone idle, so
// abandoned flows do not keep status pollers alive forever.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/lumapay/onboard/core"
)

const propertySweptTotal = "janitor_swept_total"

// SessionSweeper discards sessions idle for longer than maxIdle and
// reports how many were dropped.
type SessionSweeper interface {
	Sweep(maxIdle time.Duration) int
}

type Config struct {
	SessionTTL time.Duration `valid:"required"`
	Interval   time.Duration `valid:"required"`
}

func New(
	sessions SessionSweeper,
	properties core.PropertyStore,
	logger *slog.Logger,
	cfg Config,
) *Janitor {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Janitor{
		sessions:   sessions,
		properties: properties,
		logger:     logger.With("worker", "janitor"),
		cfg:        cfg,
	}
}

type Janitor struct {
	sessions   SessionSweeper
	properties core.PropertyStore
	logger     *slog.Logger
	cfg        Config
}

func (w *Janitor) Run(ctx context.Context) error {
	w.logger.Info("janitor start", "ttl", w.cfg.SessionTTL)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
			_ = w.run(ctx)
		}
	}
}

func (w *Janitor) run(ctx context.Context) error {
	dropped := w.sessions.Sweep(w.cfg.SessionTTL)
	if dropped == 0 {
		return nil
	}

	w.logger.Info("idle sessions dropped", "count", dropped)

	var total int64
	if err := w.properties.Get(ctx, propertySweptTotal, &total); err != nil {
		w.logger.Error("properties.Get", "err", err)
		return err
	}

	if err := w.properties.Set(ctx, propertySweptTotal, total+int64(dropped)); err != nil {
		w.logger.Error("properties.Set", "err", err)
		return err
	}

	return nil
}
