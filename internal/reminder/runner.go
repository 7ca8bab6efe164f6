package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Source lists the requests the runner should consider on each tick.
type Source interface {
	Pending(ctx context.Context) ([]Request, error)
}

// Runner polls a Source and hands due requests to a Deliverer, at most once
// per identifier per minute of the day.
type Runner struct {
	src      Source
	deliver  Deliverer
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	fired map[string]string // identifier -> minute stamp of last delivery
}

func NewRunner(src Source, d Deliverer, interval time.Duration, log zerolog.Logger) *Runner {
	return &Runner{
		src:      src,
		deliver:  d,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "runner").Logger(),
		fired:    map[string]string{},
	}
}

// Run ticks until ctx is done. Cancellation is a clean stop.
func (r *Runner) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("watching reminders")
	for {
		if _, err := r.Tick(ctx, r.now()); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			r.log.Warn().Err(err).Msg("tick failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Tick delivers every request due at now and returns how many were delivered.
func (r *Runner) Tick(ctx context.Context, now time.Time) (int, error) {
	pending, err := r.src.Pending(ctx)
	if err != nil {
		return 0, err
	}
	stamp := now.Format("2006-01-02T15:04")
	n := 0
	for _, req := range pending {
		if !req.Trigger.Due(now) || r.fired[req.Identifier] == stamp {
			continue
		}
		r.fired[req.Identifier] = stamp
		if err := r.deliver.Deliver(ctx, req, now); err != nil {
			r.log.Error().Err(err).Str("id", req.Identifier).Msg("delivery failed")
			continue
		}
		n++
	}
	return n, nil
}
