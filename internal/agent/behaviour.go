// Package agent provides the scheduling primitives agents are built from:
// one-shot and periodic behaviours with context cancellation, and a small
// lifecycle state holder.
package agent

import (
	"context"
	"time"
)

type Behaviour interface {
	Run(ctx context.Context) error
}

// OneShot runs its function exactly once.
type OneShot func(ctx context.Context) error

func (f OneShot) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	return f(ctx)
}

// Periodic calls Tick immediately and then once per Interval until
// MaxIterations ticks have run, Duration has elapsed, or ctx is cancelled.
// A zero MaxIterations or Duration means no limit on that axis.
type Periodic struct {
	Interval      time.Duration
	MaxIterations int
	Duration      time.Duration
	Tick          func(ctx context.Context, iteration int) error
}

func (p *Periodic) Run(ctx context.Context) error {
	var deadline <-chan time.Time
	if p.Duration > 0 {
		timer := time.NewTimer(p.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for i := 1; ; i++ {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.Tick(ctx, i); err != nil {
			return err
		}
		if p.MaxIterations > 0 && i >= p.MaxIterations {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return nil
		case <-ticker.C:
		}
	}
}

// Sequence runs behaviours one after another, stopping at the first error.
func Sequence(ctx context.Context, behaviours ...Behaviour) error {
	for _, b := range behaviours {
		if err := b.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}
