// Package simulation wires the environment, the sensor agents and the alert
// dispatcher into one timed run.
package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/disaster-response-agents/internal/config"
	"github.com/mr1hm/disaster-response-agents/internal/dispatch"
	"github.com/mr1hm/disaster-response-agents/internal/environment"
	"github.com/mr1hm/disaster-response-agents/internal/sensor"
)

// NewRand returns a seeded source; seed 0 seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

func SensorID(n int) string {
	return fmt.Sprintf("SENSOR-%03d", n)
}

type Runner struct {
	cfg        *config.Config
	env        *environment.Environment
	dispatcher *dispatch.Dispatcher
	sensors    []*sensor.Sensor
	wg         sync.WaitGroup
}

// NewRunner creates one sensor per configured slot, assigned to the
// environment's locations in order (wrapping if there are more sensors).
func NewRunner(cfg *config.Config, env *environment.Environment, dispatcher *dispatch.Dispatcher, console io.Writer) (*Runner, error) {
	r := &Runner{
		cfg:        cfg,
		env:        env,
		dispatcher: dispatcher,
	}

	locations := env.Locations()
	for i := 1; i <= cfg.Simulation.SensorCount; i++ {
		opts := sensor.Options{
			ID:                 SensorID(i),
			Location:           locations[(i-1)%len(locations)],
			Environment:        env,
			LogDir:             cfg.Logging.Dir,
			Thresholds:         sensor.ThresholdsFromConfig(cfg.Thresholds),
			AdvanceEnvironment: cfg.Simulation.TickInterval == 0,
			Console:            console,
		}
		if dispatcher != nil {
			opts.Publisher = dispatcher
		}

		s, err := sensor.New(opts)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", opts.ID, err)
		}
		r.sensors = append(r.sensors, s)
	}
	return r, nil
}

func (r *Runner) Sensors() []*sensor.Sensor {
	return r.sensors
}

// Run blocks until every sensor finishes its run (or the first one fails)
// and all alerts have been dispatched.
func (r *Runner) Run(ctx context.Context) error {
	sim := r.cfg.Simulation

	if r.dispatcher != nil {
		// alerts raised before cancellation are still stored; Stop ends the pool
		r.dispatcher.Start(context.WithoutCancel(ctx))
	}

	envCtx, stopEnv := context.WithCancel(ctx)
	if sim.TickInterval > 0 {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.env.Run(envCtx, sim.TickInterval)
		}()
	}

	slog.Info("simulation starting",
		"sensors", len(r.sensors),
		"duration", sim.Duration,
		"interval", sim.Interval,
		"generation_probability", sim.GenerationProbability,
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range r.sensors {
		g.Go(func() error {
			return s.Run(gctx, sim.Duration, sim.Interval)
		})
	}
	err := g.Wait()

	stopEnv()
	r.wg.Wait()

	if r.dispatcher != nil {
		r.dispatcher.Stop()
	}

	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	slog.Info("simulation complete")
	return nil
}

func (r *Runner) Summaries() string {
	var b strings.Builder
	for _, s := range r.sensors {
		b.WriteString(s.Summary())
	}
	return b.String()
}
