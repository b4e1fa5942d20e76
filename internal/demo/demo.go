// Package demo is the Lab 1 agent: a one-shot greeting followed by a short
// periodic heartbeat, after which the agent stops itself.
package demo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mr1hm/disaster-response-agents/internal/agent"
)

const (
	DefaultInterval   = 2 * time.Second
	DefaultIterations = 5
)

type Options struct {
	Interval   time.Duration
	Iterations int
	Now        func() time.Time
}

type Agent struct {
	name       string
	out        io.Writer
	interval   time.Duration
	iterations int
	now        func() time.Time
	lifecycle  agent.Lifecycle
}

func New(name string, out io.Writer, opts Options) *Agent {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Agent{
		name:       name,
		out:        out,
		interval:   opts.Interval,
		iterations: opts.Iterations,
		now:        opts.Now,
	}
}

func (a *Agent) State() agent.State { return a.lifecycle.State() }

// Start runs the agent to completion.
func (a *Agent) Start(ctx context.Context) error {
	if !a.lifecycle.Start() {
		return fmt.Errorf("agent %s: already %s", a.name, a.lifecycle.State())
	}
	slog.Info("agent starting", "agent", a.name)
	a.setup()

	err := agent.Sequence(ctx,
		agent.OneShot(a.hello),
		&agent.Periodic{
			Interval:      a.interval,
			MaxIterations: a.iterations,
			Tick:          a.heartbeat,
		},
	)

	fmt.Fprintf(a.out, "[%s] Demonstration complete. Stopping periodic behaviour.\n", a.clock())
	a.stop()
	return err
}

func (a *Agent) setup() {
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(a.out, "\n%s\nLAB 1: Basic Agent Setup (Simulation Mode)\nDisaster Response & Relief Coordination System\n%s\n", rule, rule)
	fmt.Fprintf(a.out, "\nAgent '%s' is starting...\n", a.name)
	fmt.Fprintf(a.out, "Timestamp: %s\n\n%s\n\n", a.now().Format("2006-01-02 15:04:05"), strings.Repeat("-", 70))
}

func (a *Agent) hello(ctx context.Context) error {
	fmt.Fprintf(a.out, "[%s] HelloBehaviour executing...\n", a.clock())
	fmt.Fprintf(a.out, "Hello! I am agent '%s' for disaster response coordination.\n", a.name)
	fmt.Fprintf(a.out, "Agent is now operational and ready for disaster response tasks.\n\n")
	return nil
}

func (a *Agent) heartbeat(ctx context.Context, i int) error {
	fmt.Fprintf(a.out, "[%s] Periodic check #%d/%d: Agent is alive and monitoring...\n", a.clock(), i, a.iterations)
	return nil
}

func (a *Agent) stop() {
	a.lifecycle.Stop()
	rule := strings.Repeat("=", 70)
	fmt.Fprintf(a.out, "\n%s\nAgent '%s' has stopped. Agent demonstration successfully completed!\n%s\n", rule, a.name, rule)
	slog.Info("agent stopped", "agent", a.name)
}

func (a *Agent) clock() string {
	return a.now().Format("15:04:05")
}
