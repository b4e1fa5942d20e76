// Package dispatch collects the alerts raised by sensor agents, records them
// in the alert store and fans them out to live subscribers.
package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mr1hm/disaster-response-agents/internal/broadcast"
	"github.com/mr1hm/disaster-response-agents/internal/config"
	"github.com/mr1hm/disaster-response-agents/internal/models"
	"github.com/mr1hm/disaster-response-agents/internal/repository"
	"github.com/mr1hm/disaster-response-agents/internal/worker"
)

type Dispatcher struct {
	cfg         config.WorkerConfig
	repo        repository.AlertRepository
	broadcaster *broadcast.Broadcaster
	pool        *worker.Pool[*models.Alert]
	stored      atomic.Int64
	dropped     atomic.Int64
}

func NewDispatcher(cfg config.WorkerConfig, repo repository.AlertRepository, broadcaster *broadcast.Broadcaster) *Dispatcher {
	return &Dispatcher{
		cfg:         cfg,
		repo:        repo,
		broadcaster: broadcaster,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.pool = worker.NewPool(d.cfg.Count, d.cfg.BufferSize, d.process)
	d.pool.Start(ctx)
}

// Publish queues an alert without blocking the caller. When the queue is
// full the alert is dropped; the sensor's own logs still hold the event.
// It must not be called after Stop.
func (d *Dispatcher) Publish(a *models.Alert) {
	if !d.pool.TrySubmit(a) {
		d.dropped.Add(1)
		slog.Warn("alert queue full, dropping alert", "id", a.ID, "event_id", a.EventID, "sensor", a.SensorID)
	}
}

// Stop waits until every queued alert is processed.
func (d *Dispatcher) Stop() {
	d.pool.Stop()
	slog.Info("alert dispatcher stopped", "stored", d.stored.Load(), "dropped", d.dropped.Load())
}

func (d *Dispatcher) Stored() int64 {
	return d.stored.Load()
}

func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) process(ctx context.Context, a *models.Alert) error {
	exists, err := d.repo.AlertExists(ctx, a.ID)
	if err != nil {
		slog.Error("error checking alert", "id", a.ID, "error", err)
		return err
	}
	if exists {
		return nil
	}

	if err := d.repo.AddAlert(ctx, a); err != nil {
		slog.Error("error adding alert", "id", a.ID, "event_id", a.EventID, "error", err)
		return err
	}
	d.stored.Add(1)

	if d.broadcaster != nil {
		d.broadcaster.Broadcast(a)
	}

	slog.Debug("alert dispatched", "id", a.ID, "event_id", a.EventID, "sensor", a.SensorID, "level", a.Level)
	return nil
}
