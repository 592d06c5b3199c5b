package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"maestro-hq/maestro/pkg/session"
)

// MaintenanceConfig configures the scheduled maintenance job.
type MaintenanceConfig struct {
	// Schedule is the cron expression for the maintenance run.
	// Example: "0 3 * * *" (daily at 03:00). Empty disables scheduling.
	Schedule string

	// RetentionDays is how long execution records are kept. Zero disables
	// the retention sweep.
	RetentionDays int
}

// Maintenance runs periodic retention sweeps and session snapshotting
// against the store.
type Maintenance struct {
	store    *Store
	registry *session.Registry
	config   MaintenanceConfig
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewMaintenance creates a maintenance job over the store and the session
// registry.
func NewMaintenance(store *Store, registry *session.Registry, config MaintenanceConfig) *Maintenance {
	return &Maintenance{
		store:    store,
		registry: registry,
		config:   config,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "store.maintenance"),
	}
}

// Start schedules the maintenance run. If the schedule is empty, Start does
// nothing. The job stops when the context is cancelled.
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.Schedule == "" {
		m.logger.Info("maintenance schedule not configured, skipping")
		return nil
	}

	if _, err := cron.ParseStandard(m.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", m.config.Schedule, err)
	}

	if _, err := m.cron.AddFunc(m.config.Schedule, func() {
		m.Run(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	m.cron.Start()
	m.running = true

	m.logger.Info("maintenance scheduler started",
		"schedule", m.config.Schedule,
		"retention_days", m.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Run executes one maintenance cycle immediately: the retention sweep
// followed by a session snapshot per provider.
func (m *Maintenance) Run(ctx context.Context) {
	if m.config.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -m.config.RetentionDays)
		deleted, err := m.store.DeleteExecutionsBefore(ctx, cutoff)
		if err != nil {
			m.logger.Error("retention sweep failed", "error", err)
		} else if deleted > 0 {
			m.logger.Info("retention sweep completed", "deleted", deleted, "cutoff", cutoff)
		}
	}

	for _, id := range m.registry.Providers() {
		snap, ok := m.registry.Snapshot(id)
		if !ok {
			continue
		}
		if err := m.store.SaveSessionSnapshot(ctx, snap); err != nil {
			m.logger.Warn("session snapshot failed", "provider", id, "error", err)
		}
	}
}

// Stop stops the scheduler and waits for any running job to finish.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		<-m.cron.Stop().Done()
		m.running = false
		m.logger.Info("maintenance scheduler stopped")
	}
}

// NextRun returns the next scheduled maintenance time, or nil when nothing
// is scheduled.
func (m *Maintenance) NextRun() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
