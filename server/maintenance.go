package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/sessions"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Snapshotter captures session state
type Snapshotter interface {
	Snapshot() []sessions.SessionState
}

// SnapshotWriter persists captured session state
type SnapshotWriter interface {
	Save(ctx context.Context, states []sessions.SessionState) error
}

// MaintenanceConfig holds cron schedules. An empty schedule disables the job.
type MaintenanceConfig struct {
	SweepSchedule    string
	SnapshotSchedule string
}

// Maintenance runs periodic session sweeps and snapshots
type Maintenance struct {
	agent  *agent.Agent
	source Snapshotter
	writer SnapshotWriter
	config MaintenanceConfig

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewMaintenance creates the job runner. source and writer may be nil, in
// which case snapshots are skipped.
func NewMaintenance(a *agent.Agent, source Snapshotter, writer SnapshotWriter, config MaintenanceConfig) *Maintenance {
	return &Maintenance{
		agent:  a,
		source: source,
		writer: writer,
		config: config,
	}
}

// Start schedules the jobs. It is non-blocking and returns an error when a
// schedule does not parse.
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	c := cron.New()
	if m.config.SweepSchedule != "" {
		if _, err := c.AddFunc(m.config.SweepSchedule, func() { m.RunSweep() }); err != nil {
			return fmt.Errorf("invalid sweep schedule %q: %w", m.config.SweepSchedule, err)
		}
	}
	if m.config.SnapshotSchedule != "" && m.snapshotsEnabled() {
		if _, err := c.AddFunc(m.config.SnapshotSchedule, func() {
			if err := m.RunSnapshot(ctx); err != nil {
				zap.S().Errorw("snapshot_failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid snapshot schedule %q: %w", m.config.SnapshotSchedule, err)
		}
	}

	c.Start()
	m.cron = c
	m.running = true

	zap.S().Infow("maintenance_started",
		"sweep_schedule", m.config.SweepSchedule,
		"snapshot_schedule", m.config.SnapshotSchedule,
		"snapshots", m.snapshotsEnabled())
	return nil
}

// Stop unschedules the jobs and waits for running ones to finish or ctx to
// end
func (m *Maintenance) Stop(ctx context.Context) {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.running = false
	m.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	zap.S().Infow("maintenance_stopped")
}

// RunSweep removes idle sessions using the store TTL
func (m *Maintenance) RunSweep() int {
	removed := m.agent.Sweep(0)
	if removed > 0 {
		zap.S().Infow("sessions_swept", "removed", removed)
	}
	return removed
}

// RunSnapshot writes the current sessions through the snapshot writer
func (m *Maintenance) RunSnapshot(ctx context.Context) error {
	if !m.snapshotsEnabled() {
		return nil
	}
	states := m.source.Snapshot()
	if err := m.writer.Save(ctx, states); err != nil {
		return err
	}
	zap.S().Debugw("snapshot_saved", "sessions", len(states))
	return nil
}

// IsRunning reports whether jobs are scheduled
func (m *Maintenance) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Maintenance) snapshotsEnabled() bool {
	return m.source != nil && m.writer != nil
}
