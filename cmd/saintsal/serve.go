package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexschlessinger/saintsal/internal/log"
	"github.com/alexschlessinger/saintsal/server"
	"github.com/alexschlessinger/saintsal/sessions"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := a.config
	if cmd.IsSet("addr") {
		cfg.Server.Addr = cmd.String("addr")
	}
	if cmd.IsSet("snapshot") {
		cfg.Server.SnapshotPath = cmd.String("snapshot")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snapshot *sessions.FileSnapshot
	if cfg.Server.SnapshotPath != "" {
		snapshot = sessions.NewFileSnapshot(cfg.Server.SnapshotPath)
		states, err := snapshot.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to restore sessions: %w", err)
		}
		restored := a.store.Restore(states)
		zap.S().Infow("sessions_restored", "path", snapshot.Path(), "restored", restored)
	}

	var opts []server.Option
	if a.metrics != nil {
		opts = append(opts, server.WithMetricsHandler(a.metrics.Handler()))
	}
	srv := server.New(a.agent, opts...)

	var maintenance *server.Maintenance
	if snapshot != nil {
		maintenance = server.NewMaintenance(a.agent, a.store, snapshot, server.MaintenanceConfig{
			SweepSchedule:    cfg.Server.SweepSchedule,
			SnapshotSchedule: cfg.Server.SnapshotSchedule,
		})
	} else {
		maintenance = server.NewMaintenance(a.agent, nil, nil, server.MaintenanceConfig{
			SweepSchedule: cfg.Server.SweepSchedule,
		})
	}
	if err := maintenance.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "saintsal %s listening on %s (model %s)\n", cmd.Root().Version, cfg.Server.Addr, cfg.Agent.Model)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		maintenance.Stop(shutdownCtx)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Warnw("http_shutdown_failed", "error", err)
		}
		if snapshot != nil {
			if err := maintenance.RunSnapshot(shutdownCtx); err != nil {
				return fmt.Errorf("failed to save sessions: %w", err)
			}
			zap.S().Infow("sessions_saved", "path", snapshot.Path(), "sessions", a.store.Len())
		}
		return nil
	})

	return g.Wait()
}
