package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexschlessinger/saintsal/internal/log"
	"github.com/alexschlessinger/saintsal/server"
	"github.com/urfave/cli/v3"
)

// runMCP serves over stdio. Logs go to stderr so stdout carries only the
// protocol.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ServeMCP(ctx, a.agent)
}
