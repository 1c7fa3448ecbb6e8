package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/moodx/internal/server"
	"github.com/desertthunder/moodx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the reference backend over SQLite until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("port") {
		r.config.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.ApplyMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, m := range applied {
		r.logger.Info("applied schema step", "migration", m.Label(), "tables", m.Tables)
	}

	srv, err := server.New(db, server.OptionsFromConfig(r.config, r.logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, r.config.Server.Host, r.config.Server.Port)
}
