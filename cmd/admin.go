package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodx/internal/formatter"
	"github.com/desertthunder/moodx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AdminStats counts moods per user with the service key.
func (r *Runner) AdminStats(ctx context.Context, cmd *cli.Command) error {
	client, err := r.remoteClient()
	if err != nil {
		return err
	}

	key := cmd.String("service-key")
	if key == "" {
		key = r.config.Remote.ServiceKey
	}
	service, err := client.AsService(key)
	if err != nil {
		return err
	}

	engine := tasks.NewStatsEngine(service, tasks.StatsOpts{
		NumWorkers: r.config.Stats.Workers,
		RateLimit:  r.config.Stats.RateLimit,
	})

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()

	report, err := engine.Collect(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	if report.Failed > 0 {
		r.logger.Warn("some users could not be counted", "failed", report.Failed)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	return r.writeString(formatter.RenderStats(report))
}
