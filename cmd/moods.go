package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/moodx/internal/formatter"
	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
	"github.com/desertthunder/moodx/internal/store"
	"github.com/urfave/cli/v3"
)

// Add records a mood for today.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("mood")
	if raw == "" {
		return fmt.Errorf("%w: mood (one of %s)", shared.ErrMissingArgument, moodNames())
	}
	mood, err := models.ParseMood(strings.ToLower(raw))
	if err != nil {
		return err
	}

	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	entry, err := st.Add(ctx, mood, cmd.String("note"))
	if err != nil && !errors.Is(err, shared.ErrStorageFailure) {
		return err
	}

	r.writeString(formatter.Success("✓ Mood recorded") + "\n")
	r.writeString(formatter.RenderEntry(entry) + "\n")
	return err
}

// Today shows the mood recorded today, if any.
func (r *Runner) Today(ctx context.Context, cmd *cli.Command) error {
	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	entry, ok := st.Today()
	if cmd.Bool("json") {
		if !ok {
			return r.writeJSON(nil, true)
		}
		return r.writeJSON(entry, true)
	}
	return r.writeString(formatter.RenderToday(entry, ok))
}

// History lists recorded moods, newest first, optionally limited to a date range.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	from, to := cmd.String("from"), cmd.String("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if err := models.ValidateDate(d); err != nil {
			return err
		}
	}

	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	entries := st.History()
	if from != "" || to != "" {
		if to == "" {
			to = models.DateOf(r.now())
		}
		entries = st.ByDateRange(from, to)
	}

	if cmd.Bool("json") {
		if entries == nil {
			entries = []models.Entry{}
		}
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}
	return r.writeString(formatter.RenderHistory(entries, cmd.Int("limit")))
}

// Edit changes the mood and/or note of an entry.
func (r *Runner) Edit(ctx context.Context, cmd *cli.Command) error {
	var patch models.Patch
	if cmd.IsSet("mood") {
		mood, err := models.ParseMood(strings.ToLower(cmd.String("mood")))
		if err != nil {
			return err
		}
		patch.Mood = &mood
	}
	if cmd.IsSet("note") {
		note := cmd.String("note")
		patch.Note = &note
	}
	if patch.Empty() {
		return fmt.Errorf("%w: --mood or --note", shared.ErrMissingArgument)
	}

	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	id, err := resolveID(st, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	entry, err := st.Update(ctx, id, patch)
	if err != nil && !errors.Is(err, shared.ErrStorageFailure) {
		return err
	}

	r.writeString(formatter.Success("✓ Entry updated") + "\n")
	r.writeString(formatter.RenderEntry(entry) + "\n")
	return err
}

// Delete removes one entry.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	id, err := resolveID(st, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := st.Delete(ctx, id); err != nil {
		return err
	}
	return r.writeString(formatter.Success("✓ Entry deleted") + "\n")
}

// Clear removes the whole history of the active backend.
func (r *Runner) Clear(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete every entry", shared.ErrMissingArgument)
	}

	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	n := len(st.History())
	if err := st.Clear(ctx); err != nil {
		return err
	}
	r.logger.Info("history cleared", "backend", st.Backend(), "entries", n)
	return r.writePlain("✓ Removed %d entries\n", n)
}

// Chart draws the mood of each of the last --days days.
func (r *Runner) Chart(ctx context.Context, cmd *cli.Command) error {
	days := cmd.Int("days")
	if days <= 0 {
		return fmt.Errorf("%w: --days must be positive", shared.ErrInvalidArgument)
	}

	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	points := st.Chart(days)
	if cmd.Bool("json") {
		return r.writeJSON(points, true)
	}
	r.writeString(formatter.RenderChart(points))
	return r.writeString("\n" + formatter.RenderSummary(st.Summary()))
}

// Export writes the history to a CSV, Markdown, or JSON file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	entries := st.History()
	path, err := formatter.WriteExport(entries, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("history exported", "format", format, "path", path, "entries", len(entries))
	return r.writePlain("✓ Exported %d entries to %s\n", len(entries), path)
}

// Tips prints wellness tips for a mood, defaulting to today's.
func (r *Runner) Tips(ctx context.Context, cmd *cli.Command) error {
	if raw := cmd.StringArg("mood"); raw != "" {
		mood, err := models.ParseMood(strings.ToLower(raw))
		if err != nil {
			return err
		}
		return r.writeString(formatter.RenderTips(mood))
	}

	st, err := r.open(ctx)
	if err != nil {
		return err
	}

	entry, ok := st.Today()
	if !ok {
		return fmt.Errorf("%w: no mood recorded today, pass one of %s", shared.ErrMissingArgument, moodNames())
	}
	return r.writeString(formatter.RenderTips(entry.Mood))
}

// resolveID matches a full id or an unambiguous prefix against the cached history.
func resolveID(st *store.Store, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: entry id", shared.ErrMissingArgument)
	}

	var matches []string
	for _, e := range st.History() {
		if e.ID == id {
			return id, nil
		}
		if strings.HasPrefix(e.ID, id) {
			matches = append(matches, e.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: entry %s", shared.ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: id prefix %s matches %d entries", shared.ErrInvalidArgument, id, len(matches))
	}
}

func moodNames() string {
	names := make([]string, len(models.Moods))
	for i, m := range models.Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
