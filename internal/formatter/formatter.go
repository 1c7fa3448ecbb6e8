// package formatter renders mood history for the terminal and exports it to CSV, Markdown, and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
	"github.com/desertthunder/moodx/internal/store"
	"github.com/desertthunder/moodx/internal/tasks"
)

// Format is an export file format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "md"
	JSON     Format = "json"
)

// ParseFormat accepts csv, md (or markdown) and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// ExportToCSV converts entries to CSV format with columns: ID, Date, Time, Mood, Note
func ExportToCSV(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Date", "Time", "Mood", "Note"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ID,
			e.Date,
			strconv.FormatInt(e.Timestamp, 10),
			string(e.Mood),
			e.Note,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts entries to a Markdown journal grouped by date, newest first.
func ExportToMarkdown(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Mood history\n\n")
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(entries)))

	current := ""
	for _, e := range entries {
		if e.Date != current {
			current = e.Date
			buf.WriteString(fmt.Sprintf("## %s\n\n", e.Date))
		}
		line := fmt.Sprintf("- %s %s %s", clock(e.Timestamp), e.Mood.Emoji(), e.Mood.Label())
		if e.Note != "" {
			line += ": " + e.Note
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts entries to indented JSON in the same shape as the local record.
func ExportToJSON(entries []models.Entry) ([]byte, error) {
	if entries == nil {
		entries = []models.Entry{}
	}
	return shared.MarshalJSON(entries, true)
}

// Export converts entries to the given format.
func Export(entries []models.Entry, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(entries)
	case Markdown:
		return ExportToMarkdown(entries)
	case JSON:
		return ExportToJSON(entries)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport exports entries to path in the given format.
//
// Defaults to moodx_history.{format} as the filename.
func WriteExport(entries []models.Entry, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("moodx_history.%s", format)
	}

	data, err := Export(entries, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", format, err)
	}

	return path, nil
}

// RenderEntry formats a single entry as one line.
func RenderEntry(e models.Entry) string {
	mood := MoodStyle(e.Mood).Render(fmt.Sprintf("%s %-8s", e.Mood.Emoji(), e.Mood.Label()))
	line := fmt.Sprintf("%s %s  %s", e.Date, clock(e.Timestamp), mood)
	if e.Note != "" {
		line += "  " + e.Note
	}
	return line + "  " + Help(shortID(e.ID))
}

// RenderHistory lists entries newest first, showing at most limit of them (all when limit <= 0).
func RenderHistory(entries []models.Entry, limit int) string {
	if len(entries) == 0 {
		return Help("No mood entries yet. Record one with `moodx add <mood>`.") + "\n"
	}

	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("Mood history (%d)", len(entries))) + "\n")

	shown := entries
	if limit > 0 && len(entries) > limit {
		shown = entries[:limit]
	}
	for _, e := range shown {
		b.WriteString(RenderEntry(e) + "\n")
	}
	if rest := len(entries) - len(shown); rest > 0 {
		b.WriteString(Help(fmt.Sprintf("... and %d more entries", rest)) + "\n")
	}
	return b.String()
}

// RenderToday describes today's mood, or prompts for one when ok is false.
func RenderToday(e models.Entry, ok bool) string {
	if !ok {
		return Warning("No mood recorded today.") + "\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Today you feel %s\n", MoodStyle(e.Mood).Render(e.Mood.Emoji()+" "+e.Mood.Label())))
	if e.Note != "" {
		b.WriteString(Help(e.Note) + "\n")
	}
	return b.String()
}

// RenderChart draws one horizontal bar per day, colored by that day's mood.
func RenderChart(points []store.ChartPoint) string {
	if len(points) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("Mood over the last %d days", len(points))) + "\n")
	for _, p := range points {
		if p.Mood == "" {
			b.WriteString(fmt.Sprintf("%s  %s\n", p.Date, Help("-")))
			continue
		}
		bar := strings.Repeat("█", 2*p.Value+1)
		b.WriteString(fmt.Sprintf("%s  %s %d %s\n", p.Date, MoodStyle(p.Mood).Render(bar), p.Value, p.Mood.Emoji()))
	}
	return b.String()
}

// RenderSummary prints the per-mood counts in display order.
func RenderSummary(sum store.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d entries over %d days\n", sum.Total, sum.Days))
	for _, m := range models.Moods {
		if n := sum.ByMood[m]; n > 0 {
			b.WriteString(fmt.Sprintf("  %s %-8s %d\n", m.Emoji(), m.Label(), n))
		}
	}
	return b.String()
}

// RenderTips lists the wellness tips for m.
func RenderTips(m models.Mood) string {
	var b strings.Builder
	b.WriteString(MoodStyle(m).Render(fmt.Sprintf("%s Tips for feeling %s", m.Emoji(), strings.ToLower(m.Label()))) + "\n")
	for _, tip := range m.Tips() {
		b.WriteString("  • " + tip + "\n")
	}
	return b.String()
}

// RenderStats formats an admin stats report as a table.
func RenderStats(report *tasks.StatsReport) string {
	var b strings.Builder
	b.WriteString(Title("Usage statistics") + "\n")
	b.WriteString(fmt.Sprintf("Users: %d  Moods: %d  Average per user: %d\n\n",
		report.TotalUsers, report.TotalMoods, report.AveragePerUser))

	b.WriteString(fmt.Sprintf("%-24s %-32s %6s  %s\n", "USERNAME", "EMAIL", "MOODS", "LAST MOOD"))
	for _, u := range report.Users {
		last := u.LastMoodDate
		if last == "" {
			last = "-"
		}
		if u.Err != nil {
			last = Failure("error: " + u.Err.Error())
		}
		b.WriteString(fmt.Sprintf("%-24s %-32s %6d  %s\n", u.Profile.Username, u.Profile.Email, u.MoodCount, last))
	}
	if report.Failed > 0 {
		b.WriteString("\n" + Warning(fmt.Sprintf("%d users could not be counted", report.Failed)) + "\n")
	}
	return b.String()
}

func clock(ms int64) string {
	return time.UnixMilli(ms).Format("15:04")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
