package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/server"
	"github.com/desertthunder/moodx/internal/shared"
	tu "github.com/desertthunder/moodx/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner returns a runner whose local history, session, and database live under a temp dir.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Local.Dir = filepath.Join(dir, "data")
	config.Session.Path = filepath.Join(dir, "session.json")
	config.Database.Path = filepath.Join(dir, "moodx.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	return runner, output
}

// run executes args against a root command wired like main.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name: "moodx",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: filepath.Join(t.TempDir(), "missing.toml")},
			&cli.BoolFlag{Name: "verbose"},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
	return app.Run(context.Background(), append([]string{"moodx"}, args...))
}

// newTestBackend starts the reference backend over an in-memory database.
func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	srv, err := server.New(db, server.Options{
		AnonKey:    "anon",
		ServiceKey: "service",
		TokenTTL:   time.Hour,
		Logger:     shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			local := tu.NewFakeAdapter()

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Local:  local,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.local != local {
				t.Error("expected local adapter to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.now == nil {
				t.Error("expected default clock to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("returns error on unmarshalable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error for channel value")
			}
		})

		t.Run("returns error when writer fails", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("Hello %s, count: %d\n", "World", 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "Hello World, count: 42\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("before loads config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := shared.CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}

		runner, _ := newTestRunner(t)
		original := runner.config
		app := &cli.Command{
			Name:   "moodx",
			Flags:  []cli.Flag{&cli.StringFlag{Name: "config"}, &cli.BoolFlag{Name: "verbose"}},
			Before: runner.before,
			Action: func(context.Context, *cli.Command) error { return nil },
		}
		if err := app.Run(context.Background(), []string{"moodx", "--config", path}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.config == original {
			t.Error("expected config to be replaced by the file")
		}
		if runner.configPath != path {
			t.Errorf("expected configPath %s, got %s", path, runner.configPath)
		}
	})
}

func TestLocalCommands(t *testing.T) {
	t.Run("add then history", func(t *testing.T) {
		runner, output := newTestRunner(t)

		if err := run(t, runner, "add", "happy", "--note", "good day"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !strings.Contains(output.String(), "Mood recorded") {
			t.Errorf("unexpected add output: %s", output.String())
		}

		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}

		var entries []models.Entry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("history output is not JSON: %v\n%s", err, output.String())
		}
		if len(entries) != 1 || entries[0].Mood != models.Happy || entries[0].Note != "good day" {
			t.Errorf("unexpected history: %+v", entries)
		}
		if entries[0].Owner != "" {
			t.Errorf("local entries have no owner, got %q", entries[0].Owner)
		}
	})

	t.Run("add rejects unknown mood", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := run(t, runner, "add", "grumpy"); !errors.Is(err, shared.ErrInvalidMood) {
			t.Errorf("expected ErrInvalidMood, got %v", err)
		}
	})

	t.Run("add rejects long note", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		note := strings.Repeat("x", models.MaxNoteLength+1)
		if err := run(t, runner, "add", "calm", "--note", note); !errors.Is(err, shared.ErrNoteTooLong) {
			t.Errorf("expected ErrNoteTooLong, got %v", err)
		}
	})

	t.Run("today", func(t *testing.T) {
		runner, output := newTestRunner(t)

		if err := run(t, runner, "today"); err != nil {
			t.Fatalf("today failed: %v", err)
		}
		if !strings.Contains(output.String(), "No mood recorded today") {
			t.Errorf("unexpected output: %s", output.String())
		}

		if err := run(t, runner, "add", "tired"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		output.Reset()
		if err := run(t, runner, "today"); err != nil {
			t.Fatalf("today failed: %v", err)
		}
		if !strings.Contains(output.String(), "Tired") {
			t.Errorf("expected today's mood, got: %s", output.String())
		}
	})

	t.Run("edit and delete by id prefix", func(t *testing.T) {
		runner, output := newTestRunner(t)

		if err := run(t, runner, "add", "sad"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		var entries []models.Entry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		prefix := entries[0].ID[:8]

		if err := run(t, runner, "edit", prefix, "--mood", "calm", "--note", "better now"); err != nil {
			t.Fatalf("edit failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		entries = nil
		json.Unmarshal(output.Bytes(), &entries)
		if entries[0].Mood != models.Calm || entries[0].Note != "better now" {
			t.Errorf("edit not applied: %+v", entries[0])
		}

		if err := run(t, runner, "delete", prefix); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := run(t, runner, "delete", prefix); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("edit without changes", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := run(t, runner, "edit", "abc"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("clear requires confirmation", func(t *testing.T) {
		runner, output := newTestRunner(t)

		for _, mood := range []string{"happy", "excited"} {
			if err := run(t, runner, "add", mood); err != nil {
				t.Fatalf("add failed: %v", err)
			}
		}

		if err := run(t, runner, "clear"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without --yes, got %v", err)
		}

		output.Reset()
		if err := run(t, runner, "clear", "--yes"); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if !strings.Contains(output.String(), "Removed 2 entries") {
			t.Errorf("unexpected output: %s", output.String())
		}

		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if strings.TrimSpace(output.String()) != "[]" {
			t.Errorf("expected empty history, got %s", output.String())
		}
	})

	t.Run("history date range", func(t *testing.T) {
		runner, output := newTestRunner(t)
		if err := run(t, runner, "add", "calm"); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "history", "--json", "--from", "2000-01-01", "--to", "2000-12-31"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if strings.TrimSpace(output.String()) != "[]" {
			t.Errorf("expected no entries in range, got %s", output.String())
		}

		if err := run(t, runner, "history", "--from", "yesterday"); !errors.Is(err, shared.ErrInvalidDate) {
			t.Errorf("expected ErrInvalidDate, got %v", err)
		}
	})

	t.Run("chart", func(t *testing.T) {
		runner, output := newTestRunner(t)
		if err := run(t, runner, "add", "excited"); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "chart", "--days", "3", "--json"); err != nil {
			t.Fatalf("chart failed: %v", err)
		}
		var points []struct {
			Date  string `json:"date"`
			Mood  string `json:"mood"`
			Value int    `json:"value"`
		}
		if err := json.Unmarshal(output.Bytes(), &points); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("expected 3 points, got %d", len(points))
		}
		if points[2].Mood != "excited" || points[2].Value != 4 {
			t.Errorf("expected today's point to be excited/4, got %+v", points[2])
		}

		if err := run(t, runner, "chart", "--days", "0"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := run(t, runner, "add", "happy", "--note", "exported"); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		path := filepath.Join(t.TempDir(), "moods.md")
		if err := run(t, runner, "export", "--format", "md", "--output", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "exported") {
			t.Errorf("export missing note: %s", content)
		}

		if err := run(t, runner, "export", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("tips", func(t *testing.T) {
		runner, output := newTestRunner(t)

		if err := run(t, runner, "tips", "anxious"); err != nil {
			t.Fatalf("tips failed: %v", err)
		}
		if !strings.Contains(output.String(), models.Anxious.Tips()[0]) {
			t.Errorf("expected anxious tips, got: %s", output.String())
		}

		if err := run(t, runner, "tips"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without today's mood, got %v", err)
		}
	})

	t.Run("history persists across runners", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		if err := run(t, runner, "add", "happy"); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		output := &bytes.Buffer{}
		second := NewRunner(RunnerOpts{Config: runner.config, Logger: shared.NewLogger(io.Discard), Output: output})
		if err := run(t, second, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		var entries []models.Entry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected persisted entry, got %d", len(entries))
		}
	})
}

func TestRemoteCommands(t *testing.T) {
	ts := newTestBackend(t)

	runner, output := newTestRunner(t)
	runner.config.Remote.URL = ts.URL
	runner.config.Remote.AnonKey = "anon"
	runner.config.Remote.ServiceKey = "service"

	if err := run(t, runner, "add", "sad", "--note", "stays on device"); err != nil {
		t.Fatalf("local add failed: %v", err)
	}

	if err := run(t, runner, "auth", "signup", "ada@example.com", "--username", "ada"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if !strings.Contains(output.String(), "Signed in as ada <ada@example.com>") {
		t.Errorf("unexpected signup output: %s", output.String())
	}
	tu.AssertFileExists(t, runner.config.Session.Path)

	t.Run("status reports remote backend", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "auth", "status", "--json"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		var status map[string]any
		if err := json.Unmarshal(output.Bytes(), &status); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if status["backend"] != "remote" || status["signed_in"] != true {
			t.Errorf("unexpected status: %v", status)
		}
	})

	t.Run("remote history starts empty", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if strings.TrimSpace(output.String()) != "[]" {
			t.Errorf("local entries must not migrate, got %s", output.String())
		}
	})

	t.Run("remote add is owned", func(t *testing.T) {
		if err := run(t, runner, "add", "excited", "--note", "in the cloud"); err != nil {
			t.Fatalf("remote add failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		var entries []models.Entry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 1 || entries[0].Owner == "" || entries[0].Note != "in the cloud" {
			t.Errorf("unexpected remote history: %+v", entries)
		}
	})

	t.Run("admin stats", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "admin", "stats", "--json"); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		var report struct {
			TotalUsers int `json:"total_users"`
			TotalMoods int `json:"total_moods"`
		}
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, output.String())
		}
		if report.TotalUsers != 1 || report.TotalMoods != 1 {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("admin stats rejects anon key", func(t *testing.T) {
		if err := run(t, runner, "admin", "stats", "--service-key", "wrong"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("logout returns to local history", func(t *testing.T) {
		if err := run(t, runner, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if _, err := os.Stat(runner.config.Session.Path); !os.IsNotExist(err) {
			t.Errorf("expected session file to be removed, got %v", err)
		}

		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		var entries []models.Entry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 1 || entries[0].Note != "stays on device" {
			t.Errorf("expected the local entry back, got %+v", entries)
		}
	})

	t.Run("login restores remote history", func(t *testing.T) {
		if err := run(t, runner, "auth", "login", "ada@example.com"); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		output.Reset()
		if err := run(t, runner, "history", "--json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		var entries []models.Entry
		json.Unmarshal(output.Bytes(), &entries)
		if len(entries) != 1 || entries[0].Note != "in the cloud" {
			t.Errorf("expected the remote entry, got %+v", entries)
		}
	})

	t.Run("login with unknown email", func(t *testing.T) {
		if err := run(t, runner, "auth", "login", "nobody@example.com"); err == nil {
			t.Error("expected login failure")
		}
	})
}
