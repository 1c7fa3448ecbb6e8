package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/repositories"
	"github.com/desertthunder/moodx/internal/services"
	"github.com/desertthunder/moodx/internal/session"
	"github.com/desertthunder/moodx/internal/shared"
	"github.com/desertthunder/moodx/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The history store and its backend selector are built on first use by [Runner.open].
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time

	sessions *session.FileProvider
	local    store.Adapter
	client   *services.Client

	store    *store.Store
	selector *store.Selector
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Clock      func() time.Time
	Sessions   *session.FileProvider // defaults to the file at config session.path
	Local      store.Adapter         // defaults to a [repositories.LocalAdapter] in config local.dir
	Client     *services.Client      // defaults to a client for config remote.url when set
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Clock,
		sessions:   opts.Sessions,
		local:      opts.Local,
		client:     opts.Client,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		addCommand, todayCommand, historyCommand, editCommand, deleteCommand, clearCommand,
		chartCommand, exportCommand, tipsCommand, authCommand, adminCommand, serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config named by --config and applies --verbose.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		return ctx, nil
	}
	r.configPath = path

	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("loaded config", "path", path)
	return ctx, nil
}

// after stops following session changes and drops the loaded store.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.selector != nil {
		r.selector.Close()
	}
	r.store, r.selector = nil, nil
	return nil
}

// sessionProvider returns the persisted session provider, restoring it on first use.
func (r *Runner) sessionProvider() (*session.FileProvider, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}
	p, err := session.NewFileProvider(r.config.Session.Path)
	if err != nil {
		return nil, err
	}
	r.sessions = p
	return p, nil
}

// remoteClient returns the anonymous hosted-backend client.
func (r *Runner) remoteClient() (*services.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	remote := r.config.Remote
	opts := []services.ClientOption{services.WithLogger(r.logger)}
	if remote.TimeoutSeconds > 0 {
		opts = append(opts, services.WithTimeout(time.Duration(remote.TimeoutSeconds)*time.Second))
	}

	client, err := services.NewClient(remote.URL, remote.AnonKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("remote backend is not configured: %w", err)
	}
	r.client = client
	return client, nil
}

// open builds the history store, selects the backend for the current session and loads it.
func (r *Runner) open(ctx context.Context) (*store.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	sessions, err := r.sessionProvider()
	if err != nil {
		return nil, err
	}

	client, clientErr := r.remoteClient()
	if clientErr != nil && sessions.Current().Valid() {
		return nil, clientErr
	}

	if r.local == nil {
		r.local = repositories.NewLocalAdapter(r.config.Local.Dir, r.logger)
	}

	st := store.New(store.WithClock(r.now), store.WithLogger(r.logger))
	remote := func(s *session.Session) store.Adapter {
		if client == nil {
			return unavailable{clientErr}
		}
		return services.NewRemoteAdapter(client.ForSession(s), s.Owner)
	}
	sel := store.NewSelector(st, sessions, r.local, remote, r.logger)
	if err := sel.Start(ctx); err != nil {
		sel.Close()
		return nil, err
	}

	r.logger.Debug("history loaded", "backend", sel.State(), "entries", len(st.History()))
	r.store, r.selector = st, sel
	return st, nil
}

// unavailable stands in for the remote backend when it is not configured.
type unavailable struct{ err error }

func (u unavailable) Load(context.Context) ([]models.Entry, error) { return nil, u.err }
func (u unavailable) Insert(context.Context, models.Entry) (models.Entry, error) {
	return models.Entry{}, u.err
}
func (u unavailable) Update(context.Context, string, models.Patch) (models.Entry, error) {
	return models.Entry{}, u.err
}
func (u unavailable) Delete(context.Context, string) error { return u.err }
func (u unavailable) Clear(context.Context) error          { return u.err }

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeString(s string) error {
	if _, err := io.WriteString(r.output, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
