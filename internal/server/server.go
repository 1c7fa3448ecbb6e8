package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodx/internal/repositories"
	"github.com/desertthunder/moodx/internal/shared"
	"golang.org/x/time/rate"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the route patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options configures a [Server].
type Options struct {
	AnonKey    string
	ServiceKey string
	TokenTTL   time.Duration
	RateLimit  float64 // requests per second across all clients; zero disables limiting
	Burst      int
	PruneEvery time.Duration // expired session cleanup interval (default: 1h)
	Logger     *log.Logger
}

// OptionsFromConfig builds [Options] from the application configuration.
func OptionsFromConfig(cfg *shared.Config, logger *log.Logger) Options {
	return Options{
		AnonKey:    cfg.Remote.AnonKey,
		ServiceKey: cfg.Remote.ServiceKey,
		TokenTTL:   time.Duration(cfg.Server.TokenTTLHours) * time.Hour,
		RateLimit:  cfg.Server.RateLimit,
		Burst:      cfg.Server.Burst,
		Logger:     logger,
	}
}

// Server serves the auth and table endpoints over a migrated database.
type Server struct {
	opts     Options
	entries  *repositories.EntryRepository
	profiles *repositories.ProfileRepository
	sessions *repositories.SessionRepository
	router   *BasicRouter
	logger   *log.Logger
}

// New creates a server over db, which must already be migrated.
func New(db *sql.DB, opts Options) (*Server, error) {
	if opts.AnonKey == "" {
		return nil, fmt.Errorf("%w: anon key", shared.ErrMissingCredentials)
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.PruneEvery <= 0 {
		opts.PruneEvery = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	s := &Server{
		opts:     opts,
		entries:  repositories.NewEntryRepository(db),
		profiles: repositories.NewProfileRepository(db),
		sessions: repositories.NewSessionRepository(db),
		router:   NewBasicRouter(),
		logger:   shared.WithLogger(opts.Logger, "component", "server"),
	}

	s.router.Use(Recover(s.logger), Logging(s.logger))
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.router.Use(RateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}

	s.router.Handle(http.MethodGet, "/health", http.HandlerFunc(s.health))
	s.router.Handler(&authHandler{s})
	s.router.Handler(&restHandler{s})
	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on host:port until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pruneSessions(ctx, s.opts.PruneEvery)

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

// pruneSessions deletes expired tokens now and then every interval until ctx is done.
func (s *Server) pruneSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := s.sessions.Prune(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.Warn("failed to prune sessions", "err", err)
		case n > 0:
			s.logger.Info("pruned expired sessions", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
