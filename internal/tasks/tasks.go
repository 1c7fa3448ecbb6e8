package tasks

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
	"golang.org/x/time/rate"
)

// StatsSource is the read side of the hosted backend used by [StatsEngine].
//
// Implemented by a service-key [services.Client].
type StatsSource interface {
	Profiles(ctx context.Context) ([]models.Profile, error)
	CountEntries(ctx context.Context, owner string) (int, error)
	LatestEntry(ctx context.Context, owner string) (*models.Entry, error)
}

// UserStats summarizes one user.
type UserStats struct {
	Profile      models.Profile `json:"profile"`
	MoodCount    int            `json:"mood_count"`
	LastMoodDate string         `json:"last_mood_date,omitempty"` // empty when the user has no entries
	Err          error          `json:"-"`
}

// StatsReport is the outcome of [StatsEngine.Collect].
type StatsReport struct {
	Users          []UserStats `json:"users"` // newest profile first
	TotalUsers     int         `json:"total_users"`
	TotalMoods     int         `json:"total_moods"`
	AveragePerUser int         `json:"average_per_user"`
	Failed         int         `json:"failed"`
}

// StatsOpts tunes the per-user fan-out.
type StatsOpts struct {
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Requests per second (default: 10)
}

// StatsEngine collects usage statistics across all users.
type StatsEngine struct {
	source StatsSource
	opts   StatsOpts
}

// NewStatsEngine creates a [StatsEngine], applying defaults to opts.
func NewStatsEngine(source StatsSource, opts StatsOpts) *StatsEngine {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}
	return &StatsEngine{source: source, opts: opts}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *StatsEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type userJob struct {
	index   int
	profile models.Profile
}

type userResult struct {
	index int
	stats UserStats
}

// Collect gathers per-user and global mood statistics.
func (e *StatsEngine) Collect(ctx context.Context, progress chan<- ProgressUpdate) (*StatsReport, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: stats source not initialized", shared.ErrMissingConfig)
	}

	e.sendProgress(progress, fetchProfilesUpdate())
	profiles, err := e.source.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	e.sendProgress(progress, foundProfilesUpdate(len(profiles)))

	report := &StatsReport{
		Users:      make([]UserStats, len(profiles)),
		TotalUsers: len(profiles),
	}

	limiter := rate.NewLimiter(rate.Limit(e.opts.RateLimit), 1)
	jobs := make(chan userJob, len(profiles))
	results := make(chan userResult, len(profiles))

	var wg sync.WaitGroup
	for i := 0; i < e.opts.NumWorkers; i++ {
		wg.Add(1)
		go e.userWorker(ctx, &wg, limiter, jobs, results)
	}

	for i, p := range profiles {
		jobs <- userJob{index: i, profile: p}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		report.Users[res.index] = res.stats
		if res.stats.Err != nil {
			report.Failed++
		}
		e.sendProgress(progress, userCountedUpdate(completed, len(profiles), res.stats))
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("stats collection cancelled: %w", err)
	}

	e.sendProgress(progress, countTotalUpdate())
	total, err := e.source.CountEntries(ctx, "")
	if err != nil {
		return report, fmt.Errorf("failed to count moods: %w", err)
	}
	report.TotalMoods = total
	report.AveragePerUser = Average(total, len(profiles))
	return report, nil
}

// userWorker computes stats for each profile from the jobs channel.
func (e *StatsEngine) userWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan userJob,
	results chan<- userResult,
) {
	defer wg.Done()

	for job := range jobs {
		stats := UserStats{Profile: job.profile}
		if err := ctx.Err(); err != nil {
			stats.Err = err
			results <- userResult{index: job.index, stats: stats}
			continue
		}
		results <- userResult{index: job.index, stats: e.userStats(ctx, limiter, stats)}
	}
}

func (e *StatsEngine) userStats(ctx context.Context, limiter *rate.Limiter, stats UserStats) UserStats {
	owner := stats.Profile.ID

	if err := limiter.Wait(ctx); err != nil {
		stats.Err = err
		return stats
	}
	count, err := e.source.CountEntries(ctx, owner)
	if err != nil {
		stats.Err = err
		return stats
	}
	stats.MoodCount = count

	if count == 0 {
		return stats
	}

	if err := limiter.Wait(ctx); err != nil {
		stats.Err = err
		return stats
	}
	latest, err := e.source.LatestEntry(ctx, owner)
	if err != nil {
		stats.Err = err
		return stats
	}
	if latest != nil {
		stats.LastMoodDate = latest.Date
	}
	return stats
}

// Average returns total/users rounded to the nearest integer, or 0 without users.
func Average(total, users int) int {
	if users == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(users)))
}
