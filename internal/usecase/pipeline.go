package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"tvnotifier/internal/domain"
	"tvnotifier/internal/ports"
	"tvnotifier/internal/render"
)

const defaultMaxConcurrent = 8

// Options tune aggregation behavior per run.
type Options struct {
	// MaxConcurrent bounds the fetch fan-out; <=0 falls back to a default.
	MaxConcurrent int
	// FailFast aborts the whole run on the first fetch error and cancels
	// in-flight fetches. When false, failures are collected per identifier
	// and the run proceeds with the successes.
	FailFast bool
	// FutureDays is the horizon: events dated after today+FutureDays are
	// dropped. The boundary day itself is kept.
	FutureDays int
	// MoviePlatforms is the subscriber's streaming platform set.
	MoviePlatforms []string
	// SiteURL is linked from the digest footer.
	SiteURL string
	// Location is the timezone used for date comparisons and rendering.
	Location *time.Location
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Repository   ports.TrackerRepository
	Episodes     ports.EpisodeSource
	Availability ports.AvailabilitySource
	Notifier     ports.Notifier
	Clock        ports.Clock
	Logger       *slog.Logger
	Out          io.Writer
	Options      Options
}

// Pipeline implements the fetch-aggregate-render-deliver workflow.
type Pipeline struct {
	repository   ports.TrackerRepository
	episodes     ports.EpisodeSource
	availability ports.AvailabilitySource
	notifier     ports.Notifier
	clock        ports.Clock
	logger       *slog.Logger
	out          io.Writer
	opts         Options
}

// AggregateResult is the joined output of one aggregation pass.
type AggregateResult struct {
	// Shows is horizon-filtered and sorted ascending by air time; ties keep
	// the original identifier order.
	Shows []domain.ShowEvent
	// Movies holds qualifying movies with their matching platform subset.
	Movies []domain.MovieMatch
	// Failures lists per-identifier fetch errors (empty in fail-fast mode,
	// which surfaces the first error instead).
	Failures []domain.FetchFailure
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	return &Pipeline{
		repository:   deps.Repository,
		episodes:     deps.Episodes,
		availability: deps.Availability,
		notifier:     deps.Notifier,
		clock:        deps.Clock,
		logger:       deps.Logger,
		out:          out,
		opts:         deps.Options,
	}
}

// Run executes one full digest cycle: load tracked identifiers, aggregate,
// render, and either deliver to subscribers or print to the console when no
// notifier is wired.
func (p *Pipeline) Run(ctx context.Context) error {
	log := p.runLogger()

	showIDs, err := p.repository.ListShowIDs(ctx)
	if err != nil {
		return fmt.Errorf("list show ids: %w", err)
	}

	movieIDs, err := p.repository.ListMovieIDs(ctx)
	if err != nil {
		return fmt.Errorf("list movie ids: %w", err)
	}

	log.Info("aggregating", "shows", len(showIDs), "movies", len(movieIDs))

	result, err := p.Aggregate(ctx, showIDs, movieIDs)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	for _, failure := range result.Failures {
		log.Warn("fetch failed", "kind", failure.Kind, "id", failure.ID, "error", failure.Err)
	}

	now := p.clock.Now()
	digest := render.Partition(result.Shows, result.Movies, now, p.opts.Location)

	if p.notifier == nil {
		if _, err := io.WriteString(p.out, digest.PlainText()); err != nil {
			return fmt.Errorf("write digest: %w", err)
		}
		return nil
	}

	subscribers, err := p.repository.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		log.Warn("no subscribers, skipping delivery")
		return nil
	}

	subject := render.Subject(now, p.opts.Location)
	if err := p.notifier.SendDigest(ctx, subject, digest.HTML(p.opts.SiteURL), subscribers); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	log.Info("digest delivered", "recipients", len(subscribers),
		"today", len(digest.Today), "future", len(digest.Future), "movies", len(digest.Movies))
	return nil
}

// Aggregate fans fetches out over the tracked identifiers and joins the
// results into a filtered, ordered digest payload.
func (p *Pipeline) Aggregate(ctx context.Context, showIDs, movieIDs []int) (AggregateResult, error) {
	shows, showFailures, err := p.fetchShows(ctx, showIDs)
	if err != nil {
		return AggregateResult{}, err
	}

	movies, movieFailures, err := p.fetchMovies(ctx, movieIDs)
	if err != nil {
		return AggregateResult{}, err
	}

	failures := append(showFailures, movieFailures...)
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Kind != failures[j].Kind {
			return failures[i].Kind < failures[j].Kind
		}
		return failures[i].ID < failures[j].ID
	})

	return AggregateResult{
		Shows:    p.filterAndSort(shows),
		Movies:   movies,
		Failures: failures,
	}, nil
}

func (p *Pipeline) fetchShows(ctx context.Context, ids []int) ([]domain.ShowEvent, []domain.FetchFailure, error) {
	results := make([]*domain.ShowEvent, len(ids))
	var mu sync.Mutex
	var failures []domain.FetchFailure

	workers := p.newPool(ctx)
	for i, id := range ids {
		i, id := i, id
		workers.Go(func(ctx context.Context) error {
			event, err := p.episodes.FetchNextEpisode(ctx, id)
			if err != nil {
				if p.opts.FailFast {
					return fmt.Errorf("show %d: %w", id, err)
				}
				mu.Lock()
				failures = append(failures, domain.FetchFailure{Kind: domain.FailureShow, ID: id, Err: err})
				mu.Unlock()
				return nil
			}
			results[i] = event
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return nil, nil, err
	}

	events := make([]domain.ShowEvent, 0, len(results))
	for _, event := range results {
		if event != nil {
			events = append(events, *event)
		}
	}
	return events, failures, nil
}

func (p *Pipeline) fetchMovies(ctx context.Context, ids []int) ([]domain.MovieMatch, []domain.FetchFailure, error) {
	results := make([]*domain.MovieAvailability, len(ids))
	var mu sync.Mutex
	var failures []domain.FetchFailure

	workers := p.newPool(ctx)
	for i, id := range ids {
		i, id := i, id
		workers.Go(func(ctx context.Context) error {
			availability, err := p.availability.FetchAvailability(ctx, id)
			if err != nil {
				if p.opts.FailFast {
					return fmt.Errorf("movie %d: %w", id, err)
				}
				mu.Lock()
				failures = append(failures, domain.FetchFailure{Kind: domain.FailureMovie, ID: id, Err: err})
				mu.Unlock()
				return nil
			}
			results[i] = &availability
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return nil, nil, err
	}

	subscribed := make(map[string]struct{}, len(p.opts.MoviePlatforms))
	for _, platform := range p.opts.MoviePlatforms {
		subscribed[platform] = struct{}{}
	}

	var matches []domain.MovieMatch
	for _, availability := range results {
		if availability == nil {
			continue
		}
		var common []string
		for _, platform := range availability.Platforms {
			if _, ok := subscribed[platform]; ok {
				common = append(common, platform)
			}
		}
		if len(common) == 0 {
			continue
		}
		sort.Strings(common)
		matches = append(matches, domain.MovieMatch{Title: availability.Title, Platforms: common})
	}
	return matches, failures, nil
}

// newPool builds the bounded fan-out pool; in fail-fast mode the first error
// cancels all in-flight fetches.
func (p *Pipeline) newPool(ctx context.Context) *pool.ContextPool {
	workers := p.opts.MaxConcurrent
	if workers <= 0 {
		workers = defaultMaxConcurrent
	}
	cp := pool.New().WithContext(ctx).WithMaxGoroutines(workers)
	if p.opts.FailFast {
		cp = cp.WithCancelOnError().WithFirstError()
	}
	return cp
}

// filterAndSort drops events past the horizon and orders the rest ascending
// by air time. An event dated exactly on the boundary day is kept.
func (p *Pipeline) filterAndSort(events []domain.ShowEvent) []domain.ShowEvent {
	loc := p.opts.Location
	if loc == nil {
		loc = time.Local
	}

	futureDays := p.opts.FutureDays
	if futureDays <= 0 {
		futureDays = 7
	}

	limit := civilDate(p.clock.Now().In(loc)).AddDate(0, 0, futureDays)

	kept := make([]domain.ShowEvent, 0, len(events))
	for _, event := range events {
		if civilDate(event.AirTime.In(loc)).After(limit) {
			continue
		}
		kept = append(kept, event)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].AirTime.Before(kept[j].AirTime)
	})
	return kept
}

func (p *Pipeline) runLogger() *slog.Logger {
	log := p.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log.With("run_id", uuid.NewString())
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
