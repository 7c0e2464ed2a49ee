package ports

import (
	"context"
	"time"

	"tvnotifier/internal/domain"
)

// EpisodeSource resolves the most relevant episode for a tracked show.
// A nil event with a nil error means the show has nothing to announce.
type EpisodeSource interface {
	FetchNextEpisode(ctx context.Context, showID int) (*domain.ShowEvent, error)
}

// AvailabilitySource resolves streaming availability for a tracked movie.
type AvailabilitySource interface {
	FetchAvailability(ctx context.Context, movieID int) (domain.MovieAvailability, error)
}

// TrackerRepository supplies tracked identifiers and recipient addresses.
// All access is read-only; the core never writes back.
type TrackerRepository interface {
	ListShowIDs(ctx context.Context) ([]int, error)
	ListMovieIDs(ctx context.Context) ([]int, error)
	ListSubscribers(ctx context.Context) ([]string, error)
}

// Notifier delivers a rendered digest to recipients.
type Notifier interface {
	SendDigest(ctx context.Context, subject, htmlBody string, recipients []string) error
}

// Clock abstracts wall-clock time so horizon filtering and today/future
// partitioning are deterministic under test.
type Clock interface {
	Now() time.Time
}

// Scheduler controls when digest runs execute in daemon mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
