package domain

import "time"

// ShowEvent is a core entity describing one upcoming (or same-day aired)
// episode of a tracked show, built from provider metadata.
type ShowEvent struct {
	ShowID      int
	ShowName    string
	EpisodeName string
	AirTime     time.Time
}

// MovieAvailability lists the platforms currently offering a tracked movie
// under subscription or add-on access. Rental and purchase offers are
// excluded at fetch time.
type MovieAvailability struct {
	Title     string
	Platforms []string
}

// MovieMatch is a movie that qualified for notification: the intersection of
// its offering platforms with the subscriber's platforms, keyed by title.
type MovieMatch struct {
	Title     string
	Platforms []string
}

// FailureKind distinguishes which fetch lane produced a FetchFailure.
type FailureKind string

const (
	FailureShow  FailureKind = "show"
	FailureMovie FailureKind = "movie"
)

// FetchFailure records a per-identifier enrichment failure collected during
// a partial-join aggregation run.
type FetchFailure struct {
	Kind FailureKind
	ID   int
	Err  error
}
