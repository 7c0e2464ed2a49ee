package tvmaze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tvnotifier/internal/clock"
)

func newTestClient(t *testing.T, now time.Time, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(server.URL, server.Client(), clock.Fixed{Instant: now}, time.UTC)
}

func TestFetchNextEpisodeReturnsNextEpisode(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shows/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"name": "Severed",
			"_embedded": {
				"nextepisode": {"name": "The Break Room", "airstamp": "2026-03-03T20:00:00-05:00"}
			}
		}`))
	})

	event, err := client.FetchNextEpisode(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchNextEpisode error: %v", err)
	}
	if event == nil {
		t.Fatal("expected an event")
	}
	if event.ShowID != 42 {
		t.Fatalf("unexpected show id: %d", event.ShowID)
	}
	if event.ShowName != "Severed" {
		t.Fatalf("unexpected show name: %s", event.ShowName)
	}
	if event.EpisodeName != "The Break Room" {
		t.Fatalf("unexpected episode name: %s", event.EpisodeName)
	}
	want := time.Date(2026, time.March, 4, 1, 0, 0, 0, time.UTC)
	if !event.AirTime.Equal(want) {
		t.Fatalf("unexpected air time: %v", event.AirTime)
	}
}

func TestFetchNextEpisodePrefersPreviousEpisodeAiredToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 23, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Severed",
			"_embedded": {
				"previousepisode": {"name": "Half Loop", "airstamp": "2026-03-02T02:00:00Z"},
				"nextepisode": {"name": "In Perpetuity", "airstamp": "2026-03-09T02:00:00Z"}
			}
		}`))
	})

	event, err := client.FetchNextEpisode(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchNextEpisode error: %v", err)
	}
	if event == nil || event.EpisodeName != "Half Loop" {
		t.Fatalf("expected today's previous episode, got %+v", event)
	}
}

func TestFetchNextEpisodeIgnoresOldPreviousEpisode(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Severed",
			"_embedded": {
				"previousepisode": {"name": "Old One", "airstamp": "2026-02-23T02:00:00Z"},
				"nextepisode": {"name": "New One", "airstamp": "2026-03-09T02:00:00Z"}
			}
		}`))
	})

	event, err := client.FetchNextEpisode(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchNextEpisode error: %v", err)
	}
	if event == nil || event.EpisodeName != "New One" {
		t.Fatalf("expected the next episode, got %+v", event)
	}
}

func TestFetchNextEpisodeNoEmbeddedData(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Dormant Show"}`))
	})

	event, err := client.FetchNextEpisode(context.Background(), 9)
	if err != nil {
		t.Fatalf("FetchNextEpisode error: %v", err)
	}
	if event != nil {
		t.Fatalf("expected no event, got %+v", event)
	}
}

func TestFetchNextEpisodeOnlyPreviousNotToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Finished Show",
			"_embedded": {
				"previousepisode": {"name": "Finale", "airstamp": "2025-05-01T02:00:00Z"}
			}
		}`))
	})

	event, err := client.FetchNextEpisode(context.Background(), 9)
	if err != nil {
		t.Fatalf("FetchNextEpisode error: %v", err)
	}
	if event != nil {
		t.Fatalf("expected no event, got %+v", event)
	}
}

func TestFetchNextEpisodeMissingName(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_embedded": {}}`))
	})

	if _, err := client.FetchNextEpisode(context.Background(), 3); err == nil {
		t.Fatal("expected error for missing show name")
	}
}

func TestFetchNextEpisodeMissingAirstamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Broken Feed",
			"_embedded": {"nextepisode": {"name": "Mystery"}}
		}`))
	})

	if _, err := client.FetchNextEpisode(context.Background(), 3); err == nil {
		t.Fatal("expected error for missing airstamp")
	}
}

func TestFetchNextEpisodeDefaultsEpisodeName(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"name": "Quiet Show",
			"_embedded": {"nextepisode": {"airstamp": "2026-03-05T02:00:00Z"}}
		}`))
	})

	event, err := client.FetchNextEpisode(context.Background(), 3)
	if err != nil {
		t.Fatalf("FetchNextEpisode error: %v", err)
	}
	if event.EpisodeName != "TBA" {
		t.Fatalf("expected TBA fallback, got %s", event.EpisodeName)
	}
}

func TestFetchNextEpisodeServerError(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, now, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := client.FetchNextEpisode(context.Background(), 404); err == nil {
		t.Fatal("expected error for non-success status")
	}
}
