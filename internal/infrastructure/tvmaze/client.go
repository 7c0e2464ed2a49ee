package tvmaze

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tvnotifier/internal/domain"
	"tvnotifier/internal/ports"
)

const fallbackEpisodeName = "TBA"

// Client fetches show metadata with embedded previous/next episodes from the
// TVMaze public API.
type Client struct {
	baseURL string
	httpc   *http.Client
	clock   ports.Clock
	loc     *time.Location
}

var _ ports.EpisodeSource = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 15s-timeout default.
func NewClient(baseURL string, httpc *http.Client, clock ports.Clock, loc *time.Location) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   httpc,
		clock:   clock,
		loc:     loc,
	}
}

type episodePayload struct {
	Name     string `json:"name"`
	Airstamp string `json:"airstamp"`
}

type showPayload struct {
	Name     string `json:"name"`
	Embedded *struct {
		PreviousEpisode *episodePayload `json:"previousepisode"`
		NextEpisode     *episodePayload `json:"nextepisode"`
	} `json:"_embedded"`
}

// FetchNextEpisode returns the episode worth announcing for a show: a
// previous episode that aired on the current local calendar date takes
// priority over the next scheduled one. A show with no embedded episode data
// yields (nil, nil) rather than an error.
func (c *Client) FetchNextEpisode(ctx context.Context, showID int) (*domain.ShowEvent, error) {
	url := fmt.Sprintf("%s/shows/%d?embed[]=nextepisode&embed[]=previousepisode", c.baseURL, showID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "tvnotifier/1.0")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request show %d: %w", showID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tvmaze returned %s for show %d", resp.Status, showID)
	}

	var show showPayload
	if err := json.NewDecoder(resp.Body).Decode(&show); err != nil {
		return nil, fmt.Errorf("decode show %d: %w", showID, err)
	}

	if show.Name == "" {
		return nil, fmt.Errorf("show %d: name missing in response", showID)
	}

	if show.Embedded == nil {
		return nil, nil
	}

	today := civilDate(c.clock.Now().In(c.loc))

	if prev := show.Embedded.PreviousEpisode; prev != nil {
		event, err := c.buildEvent(showID, show.Name, prev)
		if err != nil {
			return nil, err
		}
		if civilDate(event.AirTime.In(c.loc)).Equal(today) {
			return event, nil
		}
	}

	next := show.Embedded.NextEpisode
	if next == nil {
		return nil, nil
	}

	return c.buildEvent(showID, show.Name, next)
}

// buildEvent converts an embedded episode payload into a domain event. The
// airstamp is a critical field: absent or unparseable values propagate as
// errors instead of degrading to a zero time.
func (c *Client) buildEvent(showID int, showName string, ep *episodePayload) (*domain.ShowEvent, error) {
	if ep.Airstamp == "" {
		return nil, fmt.Errorf("show %d: episode airstamp missing", showID)
	}

	airTime, err := time.Parse(time.RFC3339, ep.Airstamp)
	if err != nil {
		return nil, fmt.Errorf("show %d: parse airstamp %q: %w", showID, ep.Airstamp, err)
	}

	name := strings.TrimSpace(ep.Name)
	if name == "" {
		name = fallbackEpisodeName
	}

	return &domain.ShowEvent{
		ShowID:      showID,
		ShowName:    showName,
		EpisodeName: name,
		AirTime:     airTime.In(c.loc),
	}, nil
}

// civilDate truncates a timestamp to its calendar date in its own location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
