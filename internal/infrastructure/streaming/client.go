package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tvnotifier/internal/domain"
	"tvnotifier/internal/ports"
)

// Client talks to the streaming-availability API on RapidAPI to resolve
// which platforms currently offer a movie.
type Client struct {
	baseURL string
	apiKey  string
	country string
	httpc   *http.Client
}

var _ ports.AvailabilitySource = (*Client)(nil)

// NewClient creates a reusable availability client for a fixed country.
func NewClient(baseURL, apiKey, country string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if country == "" {
		country = "us"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		country: country,
		httpc:   httpc,
	}
}

type availabilityPayload struct {
	Result struct {
		Title         string                  `json:"title"`
		StreamingInfo map[string][]offerEntry `json:"streamingInfo"`
	} `json:"result"`
}

type offerEntry struct {
	Service       string `json:"service"`
	StreamingType string `json:"streamingType"`
	Addon         string `json:"addon"`
}

// FetchAvailability returns the movie title and the platforms offering it
// under subscription or add-on access. For add-on offers the effective
// platform is the add-on's own name when present, not the umbrella service.
func (c *Client) FetchAvailability(ctx context.Context, movieID int) (domain.MovieAvailability, error) {
	endpoint := fmt.Sprintf("%s/get?output_language=en&tmdb_id=movie/%d", c.baseURL, movieID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.MovieAvailability{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.hostHeader())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return domain.MovieAvailability{}, fmt.Errorf("request movie %d: %w", movieID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.MovieAvailability{}, fmt.Errorf("availability API returned %s for movie %d: %s",
			resp.Status, movieID, strings.TrimSpace(string(body)))
	}

	var payload availabilityPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.MovieAvailability{}, fmt.Errorf("decode movie %d: %w", movieID, err)
	}

	platforms := make([]string, 0)
	for _, offer := range payload.Result.StreamingInfo[c.country] {
		if offer.StreamingType != "subscription" && offer.StreamingType != "addon" {
			continue
		}
		name := offer.Service
		if offer.Addon != "" {
			name = offer.Addon
		}
		platforms = append(platforms, name)
	}

	return domain.MovieAvailability{
		Title:     payload.Result.Title,
		Platforms: platforms,
	}, nil
}

func (c *Client) hostHeader() string {
	if parsed, err := url.Parse(c.baseURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return c.baseURL
}
