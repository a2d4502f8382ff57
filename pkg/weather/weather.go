// Package weather looks up current conditions from OpenWeatherMap so the
// watering policy can hold off when rain is already doing the job.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// PlaceholderAPIKey is the unconfigured key the install instructions leave
// behind. It disables lookups exactly like an empty key does.
const PlaceholderAPIKey = "YOUR_OPENWEATHERMAP_API_KEY"

const defaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"

// ErrDisabled is returned when no usable API key is configured.
var ErrDisabled = errors.New("weather lookups disabled: no API key")

// Conditions is the result of one current-weather lookup.
type Conditions struct {
	Description string
	Raining     bool
	FetchedAt   time.Time
}

// Client fetches current conditions for a fixed city. A circuit breaker
// wraps the upstream so a dead or misconfigured API stops costing a full
// timeout on every attempt.
type Client struct {
	apiKey  string
	city    string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// New creates a client for the given API key and city (OpenWeatherMap
// "City,cc" form). The key may be empty or the placeholder, in which case
// the client reports itself disabled.
func New(apiKey, city string) *Client {
	return &Client{
		apiKey:  apiKey,
		city:    city,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openweathermap",
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Enabled reports whether a usable API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.apiKey != PlaceholderAPIKey
}

// owmResponse is the subset of the current-weather payload the daemon uses.
type owmResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches the current conditions, one attempt through the breaker.
// Returns gobreaker.ErrOpenState without touching the network while the
// breaker is open.
func (c *Client) Current(ctx context.Context) (Conditions, error) {
	if !c.Enabled() {
		return Conditions{}, ErrDisabled
	}

	res, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		fetchFailuresTotal.Inc()
		return Conditions{}, err
	}

	fetchesTotal.Inc()
	return res.(Conditions), nil
}

func (c *Client) fetch(ctx context.Context) (Conditions, error) {
	q := url.Values{}
	q.Set("q", c.city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Conditions{}, fmt.Errorf("weather upstream status %d", resp.StatusCode)
	}

	var out owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Conditions{}, fmt.Errorf("decode weather response: %w", err)
	}
	if len(out.Weather) == 0 {
		return Conditions{}, fmt.Errorf("weather response carries no conditions")
	}

	w := out.Weather[0]
	return Conditions{
		Description: capitalize(w.Description),
		Raining:     isPrecipitation(w.ID),
		FetchedAt:   time.Now(),
	}, nil
}

// isPrecipitation maps an OpenWeatherMap condition ID to "water is already
// falling". Groups 2xx (thunderstorm), 3xx (drizzle), 5xx (rain) and 6xx
// (snow) all count; 7xx (atmosphere) and 80x (clouds/clear) do not.
func isPrecipitation(id int) bool {
	switch id / 100 {
	case 2, 3, 5, 6:
		return true
	}
	return false
}

// capitalize upper-cases the first letter of the lowercase descriptions the
// API returns ("light rain" → "Light rain").
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
