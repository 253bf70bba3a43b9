// Package weatherapi is the WeatherAPI.com client: current conditions and a
// multi-day daily forecast with astronomical data, with retry, backoff, and
// a circuit breaker around every call.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.weatherapi.com/v1"

// Client talks to WeatherAPI.com for one fixed location.
type Client struct {
	apiKey   string
	location string
	baseURL  string
	client   *http.Client
	backoff  backoffConfig
	circuit  *gobreaker.CircuitBreaker
	logger   *zap.SugaredLogger
}

// NewClient creates a WeatherAPI.com client. location is passed verbatim as
// the provider's "q" parameter ("city,region" or "lat,lon").
func NewClient(httpClient *http.Client, apiKey, location string, logger *zap.SugaredLogger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:   apiKey,
		location: location,
		baseURL:  defaultBaseURL,
		client:   httpClient,
		backoff: backoffConfig{
			maxRetries:      3,
			initialInterval: 500 * time.Millisecond,
			maxInterval:     5 * time.Second,
		},
		circuit: cb,
		logger:  logger,
	}
}

// Current fetches the provider's current conditions snapshot.
func (c *Client) Current(ctx context.Context) (CurrentConditions, error) {
	if c.apiKey == "" {
		return CurrentConditions{}, fmt.Errorf("weatherapi key is not configured")
	}

	resp, err := c.get(ctx, "/current.json", url.Values{})
	if err != nil {
		return CurrentConditions{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current CurrentConditions `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CurrentConditions{}, fmt.Errorf("decode current conditions: %w", err)
	}
	return payload.Current, nil
}

// DailyForecast fetches up to days daily forecast entries, date-keyed and in
// provider order. Sunrise/sunset are attached to the first entry only.
func (c *Client) DailyForecast(ctx context.Context, days int) ([]ForecastDay, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("weatherapi key is not configured")
	}

	values := url.Values{}
	values.Set("days", fmt.Sprintf("%d", days))

	resp, err := c.get(ctx, "/forecast.json", values)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC          *float64      `json:"maxtemp_c"`
					MinTempC          *float64      `json:"mintemp_c"`
					DailyChanceOfRain *float64      `json:"daily_chance_of_rain"`
					Condition         ConditionText `json:"condition"`
				} `json:"day"`
				Astro struct {
					Sunrise string `json:"sunrise"`
					Sunset  string `json:"sunset"`
				} `json:"astro"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode daily forecast: %w", err)
	}

	out := make([]ForecastDay, 0, len(payload.Forecast.ForecastDay))
	for i, fd := range payload.Forecast.ForecastDay {
		entry := ForecastDay{
			Date:          fd.Date,
			MaxTempC:      fd.Day.MaxTempC,
			MinTempC:      fd.Day.MinTempC,
			RainChancePct: fd.Day.DailyChanceOfRain,
			Condition:     fd.Day.Condition.Label(),
		}
		if i == 0 {
			if fd.Astro.Sunrise != "" {
				entry.Sunrise = &fd.Astro.Sunrise
			}
			if fd.Astro.Sunset != "" {
				entry.Sunset = &fd.Astro.Sunset
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values) (*http.Response, error) {
	buildRequest := func() (*http.Request, error) {
		v := url.Values{}
		for key, vals := range values {
			for _, val := range vals {
				v.Add(key, val)
			}
		}
		v.Set("key", c.apiKey)
		v.Set("q", c.location)

		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, v.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.circuit, c.backoff, buildRequest)
	if err != nil {
		c.logger.Warnw("weatherapi call failed", "path", path, "error", err)
		return nil, err
	}
	return resp, nil
}
