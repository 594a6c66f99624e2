// Package openmeteo fetches hourly temperature and humidity forecasts from the
// Open-Meteo API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/othaldo/luftcheck/internal/forecast"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com"

	forecastPath    = "/v1/forecast"
	hourlyVariables = "temperature_2m,relative_humidity_2m"
	timeLayout      = "2006-01-02T15:04"
	maxErrorBody    = 4 << 10
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrMalformedResponse  = errors.New("malformed forecast response")
)

// APIError is returned when the API answers with a non-200 status.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("open-meteo: status %d", e.StatusCode)
	}
	return fmt.Sprintf("open-meteo: status %d: %s", e.StatusCode, e.Reason)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
// A nil httpClient falls back to one with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchHourly returns the hourly forecast for the given coordinates in the
// location's local timezone.
func (c *Client) FetchHourly(ctx context.Context, lat, lon float64) (forecast.Series, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return forecast.Series{}, err
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("hourly", hourlyVariables)
	params.Set("timezone", "auto")
	requestURL := c.baseURL + forecastPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return forecast.Series{}, fmt.Errorf("build forecast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return forecast.Series{}, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return forecast.Series{}, decodeAPIError(resp)
	}

	var payload ForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return forecast.Series{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	series, err := payload.Series()
	if err != nil {
		return forecast.Series{}, err
	}

	c.logger.Debug("fetched forecast",
		"latitude", lat,
		"longitude", lon,
		"timezone", payload.Timezone,
		"hours", series.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return series, nil
}

// Series converts the parallel hourly arrays into a forecast.Series. Timestamps
// are local wall-clock times at the response's UTC offset.
func (r ForecastResponse) Series() (forecast.Series, error) {
	h := r.Hourly
	if len(h.Temperature) != len(h.Time) || len(h.RelativeHumidity) != len(h.Time) {
		return forecast.Series{}, fmt.Errorf("%w: %d times, %d temperatures, %d humidities",
			ErrMalformedResponse, len(h.Time), len(h.Temperature), len(h.RelativeHumidity))
	}

	name := r.TimezoneAbbreviation
	if name == "" {
		name = r.Timezone
	}
	loc := time.FixedZone(name, r.UTCOffsetSeconds)

	samples := make([]forecast.HourlySample, len(h.Time))
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation(timeLayout, raw, loc)
		if err != nil {
			return forecast.Series{}, fmt.Errorf("%w: time[%d] %q: %v", ErrMalformedResponse, i, raw, err)
		}
		samples[i] = forecast.HourlySample{
			Time:                ts,
			TemperatureC:        valueOrNaN(h.Temperature[i]),
			RelativeHumidityPct: valueOrNaN(h.RelativeHumidity[i]),
		}
	}

	series, err := forecast.NewSeries(samples, loc)
	if err != nil {
		return forecast.Series{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return series, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var payload errorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Reason != "" {
		apiErr.Reason = payload.Reason
	} else {
		apiErr.Reason = strings.TrimSpace(string(body))
	}
	return apiErr
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinates, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinates, lon)
	}
	return nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
