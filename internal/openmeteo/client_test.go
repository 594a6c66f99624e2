package openmeteo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/othaldo/luftcheck/internal/forecast"
)

const berlinPayload = `{
  "latitude": 52.52,
  "longitude": 13.419998,
  "generationtime_ms": 0.05,
  "utc_offset_seconds": 7200,
  "timezone": "Europe/Berlin",
  "timezone_abbreviation": "CEST",
  "elevation": 38.0,
  "hourly_units": {"time": "iso8601", "temperature_2m": "°C", "relative_humidity_2m": "%"},
  "hourly": {
    "time": ["2026-06-01T00:00", "2026-06-01T01:00", "2026-06-01T02:00"],
    "temperature_2m": [14.2, null, 12.9],
    "relative_humidity_2m": [81, 84, null]
  }
}`

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchHourly(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, berlinPayload, func(r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("path = %q; want /v1/forecast", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("latitude"); got != "52.52" {
			t.Errorf("latitude = %q; want 52.52", got)
		}
		if got := q.Get("longitude"); got != "13.41" {
			t.Errorf("longitude = %q; want 13.41", got)
		}
		if got := q.Get("hourly"); got != "temperature_2m,relative_humidity_2m" {
			t.Errorf("hourly = %q; want temperature_2m,relative_humidity_2m", got)
		}
		if got := q.Get("timezone"); got != "auto" {
			t.Errorf("timezone = %q; want auto", got)
		}
	})

	c := NewClient(srv.URL, srv.Client(), nil)
	series, err := c.FetchHourly(context.Background(), 52.52, 13.41)
	if err != nil {
		t.Fatalf("FetchHourly() error = %v, want nil", err)
	}

	if series.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", series.Len())
	}

	first := series.At(0)
	wantFirst := time.Date(2026, 5, 31, 22, 0, 0, 0, time.UTC)
	if !first.Time.Equal(wantFirst) {
		t.Errorf("At(0).Time = %v; want %v", first.Time, wantFirst)
	}
	if first.Time.Hour() != 0 {
		t.Errorf("At(0).Time.Hour() = %d; want local hour 0", first.Time.Hour())
	}
	if name, offset := first.Time.Zone(); name != "CEST" || offset != 7200 {
		t.Errorf("At(0).Time.Zone() = %q, %d; want CEST, 7200", name, offset)
	}
	if first.TemperatureC != 14.2 || first.RelativeHumidityPct != 81 {
		t.Errorf("At(0) = %+v; want 14.2 °C / 81 %%", first)
	}
	if !math.IsNaN(series.At(1).TemperatureC) {
		t.Errorf("At(1).TemperatureC = %v; want NaN for null", series.At(1).TemperatureC)
	}
	if !math.IsNaN(series.At(2).RelativeHumidityPct) {
		t.Errorf("At(2).RelativeHumidityPct = %v; want NaN for null", series.At(2).RelativeHumidityPct)
	}

	now := time.Date(2026, 5, 31, 23, 30, 0, 0, time.UTC)
	if got := forecast.FindCurrentIndex(series, now); got != 1 {
		t.Errorf("FindCurrentIndex(%v) = %d; want 1", now, got)
	}
}

func TestFetchHourly_APIError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest,
		`{"error": true, "reason": "Latitude must be in range of -90 to 90°. Given: 91.0."}`, nil)

	c := NewClient(srv.URL, srv.Client(), nil)
	_, err := c.FetchHourly(context.Background(), 50, 10)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("FetchHourly() error = %v; want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d; want %d", apiErr.StatusCode, http.StatusBadRequest)
	}
	if apiErr.Reason != "Latitude must be in range of -90 to 90°. Given: 91.0." {
		t.Errorf("Reason = %q", apiErr.Reason)
	}
}

func TestFetchHourly_PlainTextError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadGateway, "upstream down\n", nil)

	c := NewClient(srv.URL, srv.Client(), nil)
	_, err := c.FetchHourly(context.Background(), 50, 10)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("FetchHourly() error = %v; want *APIError", err)
	}
	if apiErr.Reason != "upstream down" {
		t.Errorf("Reason = %q; want %q", apiErr.Reason, "upstream down")
	}
}

func TestFetchHourly_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>`},
		{
			name: "array length mismatch",
			body: `{"utc_offset_seconds":0,"hourly":{"time":["2026-06-01T00:00","2026-06-01T01:00"],"temperature_2m":[1],"relative_humidity_2m":[50,60]}}`,
		},
		{
			name: "bad timestamp",
			body: `{"utc_offset_seconds":0,"hourly":{"time":["yesterday"],"temperature_2m":[1],"relative_humidity_2m":[50]}}`,
		},
		{
			name: "gap in the hours",
			body: `{"utc_offset_seconds":0,"hourly":{"time":["2026-06-01T00:00","2026-06-01T02:00"],"temperature_2m":[1,2],"relative_humidity_2m":[50,60]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, tt.body, nil)
			c := NewClient(srv.URL, srv.Client(), nil)

			_, err := c.FetchHourly(context.Background(), 50, 10)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("FetchHourly() error = %v; want %v", err, ErrMalformedResponse)
			}
		})
	}
}

func TestFetchHourly_InvalidCoordinates(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", nil, nil)

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{name: "latitude too high", lat: 90.5, lon: 0},
		{name: "latitude too low", lat: -91, lon: 0},
		{name: "longitude too high", lat: 0, lon: 181},
		{name: "latitude NaN", lat: math.NaN(), lon: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.FetchHourly(context.Background(), tt.lat, tt.lon)
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("FetchHourly(%v, %v) error = %v; want %v", tt.lat, tt.lon, err, ErrInvalidCoordinates)
			}
		})
	}
}

func TestFetchHourly_ContextCanceled(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, berlinPayload, nil)
	c := NewClient(srv.URL, srv.Client(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.FetchHourly(ctx, 52.52, 13.41); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchHourly() error = %v; want %v", err, context.Canceled)
	}
}

func TestForecastResponse_Series_FallsBackToTimezoneName(t *testing.T) {
	r := ForecastResponse{
		UTCOffsetSeconds: 0,
		Timezone:         "GMT",
		Hourly: HourlyData{
			Time:             []string{"2026-06-01T00:00"},
			Temperature:      []*float64{ptr(1.5)},
			RelativeHumidity: []*float64{ptr(90)},
		},
	}

	s, err := r.Series()
	if err != nil {
		t.Fatalf("Series() error = %v, want nil", err)
	}
	if name, _ := s.At(0).Time.Zone(); name != "GMT" {
		t.Errorf("zone name = %q; want GMT", name)
	}
}

func ptr(v float64) *float64 { return &v }
