package openmeteo

// ForecastResponse is the subset of the /v1/forecast payload the client reads.
type ForecastResponse struct {
	Latitude             float64     `json:"latitude"`
	Longitude            float64     `json:"longitude"`
	GenerationTimeMs     float64     `json:"generationtime_ms"`
	UTCOffsetSeconds     int         `json:"utc_offset_seconds"`
	Timezone             string      `json:"timezone"`
	TimezoneAbbreviation string      `json:"timezone_abbreviation"`
	Elevation            float64     `json:"elevation"`
	HourlyUnits          HourlyUnits `json:"hourly_units"`
	Hourly               HourlyData  `json:"hourly"`
}

type HourlyUnits struct {
	Time             string `json:"time"`
	Temperature      string `json:"temperature_2m"`
	RelativeHumidity string `json:"relative_humidity_2m"`
}

// HourlyData holds the parallel hourly arrays. The provider emits null for
// hours it has no value for.
type HourlyData struct {
	Time             []string   `json:"time"`
	Temperature      []*float64 `json:"temperature_2m"`
	RelativeHumidity []*float64 `json:"relative_humidity_2m"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}
