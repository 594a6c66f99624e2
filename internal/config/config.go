package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	ForecastBaseURL   string
	GeocodeBaseURL    string
	GeocodeUserAgent  string
	HTTPClientTimeout time.Duration
	// ForecastMaxAge bounds how long a fetched forecast is reused. Zero keeps it
	// until the location changes.
	ForecastMaxAge time.Duration

	// DefaultLocation is set when both DEFAULT_LATITUDE and DEFAULT_LONGITUDE are given.
	DefaultLocation *Location

	MQTTBroker         string
	MQTTPort           int
	MQTTClientID       string
	MQTTTelemetryTopic string
}

type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := envOrDefault("HTTP_ADDR", ":8080")

	forecastBaseURL := envOrDefault("FORECAST_BASE_URL", "https://api.open-meteo.com")
	geocodeBaseURL := envOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org")
	geocodeUserAgent := envOrDefault("GEOCODE_USER_AGENT", "luftcheck/1.0")

	httpClientTimeout, err := parseDuration("HTTP_CLIENT_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	if httpClientTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_CLIENT_TIMEOUT must be positive, got %v", httpClientTimeout)
	}

	forecastMaxAge, err := parseDuration("FORECAST_MAX_AGE", "1h")
	if err != nil {
		return Config{}, err
	}
	if forecastMaxAge < 0 {
		return Config{}, fmt.Errorf("FORECAST_MAX_AGE must not be negative, got %v", forecastMaxAge)
	}

	defaultLocation, err := loadDefaultLocation()
	if err != nil {
		return Config{}, err
	}

	mqttBroker := envOrDefault("MQTT_BROKER", "localhost")
	mqttPortStr := envOrDefault("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT out of range: %d", mqttPort)
	}
	mqttClientID := envOrDefault("MQTT_CLIENT_ID", "luftcheck-server")
	mqttTelemetryTopic := envOrDefault("MQTT_TELEMETRY_TOPIC", "stations/+/telemetry")

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		HTTPAddr:           httpAddr,
		ForecastBaseURL:    forecastBaseURL,
		GeocodeBaseURL:     geocodeBaseURL,
		GeocodeUserAgent:   geocodeUserAgent,
		HTTPClientTimeout:  httpClientTimeout,
		ForecastMaxAge:     forecastMaxAge,
		DefaultLocation:    defaultLocation,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTClientID:       mqttClientID,
		MQTTTelemetryTopic: mqttTelemetryTopic,
	}, nil
}

func loadDefaultLocation() (*Location, error) {
	latStr := strings.TrimSpace(os.Getenv("DEFAULT_LATITUDE"))
	lonStr := strings.TrimSpace(os.Getenv("DEFAULT_LONGITUDE"))
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("DEFAULT_LATITUDE and DEFAULT_LONGITUDE must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LATITUDE %q: %w", latStr, err)
	}
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("DEFAULT_LATITUDE out of range [-90, 90]: %v", lat)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LONGITUDE %q: %w", lonStr, err)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("DEFAULT_LONGITUDE out of range [-180, 180]: %v", lon)
	}

	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      strings.TrimSpace(os.Getenv("DEFAULT_LOCATION_NAME")),
	}, nil
}

func envOrDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
