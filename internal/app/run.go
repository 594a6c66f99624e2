package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/othaldo/luftcheck/internal/config"
	"github.com/othaldo/luftcheck/internal/geocode"
	"github.com/othaldo/luftcheck/internal/httpapi"
	"github.com/othaldo/luftcheck/internal/modules/ventilation"
	"github.com/othaldo/luftcheck/internal/modules/ventilation/service"
	"github.com/othaldo/luftcheck/internal/mqtt"
	"github.com/othaldo/luftcheck/internal/openmeteo"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"forecastBaseURL", cfg.ForecastBaseURL,
		"geocodeBaseURL", cfg.GeocodeBaseURL,
		"httpClientTimeout", cfg.HTTPClientTimeout,
		"forecastMaxAge", cfg.ForecastMaxAge,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTelemetryTopic,
	)

	logger := slog.Default()
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	svc := service.NewService(
		openmeteo.NewClient(cfg.ForecastBaseURL, httpClient, logger),
		geocode.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent, httpClient, logger),
		service.Options{MaxAge: cfg.ForecastMaxAge, Logger: logger},
	)
	if loc := cfg.DefaultLocation; loc != nil {
		if err := svc.SetLocation(service.Location{Latitude: loc.Latitude, Longitude: loc.Longitude, Name: loc.Name}); err != nil {
			return err
		}
	}

	mqttClient, err := mqtt.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	// Set MQTT handler before Connect so OnConnectHandler can subscribe immediately.
	mux := httpapi.NewMux(mqttClient)
	ventilation.RegisterFeature(mux, svc, mqttClient)

	// Use a short timeout for initial MQTT connect so we don't block startup when broker is down.
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = mqttClient.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		mqttClient.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	mqttClient.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
