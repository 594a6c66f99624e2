package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/othaldo/luftcheck/internal/modules/ventilation/types"
	"github.com/othaldo/luftcheck/internal/mqtt"
)

const telemetryTimeout = 15 * time.Second

// MQTTSubscriber is the side of the MQTT client that delivers telemetry.
type MQTTSubscriber interface {
	SetMessageHandler(handler mqtt.MessageHandler)
}

// Publisher sends a recommendation back to a station.
type Publisher interface {
	PublishRecommendation(stationID string, payload any) error
}

// RegisterMQTT answers every telemetry message with a recommendation published
// for the reporting station.
func (s *Service) RegisterMQTT(subscriber MQTTSubscriber, publisher Publisher) {
	subscriber.SetMessageHandler(func(telemetry mqtt.Telemetry) error {
		return s.HandleTelemetry(telemetry, publisher)
	})
}

// HandleTelemetry computes the recommendation for a station's indoor reading
// and publishes it. Readings without temperature or humidity are answered
// with VerdictInsufficientInput.
func (s *Service) HandleTelemetry(telemetry mqtt.Telemetry, publisher Publisher) error {
	s.logger.Debug("processing telemetry message",
		"station_id", telemetry.StationID,
		"timestamp", telemetry.Timestamp,
	)

	ctx, cancel := context.WithTimeout(context.Background(), telemetryTimeout)
	defer cancel()

	rec, err := s.Recommend(ctx, valueOrNaN(telemetry.Temperature), valueOrNaN(telemetry.Humidity))
	if err != nil {
		return fmt.Errorf("recommend for station %s: %w", telemetry.StationID, err)
	}

	payload := types.NewRecommendation(rec)
	payload.StationID = telemetry.StationID
	if err := publisher.PublishRecommendation(telemetry.StationID, payload); err != nil {
		return err
	}

	s.logger.Debug("published recommendation",
		"station_id", telemetry.StationID,
		"verdict", rec.Verdict,
	)
	return nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
