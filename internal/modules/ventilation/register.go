package ventilation

import (
	"net/http"

	"github.com/othaldo/luftcheck/internal/modules/ventilation/controller"
	"github.com/othaldo/luftcheck/internal/modules/ventilation/service"
)

// MQTTClient is what the feature needs from the MQTT transport.
type MQTTClient interface {
	service.MQTTSubscriber
	service.Publisher
}

// RegisterFeature wires the ventilation routes onto mux and, when mqttClient is
// non-nil, answers station telemetry over MQTT.
func RegisterFeature(mux *http.ServeMux, svc *service.Service, mqttClient MQTTClient) {
	ventilationController := controller.NewVentilationController(svc)
	ventilationController.RegisterRoutes(mux)

	if mqttClient != nil {
		svc.RegisterMQTT(mqttClient, mqttClient)
	}
}
