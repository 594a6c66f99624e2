package httpapi

import (
	"net/http"

	"github.com/othaldo/luftcheck/internal/utils"
)

// ConnectionChecker reports whether an optional backend link is up.
type ConnectionChecker interface {
	IsConnected() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	mqtt ConnectionChecker
}

func NewHealthchecker(mqtt ConnectionChecker) healthchecker {
	return &healthcheckerImpl{mqtt: mqtt}
}

// handleHealthz always answers 200: the advisor works over HTTP without MQTT.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	mqttState := "disabled"
	if h.mqtt != nil {
		mqttState = "disconnected"
		if h.mqtt.IsConnected() {
			mqttState = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "mqtt": mqttState})
}

func registerHealthcheck(mux *http.ServeMux, mqtt ConnectionChecker) {
	healthchecker := NewHealthchecker(mqtt)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
