package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/othaldo/luftcheck/internal/modules/ventilation/service"
	"github.com/othaldo/luftcheck/internal/modules/ventilation/types"
	"github.com/othaldo/luftcheck/internal/utils"
)

// parseHumidityQuery reads the required temp and rh parameters.
func parseHumidityQuery(r *http.Request) (temp, rh float64, err error) {
	q := r.URL.Query()

	temp, err = strconv.ParseFloat(strings.TrimSpace(q.Get("temp")), 64)
	if err != nil || math.IsNaN(temp) || math.IsInf(temp, 0) {
		return 0, 0, errors.New("invalid 'temp' (expected a number in °C)")
	}
	rh, err = strconv.ParseFloat(strings.TrimSpace(q.Get("rh")), 64)
	if err != nil || math.IsNaN(rh) || math.IsInf(rh, 0) {
		return 0, 0, errors.New("invalid 'rh' (expected a number in %)")
	}
	if rh < 0 || rh > 100 {
		return 0, 0, errors.New("'rh' must be between 0 and 100")
	}
	return temp, rh, nil
}

// parseIndoorQuery reads temp_in and rh_in. Missing or unparsable values come
// back as NaN so the recommendation reports insufficient input; a parsable
// humidity outside 0-100 is an error.
func parseIndoorQuery(r *http.Request) (temp, rh float64, err error) {
	q := r.URL.Query()
	temp = parseOptionalFloat(q.Get("temp_in"))
	rh = parseOptionalFloat(q.Get("rh_in"))
	if rh < 0 || rh > 100 {
		return 0, 0, errors.New("'rh_in' must be between 0 and 100")
	}
	return temp, rh, nil
}

func parseOptionalFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func validateLocationRequest(req types.LocationRequest) error {
	hasCoords := req.Latitude != nil || req.Longitude != nil
	query := strings.TrimSpace(req.Query)

	switch {
	case query != "" && hasCoords:
		return errors.New("give either 'query' or 'latitude'/'longitude', not both")
	case query == "" && !hasCoords:
		if req.Query != "" {
			return errors.New("'query' must not be blank")
		}
		return errors.New("missing 'query' or 'latitude'/'longitude'")
	case hasCoords && (req.Latitude == nil || req.Longitude == nil):
		return errors.New("'latitude' and 'longitude' must be given together")
	}
	return nil
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrLocationMissing):
		utils.WriteError(w, http.StatusConflict, "no location set; PUT /api/v1/location first")
	case errors.Is(err, service.ErrInvalidLocation):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlaceNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoCurrentHour):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		slog.Warn(op+" timed out", "error", err)
		utils.WriteError(w, http.StatusGatewayTimeout, fmt.Sprintf("%s: upstream timed out", op))
	default:
		slog.Error(op+" failed", "error", err)
		utils.WriteError(w, http.StatusBadGateway, fmt.Sprintf("%s: failed to fetch weather data", op))
	}
}
