package controller

import (
	"net/http"

	"github.com/othaldo/luftcheck/internal/humidity"
	"github.com/othaldo/luftcheck/internal/modules/ventilation/service"
	"github.com/othaldo/luftcheck/internal/modules/ventilation/types"
	"github.com/othaldo/luftcheck/internal/utils"
)

const maxLocationBody = 4 << 10

func (c *ventilationControllerImpl) handleHumidity(w http.ResponseWriter, r *http.Request) {
	temp, rh, err := parseHumidityQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, types.Humidity{
		TemperatureC:        temp,
		RelativeHumidityPct: rh,
		AbsoluteHumidity:    humidity.AbsoluteHumidity(temp, rh),
	})
}

func (c *ventilationControllerImpl) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, ok := c.service.Location()
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "no location set")
		return
	}
	utils.WriteJSON(w, http.StatusOK, toLocation(loc))
}

func (c *ventilationControllerImpl) handlePutLocation(w http.ResponseWriter, r *http.Request) {
	var req types.LocationRequest
	if err := utils.DecodeJSON(w, r, maxLocationBody, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateLocationRequest(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Query != "" {
		loc, err := c.service.ResolveLocation(r.Context(), req.Query)
		if err != nil {
			writeServiceError(w, "resolve location", err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, toLocation(loc))
		return
	}

	loc := service.Location{Latitude: *req.Latitude, Longitude: *req.Longitude, Name: req.Name}
	if err := c.service.SetLocation(loc); err != nil {
		writeServiceError(w, "set location", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toLocation(loc))
}

func (c *ventilationControllerImpl) handleOutdoor(w http.ResponseWriter, r *http.Request) {
	cond, err := c.service.CurrentOutdoor(r.Context())
	if err != nil {
		writeServiceError(w, "outdoor conditions", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.NewConditions(cond))
}

func (c *ventilationControllerImpl) handleOutlook(w http.ResponseWriter, r *http.Request) {
	outlook, err := c.service.Outlook(r.Context())
	if err != nil {
		writeServiceError(w, "outlook", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.NewConditionsList(outlook))
}

func (c *ventilationControllerImpl) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	temp, rh, err := parseIndoorQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := c.service.Recommend(r.Context(), temp, rh)
	if err != nil {
		writeServiceError(w, "recommendation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, types.NewRecommendation(rec))
}

func toLocation(loc service.Location) types.Location {
	return types.Location{Latitude: loc.Latitude, Longitude: loc.Longitude, Name: loc.Name}
}
