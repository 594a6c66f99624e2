package controller

import (
	"context"
	"net/http"

	"github.com/othaldo/luftcheck/internal/forecast"
	"github.com/othaldo/luftcheck/internal/modules/ventilation/service"
)

type VentilationService interface {
	Location() (service.Location, bool)
	SetLocation(loc service.Location) error
	ResolveLocation(ctx context.Context, query string) (service.Location, error)
	CurrentOutdoor(ctx context.Context) (forecast.Conditions, error)
	Outlook(ctx context.Context) ([]forecast.Conditions, error)
	Recommend(ctx context.Context, indoorTempC, indoorRHPct float64) (forecast.Recommendation, error)
}

type VentilationController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type ventilationControllerImpl struct {
	service VentilationService
}

func NewVentilationController(service VentilationService) VentilationController {
	return &ventilationControllerImpl{service: service}
}

func (c *ventilationControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/humidity", c.handleHumidity)
	mux.HandleFunc("GET /api/v1/location", c.handleGetLocation)
	mux.HandleFunc("PUT /api/v1/location", c.handlePutLocation)
	mux.HandleFunc("GET /api/v1/outdoor", c.handleOutdoor)
	mux.HandleFunc("GET /api/v1/outlook", c.handleOutlook)
	mux.HandleFunc("GET /api/v1/recommendation", c.handleRecommendation)
}
