package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/othaldo/luftcheck/internal/forecast"
	"github.com/othaldo/luftcheck/internal/geocode"
)

var (
	ErrLocationMissing = errors.New("no location set")
	ErrInvalidLocation = errors.New("invalid location")
	ErrPlaceNotFound   = errors.New("place not found")
	ErrNoCurrentHour   = errors.New("forecast does not cover the current hour")
)

const sharedFetchTimeout = 30 * time.Second

type ForecastFetcher interface {
	FetchHourly(ctx context.Context, lat, lon float64) (forecast.Series, error)
}

type Geocoder interface {
	Search(ctx context.Context, query string) (geocode.Place, error)
}

type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
}

func (l Location) validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidLocation, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

type Options struct {
	// MaxAge bounds how long a fetched forecast is reused. Zero reuses it until
	// the location changes.
	MaxAge time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

// Service owns the selected location and the forecast fetched for it.
type Service struct {
	fetcher  ForecastFetcher
	geocoder Geocoder
	maxAge   time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu         sync.Mutex
	location   *Location
	generation uint64
	series     *forecast.Series
	fetchedAt  time.Time

	fetches singleflight.Group
}

func NewService(fetcher ForecastFetcher, geocoder Geocoder, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		fetcher:  fetcher,
		geocoder: geocoder,
		maxAge:   opts.MaxAge,
		now:      opts.Now,
		logger:   opts.Logger,
	}
}

// SetLocation replaces the current location and drops the cached forecast.
func (s *Service) SetLocation(loc Location) error {
	if err := loc.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.location = &loc
	s.generation++
	s.series = nil
	s.fetchedAt = time.Time{}
	s.mu.Unlock()

	s.logger.Info("location set",
		"latitude", loc.Latitude,
		"longitude", loc.Longitude,
		"name", loc.Name,
	)
	return nil
}

// ResolveLocation geocodes query and makes the match the current location.
func (s *Service) ResolveLocation(ctx context.Context, query string) (Location, error) {
	place, err := s.geocoder.Search(ctx, query)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) || errors.Is(err, geocode.ErrEmptyQuery) {
			return Location{}, fmt.Errorf("%w: %q", ErrPlaceNotFound, query)
		}
		return Location{}, fmt.Errorf("resolve location: %w", err)
	}

	loc := Location{Latitude: place.Latitude, Longitude: place.Longitude, Name: place.DisplayName}
	if err := s.SetLocation(loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}

func (s *Service) Location() (Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return Location{}, false
	}
	return *s.location, true
}

// Series returns the forecast for the current location, fetching it when no
// fresh copy is cached. Concurrent callers share one fetch.
func (s *Service) Series(ctx context.Context) (forecast.Series, error) {
	s.mu.Lock()
	if s.location == nil {
		s.mu.Unlock()
		return forecast.Series{}, ErrLocationMissing
	}
	if s.series != nil && s.fresh() {
		series := *s.series
		s.mu.Unlock()
		return series, nil
	}
	loc := *s.location
	gen := s.generation
	s.mu.Unlock()

	// The shared fetch outlives any single caller; each caller waits on its own ctx.
	ch := s.fetches.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return s.fetch(fetchCtx, loc, gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return forecast.Series{}, res.Err
		}
		return res.Val.(forecast.Series), nil
	case <-ctx.Done():
		return forecast.Series{}, ctx.Err()
	}
}

func (s *Service) fetch(ctx context.Context, loc Location, gen uint64) (forecast.Series, error) {
	series, err := s.fetcher.FetchHourly(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return forecast.Series{}, fmt.Errorf("fetch forecast for %.4f,%.4f: %w", loc.Latitude, loc.Longitude, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// The location changed while fetching; the result belongs to the old one.
		s.logger.Debug("discarding forecast for replaced location", "latitude", loc.Latitude, "longitude", loc.Longitude)
		return series, nil
	}
	s.series = &series
	s.fetchedAt = s.now()
	s.logger.Info("forecast cached",
		"hours", series.Len(),
		"start", series.Start(),
		"end", series.End(),
	)
	return series, nil
}

// fresh reports whether the cached series may be reused. Callers hold s.mu.
func (s *Service) fresh() bool {
	return s.maxAge == 0 || s.now().Sub(s.fetchedAt) < s.maxAge
}

// Recommend compares the indoor reading against the forecast at the current hour.
// Non-finite indoor values yield VerdictInsufficientInput without a fetch.
func (s *Service) Recommend(ctx context.Context, indoorTempC, indoorRHPct float64) (forecast.Recommendation, error) {
	now := s.now()
	if !isFinite(indoorTempC) || !isFinite(indoorRHPct) {
		return forecast.Recommend(forecast.Series{}, now, indoorTempC, indoorRHPct), nil
	}

	series, err := s.Series(ctx)
	if err != nil {
		return forecast.Recommendation{}, err
	}

	rec := forecast.Recommend(series, now, indoorTempC, indoorRHPct)
	s.logger.Debug("recommendation computed",
		"verdict", rec.Verdict,
		"indoor_temp_c", indoorTempC,
		"indoor_rh_pct", indoorRHPct,
	)
	return rec, nil
}

// CurrentOutdoor returns the forecast conditions for the current hour.
func (s *Service) CurrentOutdoor(ctx context.Context) (forecast.Conditions, error) {
	series, err := s.Series(ctx)
	if err != nil {
		return forecast.Conditions{}, err
	}
	c, ok := forecast.CurrentConditions(series, s.now())
	if !ok {
		return forecast.Conditions{}, ErrNoCurrentHour
	}
	return c, nil
}

// Outlook returns the forecast from the current hour onwards.
func (s *Service) Outlook(ctx context.Context) ([]forecast.Conditions, error) {
	series, err := s.Series(ctx)
	if err != nil {
		return nil, err
	}
	return forecast.Outlook(series, s.now()), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
