package types

import (
	"math"
	"time"

	"github.com/othaldo/luftcheck/internal/forecast"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// LocationRequest sets the location either by coordinates or by a place query.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Name      string   `json:"name,omitempty"`
	Query     string   `json:"query,omitempty"`
}

type Humidity struct {
	TemperatureC        float64 `json:"temperatureC"`
	RelativeHumidityPct float64 `json:"relativeHumidityPct"`
	AbsoluteHumidity    float64 `json:"absoluteHumidity"`
}

// Conditions is a reading as sent to clients. Values the forecast does not
// have are null.
type Conditions struct {
	Time                time.Time `json:"time"`
	TemperatureC        *float64  `json:"temperatureC"`
	RelativeHumidityPct *float64  `json:"relativeHumidityPct"`
	AbsoluteHumidity    *float64  `json:"absoluteHumidity"`
}

type Recommendation struct {
	StationID      string      `json:"stationId,omitempty"`
	Verdict        string      `json:"verdict"`
	Message        string      `json:"message"`
	MarginGM3      float64     `json:"marginGm3"`
	Indoor         *Conditions `json:"indoor"`
	CurrentOutdoor *Conditions `json:"currentOutdoor"`
	NextGoodTime   *time.Time  `json:"nextGoodTime"`
}

func NewConditions(c forecast.Conditions) Conditions {
	return Conditions{
		Time:                c.Time,
		TemperatureC:        finiteOrNil(c.TemperatureC),
		RelativeHumidityPct: finiteOrNil(c.RelativeHumidityPct),
		AbsoluteHumidity:    finiteOrNil(c.AbsoluteHumidity),
	}
}

func NewConditionsList(cs []forecast.Conditions) []Conditions {
	out := make([]Conditions, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewConditions(c))
	}
	return out
}

func NewRecommendation(rec forecast.Recommendation) Recommendation {
	out := Recommendation{
		Verdict:      string(rec.Verdict),
		Message:      verdictMessage(rec),
		MarginGM3:    forecast.VentilationMarginGM3,
		NextGoodTime: rec.NextGoodTime,
	}
	if rec.Indoor != nil {
		c := NewConditions(*rec.Indoor)
		out.Indoor = &c
	}
	if rec.CurrentOutdoor != nil {
		c := NewConditions(*rec.CurrentOutdoor)
		out.CurrentOutdoor = &c
	}
	return out
}

func verdictMessage(rec forecast.Recommendation) string {
	switch rec.Verdict {
	case forecast.VerdictGoodNow:
		return "Now is a good time to ventilate."
	case forecast.VerdictWait:
		return "Keep the windows closed for now. Next good time to ventilate: " +
			rec.NextGoodTime.Format("02.01. 15:04") + "."
	case forecast.VerdictNoWindowToday:
		return "No good time to ventilate in the forecast."
	default:
		if rec.Indoor == nil {
			return "Enter both indoor temperature and relative humidity."
		}
		return "No outdoor reading for the current hour."
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
