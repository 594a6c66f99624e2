package forecast

import (
	"math"
	"time"

	"github.com/othaldo/luftcheck/internal/humidity"
)

type Verdict string

const (
	VerdictGoodNow           Verdict = "GOOD_NOW"
	VerdictWait              Verdict = "WAIT"
	VerdictNoWindowToday     Verdict = "NO_WINDOW_TODAY"
	VerdictInsufficientInput Verdict = "INSUFFICIENT_INPUT"
)

// Conditions is a temperature/humidity reading with its derived absolute humidity.
type Conditions struct {
	Time                time.Time
	TemperatureC        float64
	RelativeHumidityPct float64
	AbsoluteHumidity    float64
}

func conditionsOf(sample HourlySample) Conditions {
	return Conditions{
		Time:                sample.Time,
		TemperatureC:        sample.TemperatureC,
		RelativeHumidityPct: sample.RelativeHumidityPct,
		AbsoluteHumidity:    sample.AbsoluteHumidity(),
	}
}

// Recommendation is the outcome of comparing indoor air against the forecast.
// Indoor, CurrentOutdoor and NextGoodTime are nil when they could not be determined.
type Recommendation struct {
	Verdict        Verdict
	Indoor         *Conditions
	CurrentOutdoor *Conditions
	NextGoodTime   *time.Time
}

// Recommend decides whether to ventilate now, later, or not at all today.
//
// Non-finite indoor values short-circuit to VerdictInsufficientInput without
// looking at the series. So does a series that has no usable sample for now's hour.
func Recommend(s Series, now time.Time, indoorTempC, indoorRHPct float64) Recommendation {
	if !isFinite(indoorTempC) || !isFinite(indoorRHPct) {
		return Recommendation{Verdict: VerdictInsufficientInput}
	}

	indoor := Conditions{
		Time:                now,
		TemperatureC:        indoorTempC,
		RelativeHumidityPct: indoorRHPct,
		AbsoluteHumidity:    humidity.AbsoluteHumidity(indoorTempC, indoorRHPct),
	}
	rec := Recommendation{Verdict: VerdictInsufficientInput, Indoor: &indoor}

	current, ok := CurrentConditions(s, now)
	if !ok || !isFinite(current.AbsoluteHumidity) {
		return rec
	}
	rec.CurrentOutdoor = &current

	threshold := indoor.AbsoluteHumidity - VentilationMarginGM3
	if current.AbsoluteHumidity < threshold {
		rec.Verdict = VerdictGoodNow
		return rec
	}

	next := FindNextGoodSlot(s, indoor.AbsoluteHumidity, VentilationMarginGM3)
	if next == NotFound {
		rec.Verdict = VerdictNoWindowToday
		return rec
	}

	at := s.At(next).Time
	rec.Verdict = VerdictWait
	rec.NextGoodTime = &at
	return rec
}

// CurrentConditions returns the forecast sample for now's hour.
func CurrentConditions(s Series, now time.Time) (Conditions, bool) {
	i := FindCurrentIndex(s, now)
	if i == NotFound {
		return Conditions{}, false
	}
	return conditionsOf(s.At(i)), true
}

// Outlook returns the conditions from now's hour to the end of the series.
// It is empty when the series does not cover now.
func Outlook(s Series, now time.Time) []Conditions {
	i := FindCurrentIndex(s, now)
	if i == NotFound {
		return []Conditions{}
	}

	out := make([]Conditions, 0, s.Len()-i)
	for ; i < s.Len(); i++ {
		out = append(out, conditionsOf(s.At(i)))
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
