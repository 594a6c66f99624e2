// Package forecast aligns an hourly outdoor forecast with the current time and
// scans it for the next hour in which opening the windows dries the room.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/othaldo/luftcheck/internal/humidity"
)

var (
	ErrNotChronological = errors.New("forecast samples are not in chronological order")
	ErrIrregularStep    = errors.New("forecast samples are not spaced one hour apart")
)

// HourlySample is one forecast hour. Values the provider left out are NaN.
type HourlySample struct {
	Time                time.Time
	TemperatureC        float64
	RelativeHumidityPct float64
}

// AbsoluteHumidity derives the sample's absolute humidity in g/m³.
func (s HourlySample) AbsoluteHumidity() float64 {
	return humidity.AbsoluteHumidity(s.TemperatureC, s.RelativeHumidityPct)
}

// Series is an immutable, hourly spaced forecast in the provider's timezone.
// The zero value is an empty series in UTC.
type Series struct {
	samples []HourlySample
	loc     *time.Location
}

// NewSeries validates samples and returns them as a Series. Timestamps are
// converted to loc (UTC when nil). An empty slice yields an empty series.
func NewSeries(samples []HourlySample, loc *time.Location) (Series, error) {
	if loc == nil {
		loc = time.UTC
	}

	out := make([]HourlySample, len(samples))
	for i, sample := range samples {
		sample.Time = sample.Time.In(loc)
		if i > 0 {
			step := sample.Time.Sub(out[i-1].Time)
			if step <= 0 {
				return Series{}, fmt.Errorf("sample %d at %s: %w", i, sample.Time.Format(time.RFC3339), ErrNotChronological)
			}
			if step != time.Hour {
				return Series{}, fmt.Errorf("sample %d at %s is %s after its predecessor: %w", i, sample.Time.Format(time.RFC3339), step, ErrIrregularStep)
			}
		}
		out[i] = sample
	}

	return Series{samples: out, loc: loc}, nil
}

func (s Series) Len() int {
	return len(s.samples)
}

// At returns the i-th sample. It panics if i is out of range.
func (s Series) At(i int) HourlySample {
	return s.samples[i]
}

func (s Series) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

// Samples returns a copy of the series' samples.
func (s Series) Samples() []HourlySample {
	out := make([]HourlySample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Start returns the timestamp of the first sample, or the zero time for an empty series.
func (s Series) Start() time.Time {
	if len(s.samples) == 0 {
		return time.Time{}
	}
	return s.samples[0].Time
}

// End returns the timestamp of the last sample, or the zero time for an empty series.
func (s Series) End() time.Time {
	if len(s.samples) == 0 {
		return time.Time{}
	}
	return s.samples[len(s.samples)-1].Time
}
