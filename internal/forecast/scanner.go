package forecast

import (
	"slices"
	"time"
)

// NotFound is returned by the index searches when no sample qualifies.
const NotFound = -1

// VentilationMarginGM3 is how much drier (g/m³) outdoor air must be than indoor
// air before ventilating is worthwhile.
const VentilationMarginGM3 = 1.0

// FindCurrentIndex returns the index of the sample covering now's hour, or NotFound.
//
// Both now and the sample timestamps are truncated to the wall-clock hour in the
// series' timezone, so year, month, day and hour must all agree. Truncating the
// wall clock rather than the instant keeps zones with half-hour offsets aligned.
func FindCurrentIndex(s Series, now time.Time) int {
	if s.Len() == 0 {
		return NotFound
	}

	loc := s.Location()
	target := truncateToHour(now, loc)

	i, found := slices.BinarySearchFunc(s.samples, target, func(sample HourlySample, t time.Time) int {
		return truncateToHour(sample.Time, loc).Compare(t)
	})
	if !found {
		return NotFound
	}
	return i
}

// FindNextGoodSlot scans the whole series from its first sample and returns the
// index of the first hour whose outdoor absolute humidity is below
// indoorAH - margin. The earliest qualifying hour wins, not the driest one.
func FindNextGoodSlot(s Series, indoorAH, margin float64) int {
	threshold := indoorAH - margin
	for i, sample := range s.samples {
		if sample.AbsoluteHumidity() < threshold {
			return i
		}
	}
	return NotFound
}

// truncateToHour cuts t to the start of its wall-clock hour in loc. It works on
// the instant shifted by the zone offset in effect at t, so the repeated hour
// of a DST fall-back keeps two distinct starts.
func truncateToHour(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	_, offset := t.Zone()
	shift := time.Duration(offset) * time.Second
	return t.Add(shift).Truncate(time.Hour).Add(-shift)
}
