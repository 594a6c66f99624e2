package forecast

import (
	"math"
	"testing"
	"time"
)

func nan() float64 { return math.NaN() }

func TestRecommend_GoodNow(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 20, 0, 0, berlinSummer)
	s := mustSeries(t, []HourlySample{
		{Time: time.Date(2026, 10, 19, 9, 0, 0, 0, berlinSummer), TemperatureC: 5, RelativeHumidityPct: 90},
	}, berlinSummer)

	got := Recommend(s, now, 22, 50)

	if got.Verdict != VerdictGoodNow {
		t.Fatalf("Verdict = %q; want %q", got.Verdict, VerdictGoodNow)
	}
	if got.CurrentOutdoor == nil || math.Abs(got.CurrentOutdoor.AbsoluteHumidity-6.11) > 0.05 {
		t.Errorf("CurrentOutdoor = %+v; want AH ~6.11", got.CurrentOutdoor)
	}
	if got.Indoor == nil || math.Abs(got.Indoor.AbsoluteHumidity-9.68) > 0.05 {
		t.Errorf("Indoor = %+v; want AH ~9.68", got.Indoor)
	}
	if got.NextGoodTime != nil {
		t.Errorf("NextGoodTime = %v; want nil", got.NextGoodTime)
	}
}

func TestRecommend_NoWindowToday(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	samples := hourly(start, 24)
	for i := range samples {
		samples[i].RelativeHumidityPct = 45
	}
	s := mustSeries(t, samples, time.UTC)

	got := Recommend(s, start.Add(3*time.Hour), 20, 50)

	if got.Verdict != VerdictNoWindowToday {
		t.Fatalf("Verdict = %q; want %q", got.Verdict, VerdictNoWindowToday)
	}
	if got.NextGoodTime != nil {
		t.Errorf("NextGoodTime = %v; want nil", got.NextGoodTime)
	}
	if got.CurrentOutdoor == nil {
		t.Errorf("CurrentOutdoor = nil; want the 03:00 reading")
	}
}

func TestRecommend_InsufficientInput(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	s := mustSeries(t, hourly(start, 24), time.UTC)

	tests := []struct {
		name       string
		series     Series
		now        time.Time
		temp       float64
		rh         float64
		wantIndoor bool
	}{
		{name: "indoor temperature missing", series: s, now: start, temp: nan(), rh: 50},
		{name: "indoor humidity missing", series: s, now: start, temp: 21, rh: nan()},
		{name: "both missing", series: s, now: start, temp: nan(), rh: nan()},
		{name: "infinite temperature", series: s, now: start, temp: math.Inf(1), rh: 50},
		{name: "missing values with empty series", series: Series{}, now: start, temp: nan(), rh: nan()},
		{name: "now not covered", series: s, now: start.Add(-2 * time.Hour), temp: 21, rh: 50, wantIndoor: true},
		{name: "empty series", series: Series{}, now: start, temp: 21, rh: 50, wantIndoor: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(tt.series, tt.now, tt.temp, tt.rh)
			if got.Verdict != VerdictInsufficientInput {
				t.Errorf("Verdict = %q; want %q", got.Verdict, VerdictInsufficientInput)
			}
			if (got.Indoor != nil) != tt.wantIndoor {
				t.Errorf("Indoor = %+v; want present = %v", got.Indoor, tt.wantIndoor)
			}
			if got.CurrentOutdoor != nil || got.NextGoodTime != nil {
				t.Errorf("CurrentOutdoor/NextGoodTime = %v/%v; want nil", got.CurrentOutdoor, got.NextGoodTime)
			}
		})
	}
}

func TestRecommend_MissingOutdoorReading(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	samples := hourly(start, 2)
	samples[0].TemperatureC = nan()
	s := mustSeries(t, samples, time.UTC)

	got := Recommend(s, start, 22, 50)
	if got.Verdict != VerdictInsufficientInput {
		t.Errorf("Verdict = %q; want %q", got.Verdict, VerdictInsufficientInput)
	}
}

func TestRecommend_WaitPointsAtFirstGoodHour(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, berlinSummer)
	samples := hourly(start, 24)
	samples[14].TemperatureC, samples[14].RelativeHumidityPct = 10, 70
	samples[15].TemperatureC, samples[15].RelativeHumidityPct = 0, 50
	s := mustSeries(t, samples, berlinSummer)

	if got := FindNextGoodSlot(s, 9.68, VentilationMarginGM3); got != 14 {
		t.Fatalf("FindNextGoodSlot() = %d; want 14", got)
	}

	got := Recommend(s, start.Add(8*time.Hour+10*time.Minute), 22, 50)

	if got.Verdict != VerdictWait {
		t.Fatalf("Verdict = %q; want %q", got.Verdict, VerdictWait)
	}
	want := start.Add(14 * time.Hour)
	if got.NextGoodTime == nil || !got.NextGoodTime.Equal(want) {
		t.Errorf("NextGoodTime = %v; want %v", got.NextGoodTime, want)
	}
	if got.CurrentOutdoor == nil || !got.CurrentOutdoor.Time.Equal(start.Add(8*time.Hour)) {
		t.Errorf("CurrentOutdoor = %+v; want the 08:00 sample", got.CurrentOutdoor)
	}
}

func TestRecommend_ScanStartsAtSeriesStart(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	samples := hourly(start, 6)
	samples[1].TemperatureC, samples[1].RelativeHumidityPct = 5, 60
	s := mustSeries(t, samples, time.UTC)

	got := Recommend(s, start.Add(4*time.Hour), 22, 50)

	if got.Verdict != VerdictWait {
		t.Fatalf("Verdict = %q; want %q", got.Verdict, VerdictWait)
	}
	if want := start.Add(time.Hour); got.NextGoodTime == nil || !got.NextGoodTime.Equal(want) {
		t.Errorf("NextGoodTime = %v; want %v", got.NextGoodTime, want)
	}
}

func TestCurrentConditions(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	s := mustSeries(t, hourly(start, 3), time.UTC)

	got, ok := CurrentConditions(s, start.Add(90*time.Minute))
	if !ok {
		t.Fatalf("CurrentConditions() ok = false; want true")
	}
	if !got.Time.Equal(start.Add(time.Hour)) {
		t.Errorf("Time = %v; want %v", got.Time, start.Add(time.Hour))
	}
	if math.Abs(got.AbsoluteHumidity-10.35) > 0.01 {
		t.Errorf("AbsoluteHumidity = %v; want ~10.35", got.AbsoluteHumidity)
	}

	if _, ok := CurrentConditions(s, start.Add(3*time.Hour)); ok {
		t.Errorf("CurrentConditions() past the end ok = true; want false")
	}
}

func TestOutlook(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	s := mustSeries(t, hourly(start, 24), time.UTC)

	got := Outlook(s, start.Add(20*time.Hour+5*time.Minute))
	if len(got) != 4 {
		t.Fatalf("len(Outlook()) = %d; want 4", len(got))
	}
	if !got[0].Time.Equal(start.Add(20 * time.Hour)) {
		t.Errorf("Outlook()[0].Time = %v; want %v", got[0].Time, start.Add(20*time.Hour))
	}

	if got := Outlook(s, start.Add(-time.Hour)); len(got) != 0 {
		t.Errorf("len(Outlook()) before the series = %d; want 0", len(got))
	}
}
