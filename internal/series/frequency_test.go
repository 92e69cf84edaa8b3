package series

import (
	"testing"
	"time"
)

func TestInferFrequency_Daily(t *testing.T) {
	ts := makeTimestamps(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10, 24*time.Hour)
	if got := InferFrequency(ts); got != Daily {
		t.Fatalf("expected Daily, got %s", got)
	}
}

func TestInferFrequency_Hourly(t *testing.T) {
	ts := makeTimestamps(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), 10, 7*time.Hour)
	if got := InferFrequency(ts); got != Hourly {
		t.Fatalf("expected Hourly, got %s", got)
	}
}

func TestInferFrequency_DefaultsToDaily(t *testing.T) {
	cases := map[string][]time.Time{
		"empty":     nil,
		"single":    makeTimestamps(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, time.Hour),
		"irregular": makeTimestamps(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10, 3*time.Hour),
	}

	for name, ts := range cases {
		if got := InferFrequency(ts); got != Daily {
			t.Errorf("%s: expected Daily, got %s", name, got)
		}
	}
}

func TestInferFrequency_MedianIgnoresOutliers(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// 周末缺口造成个别 72h 间隔，中位数仍为 24h。
	ts := []time.Time{
		base,
		base.Add(24 * time.Hour),
		base.Add(48 * time.Hour),
		base.Add(120 * time.Hour),
		base.Add(144 * time.Hour),
		base.Add(168 * time.Hour),
	}
	if got := InferFrequency(ts); got != Daily {
		t.Fatalf("expected Daily, got %s", got)
	}
}

func TestFutureTimestamps_Shape(t *testing.T) {
	last := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	horizon := 5

	out := FutureTimestamps(last, horizon, Daily)
	if len(out) != horizon {
		t.Fatalf("expected %d timestamps, got %d", horizon, len(out))
	}
	if !out[0].After(last) {
		t.Fatalf("first future timestamp %v must be after last observed %v", out[0], last)
	}
	for i := 1; i < len(out); i++ {
		if !out[i].After(out[i-1]) {
			t.Fatalf("timestamps must be strictly increasing at %d", i)
		}
	}
	if got := out[0].Sub(last); got != 24*time.Hour {
		t.Fatalf("daily step should be 24h, got %s", got)
	}

	hourly := FutureTimestamps(last, horizon, Hourly)
	if got := hourly[0].Sub(last); got != time.Hour {
		t.Fatalf("hourly step should be 1h, got %s", got)
	}
}

func TestSeriesValidate(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	valid := Series{
		Symbol:     "WTI",
		Timestamps: makeTimestamps(base, 3, 24*time.Hour),
		Values:     []float64{70, 71, 72},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid series rejected: %v", err)
	}

	duplicated := Series{
		Timestamps: []time.Time{base, base},
		Values:     []float64{70, 71},
	}
	if err := duplicated.Validate(); err == nil {
		t.Fatal("expected error for duplicate timestamps")
	}

	mismatched := Series{
		Timestamps: makeTimestamps(base, 3, 24*time.Hour),
		Values:     []float64{70, 71},
	}
	if err := mismatched.Validate(); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func makeTimestamps(start time.Time, n int, step time.Duration) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * step)
	}
	return out
}
