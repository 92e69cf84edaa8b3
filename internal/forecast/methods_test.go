package forecast

import (
	"math"
	"testing"
	"time"

	"forecast-ai/internal/series"
)

func TestForecast_HorizonShapeAcrossMethods(t *testing.T) {
	s := makeSeries(t, []float64{
		70.1, 70.9, 71.3, 70.8, 71.9, 72.4, 71.7, 72.9, 73.3, 72.6,
		73.8, 74.1, 73.5, 74.9, 75.2, 74.6, 75.8, 76.3, 75.7, 76.9,
		77.2, 76.5, 77.8, 78.1, 77.4, 78.6, 79.1, 78.3, 79.5, 80.0,
	})
	f := New(Options{EnableARIMA: true}, nil)
	horizon := 5

	for _, method := range MethodOrder {
		result, err := f.Forecast(method, s, horizon, series.Daily)
		if err != nil {
			t.Fatalf("%s: Forecast returned error: %v", method, err)
		}

		if len(result.Timestamps) != horizon || len(result.Points) != horizon ||
			len(result.Lower) != horizon || len(result.Upper) != horizon {
			t.Fatalf("%s: all slices must have length %d", method, horizon)
		}
		if !result.Timestamps[0].After(s.LastTimestamp()) {
			t.Errorf("%s: first future timestamp must be after last observed", method)
		}
		for i := 1; i < horizon; i++ {
			if !result.Timestamps[i].After(result.Timestamps[i-1]) {
				t.Errorf("%s: future timestamps must be strictly increasing", method)
			}
		}
		for i := 0; i < horizon; i++ {
			if math.IsNaN(result.Points[i]) {
				t.Errorf("%s: point estimate %d is NaN", method, i)
			}
			if result.Lower[i] > result.Points[i] || result.Upper[i] < result.Points[i] {
				t.Errorf("%s: band must contain point estimate at %d", method, i)
			}
		}
	}
}

func TestNaiveLast_ConstantSeries(t *testing.T) {
	s := makeSeries(t, []float64{100, 100, 100, 100})
	f := New(Options{}, nil)

	result, err := f.Forecast(MethodNaiveLast, s, 3, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if result.Points[i] != 100 {
			t.Errorf("expected yhat=100 at %d, got %f", i, result.Points[i])
		}
		// 常数序列残差方差为零，区间收敛到点估计。
		if result.Lower[i] != 100 || result.Upper[i] != 100 {
			t.Errorf("expected collapsed band at %d, got [%f, %f]", i, result.Lower[i], result.Upper[i])
		}
	}
}

func TestNaiveLast_TwoPointBandCollapses(t *testing.T) {
	s := makeSeries(t, []float64{100, 105})
	f := New(Options{}, nil)

	result, err := f.Forecast(MethodNaiveLast, s, 2, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}

	// 单个残差无法估计标准差，区间退化为点估计。
	for i := range result.Points {
		if result.Lower[i] != result.Points[i] || result.Upper[i] != result.Points[i] {
			t.Errorf("expected collapsed band at %d", i)
		}
	}
}

func TestSMA_LastRollingMean(t *testing.T) {
	s := makeSeries(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	f := New(Options{SMAWindow: 7}, nil)

	result, err := f.Forecast(MethodSMA7, s, 2, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}

	// 最后一个窗口为 [4..10]，均值为7。
	for i := range result.Points {
		if result.Points[i] != 7 {
			t.Errorf("expected yhat=7 at %d, got %f", i, result.Points[i])
		}
	}
}

func TestGBM_ConstantSeriesIsDeterministic(t *testing.T) {
	s := makeSeries(t, []float64{100, 100, 100, 100, 100})
	f := New(Options{Seed: 7, Simulations: 500}, nil)

	result, err := f.Forecast(MethodGBMMC, s, 4, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}

	// μ=σ=0 时每条路径都停留在最后观测值。
	for i := range result.Points {
		if result.Points[i] != 100 || result.Lower[i] != 100 || result.Upper[i] != 100 {
			t.Errorf("expected flat forecast at %d, got %f [%f, %f]",
				i, result.Points[i], result.Lower[i], result.Upper[i])
		}
	}
}

func TestGBM_FixedSeedReproducible(t *testing.T) {
	s := makeSeries(t, []float64{70, 71.2, 70.4, 72.1, 73.0, 72.2, 74.1, 75.3, 74.0, 76.2})

	first := New(Options{Seed: 42}, nil)
	second := New(Options{Seed: 42}, nil)

	r1, err := first.Forecast(MethodGBMMC, s, 5, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	r2, err := second.Forecast(MethodGBMMC, s, 5, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}

	for i := range r1.Points {
		if r1.Points[i] != r2.Points[i] || r1.Lower[i] != r2.Lower[i] || r1.Upper[i] != r2.Upper[i] {
			t.Fatalf("same seed must reproduce identical output, index %d", i)
		}
	}
}

func TestARIMA_ShortSeriesFallsBackToNaive(t *testing.T) {
	s := makeSeries(t, []float64{100, 101, 99, 102})
	f := New(Options{EnableARIMA: true}, nil)

	arima, err := f.Forecast(MethodARIMA, s, 3, series.Daily)
	if err != nil {
		t.Fatalf("arima Forecast returned error: %v", err)
	}
	naive, err := f.Forecast(MethodNaiveLast, s, 3, series.Daily)
	if err != nil {
		t.Fatalf("naive Forecast returned error: %v", err)
	}

	for i := range naive.Points {
		if !arima.Timestamps[i].Equal(naive.Timestamps[i]) {
			t.Errorf("timestamps differ at %d", i)
		}
		if arima.Points[i] != naive.Points[i] ||
			arima.Lower[i] != naive.Lower[i] ||
			arima.Upper[i] != naive.Upper[i] {
			t.Errorf("fallback output must match naive_last at %d", i)
		}
	}
}

func TestARIMA_CapabilityDisabledFallsBackToNaive(t *testing.T) {
	values := []float64{70, 71.2, 70.4, 72.1, 73.0, 72.2, 74.1, 75.3, 74.0, 76.2}
	s := makeSeries(t, values)

	disabled := New(Options{EnableARIMA: false}, nil)
	arima, err := disabled.Forecast(MethodARIMA, s, 3, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}
	naive, err := disabled.Forecast(MethodNaiveLast, s, 3, series.Daily)
	if err != nil {
		t.Fatalf("Forecast returned error: %v", err)
	}

	for i := range naive.Points {
		if arima.Points[i] != naive.Points[i] {
			t.Errorf("disabled capability must produce naive_last output at %d", i)
		}
	}
}

func TestForecast_EmptySeriesIsError(t *testing.T) {
	f := New(Options{}, nil)
	if _, err := f.Forecast(MethodNaiveLast, series.Series{}, 5, series.Daily); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestForecast_InvalidHorizonIsError(t *testing.T) {
	s := makeSeries(t, []float64{100, 101})
	f := New(Options{}, nil)
	if _, err := f.Forecast(MethodNaiveLast, s, 0, series.Daily); err == nil {
		t.Fatal("expected error for horizon=0")
	}
}

func makeSeries(t *testing.T, values []float64) series.Series {
	t.Helper()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := make([]time.Time, len(values))
	for i := range values {
		timestamps[i] = base.Add(time.Duration(i) * 24 * time.Hour)
	}

	s := series.Series{
		Symbol:     "WTI",
		Timestamps: timestamps,
		Values:     values,
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("test series invalid: %v", err)
	}
	return s
}
