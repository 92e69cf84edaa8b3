package forecast

import (
	"math"
	"testing"
)

func TestFitARIMA_RejectsShortOrBrokenSeries(t *testing.T) {
	if _, err := FitARIMA([]float64{1, 2, 3, 4}); err == nil {
		t.Fatal("expected error for short series")
	}
	if _, err := FitARIMA([]float64{1, 2, math.NaN(), 4, 5, 6}); err == nil {
		t.Fatal("expected error for non-finite values")
	}
}

func TestFitARIMA_ForecastIsFiniteAndOrdered(t *testing.T) {
	values := []float64{
		70.0, 70.8, 71.5, 71.1, 72.0, 72.6, 72.1, 73.2, 73.9, 73.4,
		74.5, 75.1, 74.6, 75.8, 76.2, 75.7, 76.9, 77.4, 76.8, 78.0,
	}
	model, err := FitARIMA(values)
	if err != nil {
		t.Fatalf("FitARIMA returned error: %v", err)
	}

	if math.Abs(model.Phi) > 0.99 || math.Abs(model.Theta) > 0.99 {
		t.Fatalf("parameters out of bounds: phi=%f theta=%f", model.Phi, model.Theta)
	}
	if model.Sigma2 < 0 || math.IsNaN(model.Sigma2) {
		t.Fatalf("invalid sigma2: %f", model.Sigma2)
	}

	points, lower, upper := model.forecast(values[len(values)-1], 5)
	var prevWidth float64
	for i := range points {
		if math.IsNaN(points[i]) {
			t.Fatalf("point %d is NaN", i)
		}
		if lower[i] > points[i] || upper[i] < points[i] {
			t.Fatalf("interval must contain point at %d", i)
		}
		width := upper[i] - lower[i]
		if width < prevWidth {
			t.Fatalf("interval width must not shrink with horizon, step %d", i)
		}
		prevWidth = width
	}
}

func TestARIMAModel_OneStepInSampleShape(t *testing.T) {
	values := []float64{
		70.0, 70.8, 71.5, 71.1, 72.0, 72.6, 72.1, 73.2, 73.9, 73.4,
	}
	model, err := FitARIMA(values)
	if err != nil {
		t.Fatalf("FitARIMA returned error: %v", err)
	}

	preds := model.OneStepInSample(values)
	if len(preds) != len(values) {
		t.Fatalf("expected %d predictions, got %d", len(values), len(preds))
	}
	if !math.IsNaN(preds[0]) {
		t.Fatal("first position must be undefined")
	}
	if preds[1] != values[0] {
		t.Fatalf("position 1 must predict the previous level, got %f", preds[1])
	}
	for i := 2; i < len(preds); i++ {
		if math.IsNaN(preds[i]) {
			t.Fatalf("prediction %d is NaN", i)
		}
	}
}

func TestAR1Coefficients(t *testing.T) {
	if _, _, _, ok := AR1Coefficients([]float64{1, 2, 3}); ok {
		t.Fatal("expected ok=false for short series")
	}
	if _, _, _, ok := AR1Coefficients([]float64{1, 2, 3, -4, 5, 6, 7, 8, 9, 10}); ok {
		t.Fatal("expected ok=false for non-positive values")
	}

	values := []float64{100, 102, 101, 104, 103, 106, 105, 108, 107, 110, 109, 112}
	a, b, returns, ok := AR1Coefficients(values)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(returns) != len(values)-1 {
		t.Fatalf("expected %d returns, got %d", len(values)-1, len(returns))
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		t.Fatalf("coefficients must be finite: a=%f b=%f", a, b)
	}
	// 锯齿序列的收益强负自相关。
	if b >= 0 {
		t.Fatalf("expected negative autocorrelation, got b=%f", b)
	}
}
