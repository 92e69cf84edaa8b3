package forecast

import (
	"math"
	"testing"
)

func TestSelectBest_IgnoresNaN(t *testing.T) {
	rmse := map[Method]float64{
		MethodNaiveLast: 5.0,
		MethodSMA7:      3.2,
		MethodARIMA:     math.NaN(),
	}

	best, value, ok := SelectBest(rmse)
	if !ok {
		t.Fatal("expected a selection")
	}
	if best != MethodSMA7 {
		t.Fatalf("expected sma_7, got %s", best)
	}
	if value != 3.2 {
		t.Fatalf("expected value 3.2, got %f", value)
	}
}

func TestSelectBest_AllNaNMeansNoSelection(t *testing.T) {
	rmse := map[Method]float64{
		MethodNaiveLast: math.NaN(),
		MethodGBMMC:     math.NaN(),
	}

	if _, _, ok := SelectBest(rmse); ok {
		t.Fatal("expected no selection when every RMSE is NaN")
	}
}

func TestSelectBest_TieBrokenByMethodOrder(t *testing.T) {
	rmse := map[Method]float64{
		MethodGBMMC:     1.0,
		MethodSMA7:      1.0,
		MethodNaiveLast: 1.0,
	}

	best, _, ok := SelectBest(rmse)
	if !ok {
		t.Fatal("expected a selection")
	}
	if best != MethodNaiveLast {
		t.Fatalf("tie must resolve to the first method in MethodOrder, got %s", best)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range MethodOrder {
		parsed, err := ParseMethod(string(m))
		if err != nil {
			t.Fatalf("ParseMethod(%s) returned error: %v", m, err)
		}
		if parsed != m {
			t.Fatalf("ParseMethod(%s) = %s", m, parsed)
		}
	}

	if _, err := ParseMethod("prophet"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
