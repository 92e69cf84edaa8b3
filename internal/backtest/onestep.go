package backtest

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"forecast-ai/internal/forecast"
)

// Options 控制回测中各方法的参数。
type Options struct {
	SMAWindow   int
	EWMASpan    int
	EnableARIMA bool
}

func (o Options) normalize() Options {
	if o.SMAWindow <= 0 {
		o.SMAWindow = 7
	}
	if o.EWMASpan <= 1 {
		o.EWMASpan = 20
	}
	return o
}

// OneStep 生成与输入等长的一步向前预测序列。
// 位置 t 只使用严格早于 t 的信息；首位以及无法预测的位置为 NaN。
func OneStep(method forecast.Method, values []float64, opts Options) []float64 {
	opts = opts.normalize()
	n := len(values)
	preds := nanSlice(n)
	if n < 2 {
		return preds
	}

	switch method {
	case forecast.MethodNaiveLast:
		for t := 1; t < n; t++ {
			preds[t] = values[t-1]
		}

	case forecast.MethodSMA7:
		// 滞后一位的滚动均值，前几个位置窗口自动收缩。
		for t := 1; t < n; t++ {
			start := t - opts.SMAWindow
			if start < 0 {
				start = 0
			}
			preds[t] = meanOf(values[start:t])
		}

	case forecast.MethodGBMMC:
		// 回测用确定性的漂移估计，不重新模拟。
		growth := math.Exp(meanLogReturn(values))
		for t := 1; t < n; t++ {
			preds[t] = values[t-1] * growth
		}

	case forecast.MethodARIMA:
		if !opts.EnableARIMA || n < 6 {
			return OneStep(forecast.MethodNaiveLast, values, opts)
		}
		model, err := forecast.FitARIMA(values)
		if err != nil {
			return OneStep(forecast.MethodNaiveLast, values, opts)
		}
		return model.OneStepInSample(values)

	case forecast.MethodEWMA20:
		if n < opts.EWMASpan+1 {
			return OneStep(forecast.MethodNaiveLast, values, opts)
		}
		ema := talib.Ema(values, opts.EWMASpan)
		for t := opts.EWMASpan; t < n; t++ {
			preds[t] = ema[t-1]
		}

	case forecast.MethodAR1:
		a, b, returns, ok := forecast.AR1Coefficients(values)
		if !ok {
			return OneStep(forecast.MethodNaiveLast, values, opts)
		}
		for t := 2; t < n; t++ {
			preds[t] = values[t-1] * math.Exp(a+b*returns[t-2])
		}
	}

	return preds
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanLogReturn 只统计严格为正的观测，少于两个时返回0。
func meanLogReturn(values []float64) float64 {
	var (
		prev     float64
		havePrev bool
		sum      float64
		count    int
	)
	for _, v := range values {
		if v <= 0 {
			continue
		}
		if havePrev {
			sum += math.Log(v / prev)
			count++
		}
		prev = v
		havePrev = true
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
