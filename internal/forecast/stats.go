package forecast

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd 样本标准差(ddof=1)，少于两个有效值时返回 NaN。
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		diff := v - m
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// residualScale 计算一步预测残差的标准差，NaN 预测位置被跳过。
func residualScale(trueVals, preds []float64) float64 {
	resid := make([]float64, 0, len(trueVals))
	for i := range trueVals {
		if i >= len(preds) || math.IsNaN(preds[i]) || math.IsNaN(trueVals[i]) {
			continue
		}
		resid = append(resid, trueVals[i]-preds[i])
	}
	return sampleStd(resid)
}

// rollingMean 计算滚动均值，窗口不足时用已有观测(min_periods=1)。
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = mean(values[start : i+1])
	}
	return out
}

// shiftedRollingMean 先滞后一位再取滚动均值，保证位置 t 只用到 t-1 之前的信息。
func shiftedRollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		start := i - window
		if start < 0 {
			start = 0
		}
		out[i] = mean(values[start:i])
	}
	return out
}

// logReturns 只在严格为正的观测上计算对数收益。
func logReturns(values []float64) []float64 {
	pos := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			pos = append(pos, v)
		}
	}
	if len(pos) < 2 {
		return nil
	}
	out := make([]float64, len(pos)-1)
	for i := 1; i < len(pos); i++ {
		out[i-1] = math.Log(pos[i] / pos[i-1])
	}
	return out
}

// percentile 线性插值分位数，p 取 [0,100]。
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
