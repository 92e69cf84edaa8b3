package backtest

import "math"

// Metrics 保存一步向前回测的误差指标。
// NaN 表示数据不足以评估，与误差为零含义不同。
type Metrics struct {
	RMSE float64
	MAE  float64
}

// Evaluate 在真实值与预测值均有定义的位置上计算 RMSE 与 MAE。
// 没有任何可评估位置时两项均为 NaN。
func Evaluate(values, preds []float64) Metrics {
	var (
		sumSq  float64
		sumAbs float64
		count  int
	)

	n := len(values)
	if len(preds) < n {
		n = len(preds)
	}

	for i := 0; i < n; i++ {
		if math.IsNaN(values[i]) || math.IsNaN(preds[i]) {
			continue
		}
		e := values[i] - preds[i]
		sumSq += e * e
		sumAbs += math.Abs(e)
		count++
	}

	if count == 0 {
		return Metrics{RMSE: math.NaN(), MAE: math.NaN()}
	}

	return Metrics{
		RMSE: math.Sqrt(sumSq / float64(count)),
		MAE:  sumAbs / float64(count),
	}
}
