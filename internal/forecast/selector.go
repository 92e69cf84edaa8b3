package forecast

import "math"

// SelectBest 在各方法的回测 RMSE 中选出数值最小者。
// NaN 条目被完全忽略；全部为 NaN 时返回 false，表示本次不产生选择。
// 遍历按 MethodOrder 固定顺序进行，平票取先出现的方法。
func SelectBest(rmse map[Method]float64) (Method, float64, bool) {
	var (
		bestMethod Method
		bestValue  = math.Inf(1)
		found      bool
	)

	for _, m := range MethodOrder {
		v, ok := rmse[m]
		if !ok || math.IsNaN(v) {
			continue
		}
		if v < bestValue {
			bestMethod = m
			bestValue = v
			found = true
		}
	}

	if !found {
		return "", math.NaN(), false
	}
	return bestMethod, bestValue, true
}
