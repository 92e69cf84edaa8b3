package forecast

import "time"

// Result 表示一次向前预测：未来时间戳、点估计与上下界，四个切片等长。
// 结果只在内存中流转，持久化由 prediction 包负责。
type Result struct {
	Timestamps []time.Time
	Points     []float64
	Lower      []float64
	Upper      []float64
}
