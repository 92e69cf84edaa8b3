package prediction

import (
	"time"

	"forecast-ai/internal/forecast"
)

// Record 是一条预测行，逻辑键为 (symbol, ts, horizon, method)。
// 同键不同 asof 的行只会短暂共存，规范化清扫后仅保留 asof 最大者。
type Record struct {
	Symbol   string
	TargetTS time.Time
	Horizon  int
	Method   forecast.Method
	Yhat     float64
	Lower    float64
	Upper    float64
	Asof     time.Time
}

// Metric 是一条回测指标行；Value 为 NaN 表示无法评估。
type Metric struct {
	Symbol string
	Asof   time.Time
	Method forecast.Method
	Name   string
	Value  float64
}

// Selection 记录一次运行选出的最优方法，每个 (symbol, asof) 至多一条。
type Selection struct {
	Symbol string
	Asof   time.Time
	Best   forecast.Method
	Metric string
	Value  float64
}

// Run 是一次完整运行对单个标的产生的全部输出。
// Selection 为 nil 表示所有方法的 RMSE 均未定义，本次不写选择行。
type Run struct {
	Symbol      string
	Asof        time.Time
	Predictions []Record
	Metrics     []Metric
	Selection   *Selection
}
