package series

import (
	"sort"
	"time"
)

// Frequency 表示序列的采样频率。
type Frequency string

const (
	// Daily 日频。
	Daily Frequency = "D"
	// Hourly 小时频。
	Hourly Frequency = "H"
)

// Step 返回该频率下相邻预测点的间隔。
func (f Frequency) Step() time.Duration {
	if f == Hourly {
		return time.Hour
	}
	return 24 * time.Hour
}

// InferFrequency 依据相邻时间差的中位数推断采样频率。
// 中位数落在 [23h,25h] 判为日频、[6.5h,7.5h] 判为小时频，其余情况默认日频。
func InferFrequency(timestamps []time.Time) Frequency {
	if len(timestamps) < 2 {
		return Daily
	}

	deltas := make([]time.Duration, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		deltas = append(deltas, timestamps[i].Sub(timestamps[i-1]))
	}

	median := medianDuration(deltas)
	switch {
	case median >= 23*time.Hour && median <= 25*time.Hour:
		return Daily
	case median >= 390*time.Minute && median <= 450*time.Minute:
		return Hourly
	default:
		return Daily
	}
}

// FutureTimestamps 从最后观测时间起生成 horizon 个严格递增的未来时间戳。
func FutureTimestamps(last time.Time, horizon int, freq Frequency) []time.Time {
	if horizon <= 0 {
		return nil
	}
	step := freq.Step()
	out := make([]time.Time, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = last.Add(time.Duration(i+1) * step)
	}
	return out
}

func medianDuration(deltas []time.Duration) time.Duration {
	sorted := make([]time.Duration, len(deltas))
	copy(sorted, deltas)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
