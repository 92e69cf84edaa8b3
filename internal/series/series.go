package series

import (
	"fmt"
	"math"
	"time"
)

// Series 保存单个标的按时间升序排列的价格序列。
// Timestamps 与 Values 下标一一对应。
type Series struct {
	Symbol     string
	Timestamps []time.Time
	Values     []float64
}

// Len 返回序列长度。
func (s Series) Len() int {
	return len(s.Values)
}

// Last 返回最后一个观测值，序列为空时返回 NaN。
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// LastTimestamp 返回最后一个观测时间，序列为空时返回零值。
func (s Series) LastTimestamp() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// Validate 校验序列不变式：长度一致、时间严格递增、数值有限。
func (s Series) Validate() error {
	if len(s.Timestamps) != len(s.Values) {
		return fmt.Errorf("series: 时间与数值长度不一致: %d vs %d", len(s.Timestamps), len(s.Values))
	}
	for i := 1; i < len(s.Timestamps); i++ {
		if !s.Timestamps[i].After(s.Timestamps[i-1]) {
			return fmt.Errorf("series: 时间戳必须严格递增，位置 %d", i)
		}
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("series: 数值必须有限，位置 %d", i)
		}
	}
	return nil
}
