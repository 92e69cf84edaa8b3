package forecast

import "fmt"

// Method 标识一种预测方法。
type Method string

const (
	// MethodNaiveLast 以最后观测值作为全部预测。
	MethodNaiveLast Method = "naive_last"
	// MethodSMA7 以窗口为7的滚动均值作为预测。
	MethodSMA7 Method = "sma_7"
	// MethodGBMMC 几何布朗运动蒙特卡洛模拟。
	MethodGBMMC Method = "gbm_mc"
	// MethodARIMA ARIMA(1,1,1)，不可用时退化为 naive_last。
	MethodARIMA Method = "arima"
	// MethodEWMA20 指数加权均值基线，非默认方法。
	MethodEWMA20 Method = "ewma_20"
	// MethodAR1 对数收益 AR(1) 基线，非默认方法。
	MethodAR1 Method = "ar1_ret"
)

// MethodOrder 固定方法优先级；模型选择在 RMSE 相同的情况下按此顺序取先者。
var MethodOrder = []Method{
	MethodNaiveLast,
	MethodSMA7,
	MethodGBMMC,
	MethodARIMA,
	MethodEWMA20,
	MethodAR1,
}

// DefaultMethods 返回默认启用的方法集合。
func DefaultMethods() []Method {
	return []Method{MethodNaiveLast, MethodSMA7, MethodGBMMC, MethodARIMA}
}

// ParseMethod 解析方法名。
func ParseMethod(name string) (Method, error) {
	m := Method(name)
	for _, known := range MethodOrder {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("forecast: 未知的预测方法 %q", name)
}
