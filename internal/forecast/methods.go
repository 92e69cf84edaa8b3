package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	talib "github.com/markcheno/go-talib"
	"go.uber.org/zap"

	"forecast-ai/internal/series"
)

const (
	defaultSMAWindow   = 7
	defaultEWMASpan    = 20
	defaultSimulations = 2000
	defaultSeed        = 42

	// z95 约95%双侧正态区间；naive/sma 系列沿用此约定。
	z95 = 1.96
	// z90 约90%双侧正态区间，用于 ARIMA 置信带(alpha=0.10)。
	z90 = 1.6449
)

// Options 控制各方法的参数，零值字段取默认。
type Options struct {
	SMAWindow   int
	EWMASpan    int
	Simulations int
	Seed        int64
	EnableARIMA bool
}

func (o Options) normalize() Options {
	if o.SMAWindow <= 0 {
		o.SMAWindow = defaultSMAWindow
	}
	if o.EWMASpan <= 1 {
		o.EWMASpan = defaultEWMASpan
	}
	if o.Simulations <= 0 {
		o.Simulations = defaultSimulations
	}
	if o.Seed == 0 {
		o.Seed = defaultSeed
	}
	return o
}

// Forecaster 以统一签名执行各预测方法，每次调用都是其输入的纯函数。
type Forecaster struct {
	opts Options
	// arimaAvailable 在构造时一次性解析，调用期间只按其分支。
	arimaAvailable bool
	logger         *zap.Logger
}

// New 创建 Forecaster。
func New(opts Options, logger *zap.Logger) *Forecaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := opts.normalize()
	return &Forecaster{
		opts:           normalized,
		arimaAvailable: opts.EnableARIMA,
		logger:         logger,
	}
}

// Options 返回归一化后的参数。
func (f *Forecaster) Options() Options {
	return f.opts
}

// Forecast 对给定历史执行指定方法，返回长度为 horizon 的预测。
// 序列为空或 horizon 非法是结构性错误；其余退化情况由方法内部降级处理。
func (f *Forecaster) Forecast(method Method, s series.Series, horizon int, freq series.Frequency) (Result, error) {
	if s.Len() == 0 {
		return Result{}, errors.New("forecast: 价格序列为空")
	}
	if horizon < 1 {
		return Result{}, fmt.Errorf("forecast: horizon 必须大于等于1，当前为 %d", horizon)
	}

	switch method {
	case MethodNaiveLast:
		return f.naiveLast(s, horizon, freq), nil
	case MethodSMA7:
		return f.sma(s, horizon, freq), nil
	case MethodGBMMC:
		return f.gbmMonteCarlo(s, horizon, freq), nil
	case MethodARIMA:
		return f.arima(s, horizon, freq), nil
	case MethodEWMA20:
		return f.ewma(s, horizon, freq), nil
	case MethodAR1:
		return f.ar1(s, horizon, freq), nil
	default:
		return Result{}, fmt.Errorf("forecast: 未知的预测方法 %q", method)
	}
}

func (f *Forecaster) naiveLast(s series.Series, horizon int, freq series.Frequency) Result {
	last := s.Last()
	points := repeat(last, horizon)

	scale := math.NaN()
	if s.Len() > 1 {
		// 一步 naive 残差：用前一个值预测当前值。
		scale = residualScale(s.Values[1:], s.Values[:s.Len()-1])
	}

	return bandResult(s, horizon, freq, points, scale, z95)
}

func (f *Forecaster) sma(s series.Series, horizon int, freq series.Frequency) Result {
	window := f.opts.SMAWindow
	rolling := rollingMean(s.Values, window)
	points := repeat(rolling[len(rolling)-1], horizon)

	scale := math.NaN()
	if s.Len() > 1 {
		// 滞后一位的滚动均值，避免用当前观测预测自身。
		shifted := shiftedRollingMean(s.Values, window)
		scale = residualScale(s.Values[1:], shifted[1:])
	}

	return bandResult(s, horizon, freq, points, scale, z95)
}

func (f *Forecaster) gbmMonteCarlo(s series.Series, horizon int, freq series.Frequency) Result {
	returns := logReturns(s.Values)

	mu, sigma := 0.0, 0.0
	if len(returns) >= 2 {
		mu = mean(returns)
		sigma = sampleStd(returns)
	}

	rng := rand.New(rand.NewSource(f.opts.Seed))
	last := s.Last()
	drift := mu - 0.5*sigma*sigma

	sims := make([][]float64, horizon)
	for h := range sims {
		sims[h] = make([]float64, f.opts.Simulations)
	}
	for i := 0; i < f.opts.Simulations; i++ {
		price := last
		for h := 0; h < horizon; h++ {
			price *= math.Exp(drift + sigma*rng.NormFloat64())
			sims[h][i] = price
		}
	}

	points := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		points[h] = mean(sims[h])
		lower[h] = percentile(sims[h], 5)
		upper[h] = percentile(sims[h], 95)
	}

	return Result{
		Timestamps: series.FutureTimestamps(s.LastTimestamp(), horizon, freq),
		Points:     points,
		Lower:      lower,
		Upper:      upper,
	}
}

func (f *Forecaster) arima(s series.Series, horizon int, freq series.Frequency) Result {
	if !f.arimaAvailable || s.Len() < 5 {
		return f.naiveLast(s, horizon, freq)
	}

	model, err := FitARIMA(s.Values)
	if err != nil {
		// 拟合失败按能力不可用处理，降级而非上抛。
		f.logger.Debug("ARIMA 拟合失败，退化为 naive_last", zap.String("symbol", s.Symbol), zap.Error(err))
		return f.naiveLast(s, horizon, freq)
	}

	points, lower, upper := model.forecast(s.Last(), horizon)
	return Result{
		Timestamps: series.FutureTimestamps(s.LastTimestamp(), horizon, freq),
		Points:     points,
		Lower:      lower,
		Upper:      upper,
	}
}

func (f *Forecaster) ewma(s series.Series, horizon int, freq series.Frequency) Result {
	span := f.opts.EWMASpan
	if s.Len() < span+1 {
		return f.naiveLast(s, horizon, freq)
	}

	ema := talib.Ema(s.Values, span)
	points := repeat(ema[len(ema)-1], horizon)

	// 滞后一位的 EMA 残差，EMA 自身从第 span 个观测起有定义。
	preds := make([]float64, s.Len())
	for i := range preds {
		if i < span {
			preds[i] = math.NaN()
			continue
		}
		preds[i] = ema[i-1]
	}
	scale := residualScale(s.Values, preds)

	return bandResult(s, horizon, freq, points, scale, z95)
}

func (f *Forecaster) ar1(s series.Series, horizon int, freq series.Frequency) Result {
	a, b, returns, ok := AR1Coefficients(s.Values)
	if !ok {
		return f.naiveLast(s, horizon, freq)
	}

	level := math.Log(s.Last())
	prev := returns[len(returns)-1]
	points := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		next := a + b*prev
		level += next
		points[h] = math.Exp(level)
		prev = next
	}

	// 一步回看残差：y[t] 对 y[t-1]*exp(a+b*r[t-2]) 的偏差。
	preds := make([]float64, s.Len())
	for i := range preds {
		if i < 2 {
			preds[i] = math.NaN()
			continue
		}
		preds[i] = s.Values[i-1] * math.Exp(a+b*returns[i-2])
	}
	scale := residualScale(s.Values, preds)

	return bandResult(s, horizon, freq, points, scale, z95)
}

func bandResult(s series.Series, horizon int, freq series.Frequency, points []float64, scale, z float64) Result {
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for i, p := range points {
		if math.IsNaN(scale) {
			// 残差方差未定义时区间收敛到点估计。
			lower[i] = p
			upper[i] = p
			continue
		}
		lower[i] = p - z*scale
		upper[i] = p + z*scale
	}

	return Result{
		Timestamps: series.FutureTimestamps(s.LastTimestamp(), horizon, freq),
		Points:     points,
		Lower:      lower,
		Upper:      upper,
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
