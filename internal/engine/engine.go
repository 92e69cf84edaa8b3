package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"forecast-ai/internal/backtest"
	"forecast-ai/internal/forecast"
	"forecast-ai/internal/monitor"
	"forecast-ai/internal/prediction"
	"forecast-ai/internal/series"
)

// Config 控制引擎单次运行的参数。
type Config struct {
	Horizon int
	History int
	Methods []forecast.Method
}

func (c Config) normalize() Config {
	if c.Horizon <= 0 {
		c.Horizon = 5
	}
	if c.History <= 0 {
		c.History = 60
	}
	if len(c.Methods) == 0 {
		c.Methods = forecast.DefaultMethods()
	}
	return c
}

// Engine 串联加载、预测、回测、选择与持久化。
// 运行是单线程批处理：一个标的的全部输出在内存中算完后一次性提交。
type Engine struct {
	cfg        Config
	loader     series.Loader
	forecaster *forecast.Forecaster
	predStore  *prediction.Service
	monitor    *monitor.Service
	logger     *zap.Logger
	now        func() time.Time
}

// New 创建 Engine；monitor 可为 nil，此时不记录运行事件。
func New(cfg Config, loader series.Loader, forecaster *forecast.Forecaster, predStore *prediction.Service, mon *monitor.Service, logger *zap.Logger) (*Engine, error) {
	if loader == nil {
		return nil, errors.New("engine: loader 不能为空")
	}
	if forecaster == nil {
		return nil, errors.New("engine: forecaster 不能为空")
	}
	if predStore == nil {
		return nil, errors.New("engine: prediction service 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		cfg:        cfg.normalize(),
		loader:     loader,
		forecaster: forecaster,
		predStore:  predStore,
		monitor:    mon,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// RunSymbol 对单个标的执行一次完整运行并提交结果。
// 提交前的任何失败都不会留下该标的的任何输出行。
func (e *Engine) RunSymbol(ctx context.Context, symbol string) error {
	hist, err := e.loader.Load(ctx, symbol, e.cfg.History)
	if err != nil {
		return fmt.Errorf("engine: 加载价格历史失败 (%s): %w", symbol, err)
	}

	freq := series.InferFrequency(hist.Timestamps)
	asof := e.now().UTC()

	run := prediction.Run{
		Symbol: symbol,
		Asof:   asof,
	}
	rmse := make(map[forecast.Method]float64, len(e.cfg.Methods))

	btOpts := backtest.Options{
		SMAWindow:   e.forecaster.Options().SMAWindow,
		EWMASpan:    e.forecaster.Options().EWMASpan,
		EnableARIMA: e.forecaster.Options().EnableARIMA,
	}

	for _, method := range e.cfg.Methods {
		result, err := e.forecaster.Forecast(method, hist, e.cfg.Horizon, freq)
		if err != nil {
			return fmt.Errorf("engine: 预测失败 (%s, %s): %w", symbol, method, err)
		}

		for i := range result.Timestamps {
			run.Predictions = append(run.Predictions, prediction.Record{
				Symbol:   symbol,
				TargetTS: result.Timestamps[i],
				Horizon:  i + 1,
				Method:   method,
				Yhat:     result.Points[i],
				Lower:    result.Lower[i],
				Upper:    result.Upper[i],
				Asof:     asof,
			})
		}

		preds := backtest.OneStep(method, hist.Values, btOpts)
		metrics := backtest.Evaluate(hist.Values, preds)

		run.Metrics = append(run.Metrics,
			prediction.Metric{Symbol: symbol, Asof: asof, Method: method, Name: "RMSE", Value: metrics.RMSE},
			prediction.Metric{Symbol: symbol, Asof: asof, Method: method, Name: "MAE", Value: metrics.MAE},
		)
		rmse[method] = metrics.RMSE
	}

	if best, value, ok := forecast.SelectBest(rmse); ok {
		run.Selection = &prediction.Selection{
			Symbol: symbol,
			Asof:   asof,
			Best:   best,
			Metric: "RMSE",
			Value:  value,
		}
	} else {
		e.logger.Warn("全部方法的 RMSE 均未定义，本次不写模型选择", zap.String("symbol", symbol))
	}

	if err := e.predStore.CommitRun(ctx, run); err != nil {
		return fmt.Errorf("engine: 提交运行结果失败 (%s): %w", symbol, err)
	}

	fields := []zap.Field{
		zap.String("symbol", symbol),
		zap.Time("asof", asof),
		zap.Int("predictions", len(run.Predictions)),
	}
	if run.Selection != nil {
		fields = append(fields,
			zap.String("best_method", string(run.Selection.Best)),
			zap.Float64("rmse", run.Selection.Value),
		)
	}
	e.logger.Info("预测运行完成", fields...)

	if e.monitor != nil {
		best := ""
		if run.Selection != nil {
			best = string(run.Selection.Best)
		}
		e.monitor.RecordRunCompleted(ctx, symbol, asof, best)
	}

	return nil
}

// RunBatch 依次处理全部标的；单个标的失败只记录并继续，
// 返回值聚合了所有失败以便上层观察。
func (e *Engine) RunBatch(ctx context.Context, symbols []string) error {
	var errs error

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}

		if err := e.RunSymbol(ctx, symbol); err != nil {
			e.logger.Error("标的运行失败，继续处理其余标的",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			if e.monitor != nil {
				e.monitor.RecordRunFailed(ctx, symbol, err)
			}
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
