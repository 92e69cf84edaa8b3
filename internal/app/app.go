package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"forecast-ai/internal/config"
	"forecast-ai/internal/engine"
	"forecast-ai/internal/forecast"
	"forecast-ai/internal/monitor"
	"forecast-ai/internal/prediction"
	"forecast-ai/internal/series"
	"forecast-ai/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 启动预测引擎：先立即执行一轮，然后按配置的间隔定期重跑。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("预测系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.Strings("symbols", a.cfg.Forecast.Symbols),
		zap.Int("horizon", a.cfg.Forecast.Horizon),
		zap.Strings("methods", a.cfg.Forecast.Methods),
	)

	eng, err := a.buildEngine()
	if err != nil {
		return err
	}

	runInterval := a.cfg.Scheduler.RunInterval
	if runInterval <= 0 {
		runInterval = 24 * time.Hour
	}

	if err = eng.RunBatch(ctx, a.cfg.Forecast.Symbols); err != nil {
		a.logger.Error("首轮批处理存在失败标的", zap.Error(err))
	}

	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err = eng.RunBatch(ctx, a.cfg.Forecast.Symbols); err != nil {
				a.logger.Error("批处理存在失败标的", zap.Error(err))
			}
		}
	}
}

func (a *App) buildEngine() (*engine.Engine, error) {
	methods := make([]forecast.Method, 0, len(a.cfg.Forecast.Methods))
	for _, name := range a.cfg.Forecast.Methods {
		m, err := forecast.ParseMethod(name)
		if err != nil {
			return nil, fmt.Errorf("初始化预测方法失败: %w", err)
		}
		methods = append(methods, m)
	}

	loader, err := series.NewSQLLoader(a.store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("初始化序列加载器失败: %w", err)
	}

	predSvc, err := prediction.NewService(a.store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("初始化持久化服务失败: %w", err)
	}

	monitorSvc, err := monitor.NewService(a.store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("初始化监控服务失败: %w", err)
	}

	forecaster := forecast.New(forecast.Options{
		SMAWindow:   a.cfg.Forecast.SMAWindow,
		EWMASpan:    a.cfg.Forecast.EWMASpan,
		Simulations: a.cfg.Forecast.Simulations,
		Seed:        a.cfg.Forecast.Seed,
		EnableARIMA: a.cfg.Forecast.EnableARIMA,
	}, a.logger)

	eng, err := engine.New(engine.Config{
		Horizon: a.cfg.Forecast.Horizon,
		History: a.cfg.Forecast.History,
		Methods: methods,
	}, loader, forecaster, predSvc, monitorSvc, a.logger)
	if err != nil {
		return nil, fmt.Errorf("初始化预测引擎失败: %w", err)
	}

	return eng, nil
}
