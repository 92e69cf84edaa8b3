package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// ForecastConfig 控制预测引擎的行为。
type ForecastConfig struct {
	Symbols     []string `mapstructure:"symbols"`
	Horizon     int      `mapstructure:"horizon"`
	Methods     []string `mapstructure:"methods"`
	History     int      `mapstructure:"history"`
	SMAWindow   int      `mapstructure:"sma_window"`
	EWMASpan    int      `mapstructure:"ewma_span"`
	Simulations int      `mapstructure:"simulations"`
	Seed        int64    `mapstructure:"seed"`
	EnableARIMA bool     `mapstructure:"enable_arima"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig 控制预测任务的重跑节奏。
type SchedulerConfig struct {
	RunInterval time.Duration `mapstructure:"run_interval"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if len(c.Forecast.Symbols) == 0 {
		err = multierr.Append(err, errors.New("forecast.symbols 至少包含一个标的"))
	}
	if c.Forecast.Horizon <= 0 {
		err = multierr.Append(err, errors.New("forecast.horizon 必须大于0"))
	}
	if len(c.Forecast.Methods) == 0 {
		err = multierr.Append(err, errors.New("forecast.methods 至少包含一个方法"))
	}
	if c.Forecast.History <= 1 {
		err = multierr.Append(err, errors.New("forecast.history 必须大于1"))
	}
	if c.Forecast.SMAWindow <= 0 {
		err = multierr.Append(err, errors.New("forecast.sma_window 必须大于0"))
	}
	if c.Forecast.EWMASpan <= 1 {
		err = multierr.Append(err, errors.New("forecast.ewma_span 必须大于1"))
	}
	if c.Forecast.Simulations <= 0 {
		err = multierr.Append(err, errors.New("forecast.simulations 必须大于0"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Scheduler.RunInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.run_interval 必须大于0"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
