package series

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"forecast-ai/internal/store"
)

// ErrNoHistory 表示标的没有任何价格历史。
var ErrNoHistory = errors.New("series: 没有可用的价格历史")

// Loader 提供标的最近的有序价格序列，数据采集由外部系统负责。
type Loader interface {
	Load(ctx context.Context, symbol string, limit int) (Series, error)
}

// SQLLoader 从 prices 表读取最近的观测值。
type SQLLoader struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLLoader 创建 SQLLoader 并初始化表结构。
func NewSQLLoader(store *store.Store, logger *zap.Logger) (*SQLLoader, error) {
	if store == nil {
		return nil, errors.New("series: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &SQLLoader{
		db:     store.DB(),
		logger: logger,
	}

	if err := l.initSchema(); err != nil {
		return nil, err
	}

	return l, nil
}

func (l *SQLLoader) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS prices (
			symbol TEXT NOT NULL,
			ts TEXT NOT NULL,
			price REAL NOT NULL,
			PRIMARY KEY (symbol, ts)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_prices_symbol_ts ON prices(symbol, ts);`,
	}

	for _, stmt := range schema {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("series: 初始化表结构失败: %w", err)
		}
	}

	return nil
}

// Load 返回指定标的最近 limit 条观测，按时间升序；无历史时返回 ErrNoHistory。
func (l *SQLLoader) Load(ctx context.Context, symbol string, limit int) (Series, error) {
	if symbol == "" {
		return Series{}, errors.New("series: symbol 不能为空")
	}
	if limit <= 0 {
		return Series{}, fmt.Errorf("series: limit 必须大于0，当前为 %d", limit)
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT ts, price FROM prices WHERE symbol = ? ORDER BY ts DESC LIMIT ?`,
		symbol, limit,
	)
	if err != nil {
		return Series{}, fmt.Errorf("series: 查询价格历史失败 (%s): %w", symbol, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var (
		timestamps []time.Time
		values     []float64
	)

	for rows.Next() {
		var (
			tsText string
			price  float64
		)
		if err := rows.Scan(&tsText, &price); err != nil {
			return Series{}, fmt.Errorf("series: 读取价格记录失败 (%s): %w", symbol, err)
		}
		ts, err := time.Parse(time.RFC3339, tsText)
		if err != nil {
			return Series{}, fmt.Errorf("series: 解析时间戳失败 (%s, %q): %w", symbol, tsText, err)
		}
		timestamps = append(timestamps, ts.UTC())
		values = append(values, price)
	}
	if err := rows.Err(); err != nil {
		return Series{}, fmt.Errorf("series: 遍历价格记录失败 (%s): %w", symbol, err)
	}

	if len(values) == 0 {
		return Series{}, fmt.Errorf("%w: %s", ErrNoHistory, symbol)
	}

	// 查询按时间倒序取最近 limit 条，这里翻转为升序。
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		timestamps[i], timestamps[j] = timestamps[j], timestamps[i]
		values[i], values[j] = values[j], values[i]
	}

	s := Series{
		Symbol:     symbol,
		Timestamps: timestamps,
		Values:     values,
	}
	if err := s.Validate(); err != nil {
		return Series{}, fmt.Errorf("series: 价格历史不满足约束 (%s): %w", symbol, err)
	}

	return s, nil
}
