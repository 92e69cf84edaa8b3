package prediction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"forecast-ai/internal/forecast"
	"forecast-ai/internal/store"
)

// Service 负责预测结果的持久化与规范化。
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService 创建持久化服务并初始化表结构。
func NewService(store *store.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("prediction: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:     store.DB(),
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			symbol TEXT NOT NULL,
			ts TEXT NOT NULL,
			horizon INTEGER NOT NULL,
			method TEXT NOT NULL,
			yhat REAL,
			yhat_lower REAL,
			yhat_upper REAL,
			asof_ts TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_key ON predictions(symbol, ts, horizon, method);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			symbol TEXT NOT NULL,
			asof_ts TEXT NOT NULL,
			method TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_symbol_asof ON metrics(symbol, asof_ts);`,
		`CREATE TABLE IF NOT EXISTS model_selection (
			symbol TEXT NOT NULL,
			asof_ts TEXT NOT NULL,
			best_method TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL
		);`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("prediction: 初始化表结构失败: %w", err)
		}
	}

	return nil
}

// CommitRun 原子提交一次运行的三类输出。
// 插入预测与规范化清扫处于同一事务内，构成写入侧的临界区：
// 事务提交前不会有其他写入者在同键上插入新行。
func (s *Service) CommitRun(ctx context.Context, run Run) error {
	if run.Symbol == "" {
		return errors.New("prediction: symbol 不能为空")
	}
	if run.Asof.IsZero() {
		return errors.New("prediction: asof 不能为零值")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("prediction: 开启事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rec := range run.Predictions {
		if rec.Horizon < 1 {
			err = fmt.Errorf("prediction: horizon 必须大于等于1，当前为 %d", rec.Horizon)
			return err
		}
		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO predictions (symbol, ts, horizon, method, yhat, yhat_lower, yhat_upper, asof_ts)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Symbol,
			formatTS(rec.TargetTS),
			rec.Horizon,
			string(rec.Method),
			nullable(rec.Yhat),
			nullable(rec.Lower),
			nullable(rec.Upper),
			formatTS(rec.Asof),
		); execErr != nil {
			err = fmt.Errorf("prediction: 写入预测行失败: %w", execErr)
			return err
		}
	}

	if err = canonicalizeTx(ctx, tx); err != nil {
		return err
	}

	for _, m := range run.Metrics {
		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO metrics (symbol, asof_ts, method, metric, value) VALUES (?, ?, ?, ?, ?)`,
			m.Symbol, formatTS(m.Asof), string(m.Method), m.Name, nullable(m.Value),
		); execErr != nil {
			err = fmt.Errorf("prediction: 写入指标行失败: %w", execErr)
			return err
		}
	}

	if run.Selection != nil {
		sel := run.Selection
		if _, execErr := tx.ExecContext(ctx,
			`INSERT INTO model_selection (symbol, asof_ts, best_method, metric, value) VALUES (?, ?, ?, ?, ?)`,
			sel.Symbol, formatTS(sel.Asof), string(sel.Best), sel.Metric, nullable(sel.Value),
		); execErr != nil {
			err = fmt.Errorf("prediction: 写入模型选择失败: %w", execErr)
			return err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = fmt.Errorf("prediction: 提交事务失败: %w", commitErr)
		return err
	}

	return nil
}

// Canonicalize 对 predictions 表执行规范化清扫：
// 每个逻辑键只保留 asof 最大的行，其余删除。重复执行不改变结果。
func (s *Service) Canonicalize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("prediction: 开启事务失败: %w", err)
	}

	if err := canonicalizeTx(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("prediction: 提交事务失败: %w", err)
	}

	return nil
}

func canonicalizeTx(ctx context.Context, tx *sql.Tx) error {
	// asof_ts 为 RFC3339 UTC 文本，字典序等价于时间序。
	_, err := tx.ExecContext(ctx, `
		DELETE FROM predictions
		WHERE EXISTS (
			SELECT 1 FROM predictions newer
			WHERE newer.symbol = predictions.symbol
			  AND newer.ts = predictions.ts
			  AND newer.horizon = predictions.horizon
			  AND newer.method = predictions.method
			  AND newer.asof_ts > predictions.asof_ts
		)`)
	if err != nil {
		return fmt.Errorf("prediction: 规范化清扫失败: %w", err)
	}
	return nil
}

// LatestSelection 返回标的最近一次模型选择；不存在时 ok 为 false。
func (s *Service) LatestSelection(ctx context.Context, symbol string) (Selection, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT asof_ts, best_method, metric, value FROM model_selection
		 WHERE symbol = ? ORDER BY asof_ts DESC LIMIT 1`,
		symbol,
	)

	var (
		asofText string
		best     string
		metric   string
		value    sql.NullFloat64
	)
	switch err := row.Scan(&asofText, &best, &metric, &value); {
	case errors.Is(err, sql.ErrNoRows):
		return Selection{}, false, nil
	case err != nil:
		return Selection{}, false, fmt.Errorf("prediction: 查询模型选择失败 (%s): %w", symbol, err)
	}

	asof, err := time.Parse(time.RFC3339, asofText)
	if err != nil {
		return Selection{}, false, fmt.Errorf("prediction: 解析 asof 失败 (%s): %w", symbol, err)
	}

	sel := Selection{
		Symbol: symbol,
		Asof:   asof.UTC(),
		Best:   forecast.Method(best),
		Metric: metric,
		Value:  math.NaN(),
	}
	if value.Valid {
		sel.Value = value.Float64
	}

	return sel, true, nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullable 将 NaN/Inf 映射为 NULL，表示“未定义”而非零。
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
