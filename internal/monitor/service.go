package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"forecast-ai/internal/store"
)

// EventType 标识运行事件的类型。
type EventType string

const (
	// EventRunCompleted 单个标的运行成功提交。
	EventRunCompleted EventType = "run_completed"
	// EventRunFailed 单个标的运行失败，批处理继续。
	EventRunFailed EventType = "run_failed"
)

// Event 是一条待持久化的运行事件。
type Event struct {
	Type      EventType
	Symbol    string
	Timestamp time.Time
	Payload   map[string]interface{}
}

// Service 负责持久化运行事件，便于排查定期重跑的历史。
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService 初始化监控服务，创建所需表结构。
func NewService(store *store.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("monitor: store 不能为空")
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
	stmt := `
CREATE TABLE IF NOT EXISTS run_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	symbol TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_events_symbol ON run_events(symbol, event_type);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("monitor: 初始化表失败: %w", err)
	}
	return nil
}

// Record 写入单个事件；监控失败只记日志，不影响主流程。
func (s *Service) Record(ctx context.Context, event Event) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		s.logger.Warn("序列化运行事件失败", zap.Error(err))
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_events (event_type, symbol, payload, created_at) VALUES (?, ?, ?, ?)`,
		string(event.Type), event.Symbol, string(payload), event.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Warn("写入运行事件失败", zap.Error(err))
	}
}

// RecordRunCompleted 记录一次成功的标的运行。
func (s *Service) RecordRunCompleted(ctx context.Context, symbol string, asof time.Time, bestMethod string) {
	s.Record(ctx, Event{
		Type:   EventRunCompleted,
		Symbol: symbol,
		Payload: map[string]interface{}{
			"asof":        asof.UTC().Format(time.RFC3339),
			"best_method": bestMethod,
		},
	})
}

// RecordRunFailed 记录一次失败的标的运行。
func (s *Service) RecordRunFailed(ctx context.Context, symbol string, runErr error) {
	s.Record(ctx, Event{
		Type:   EventRunFailed,
		Symbol: symbol,
		Payload: map[string]interface{}{
			"error": runErr.Error(),
		},
	})
}
