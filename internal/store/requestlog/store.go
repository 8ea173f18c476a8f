// Package requestlog 记录提取请求的运维审计信息（元数据 only）。
// 不保存图像字节，也不保存提取出的文本。
package requestlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record 代表一次提取请求的落盘条目。
type Record struct {
	ID         int64  `json:"id"`
	TraceID    string `json:"trace_id"`
	TS         int64  `json:"ts"`
	Filename   string `json:"filename"`
	MIME       string `json:"mime"`
	SizeBytes  int64  `json:"size_bytes"`
	Model      string `json:"model"`
	Outcome    string `json:"outcome"` // "ok" 或错误分类名
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Store 管理请求审计日志的 SQLite 存储。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewStore 初始化 SQLite 存储。
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("request log path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS extract_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id TEXT,
			ts INTEGER NOT NULL,
			filename TEXT,
			mime TEXT,
			size_bytes INTEGER,
			model TEXT,
			outcome TEXT,
			message TEXT,
			duration_ms INTEGER,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_extract_requests_ts_id ON extract_requests(ts DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_extract_requests_outcome_ts ON extract_requests(outcome, ts DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure request log schema failed: %w", err)
		}
	}
	return nil
}

// Insert 追加一条审计记录。TS 为空时补当前时间。
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if s == nil {
		return nil
	}
	if rec.TS == 0 {
		rec.TS = time.Now().UnixMilli()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("request log store is closed")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extract_requests
			(trace_id, ts, filename, mime, size_bytes, model, outcome, message, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID, rec.TS, rec.Filename, rec.MIME, rec.SizeBytes,
		rec.Model, rec.Outcome, rec.Message, rec.DurationMS, time.Now().UnixMilli())
	return err
}

// Recent 返回最近的记录，按时间倒序；outcome 非空时过滤。
func (s *Store) Recent(ctx context.Context, limit int, outcome string) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("request log store not initialized")
	}
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, trace_id, ts, filename, mime, size_bytes, model, outcome, message, duration_ms
		FROM extract_requests`
	args := make([]any, 0, 2)
	if strings.TrimSpace(outcome) != "" {
		query += ` WHERE outcome = ?`
		args = append(args, strings.TrimSpace(outcome))
	}
	query += ` ORDER BY ts DESC, id DESC LIMIT ?`
	args = append(args, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("request log store is closed")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TraceID, &rec.TS, &rec.Filename, &rec.MIME,
			&rec.SizeBytes, &rec.Model, &rec.Outcome, &rec.Message, &rec.DurationMS); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close 关闭底层 DB。
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
