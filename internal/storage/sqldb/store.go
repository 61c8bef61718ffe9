package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage"
)

// Store is a SQL implementation of AuditSink backed by the ai_generation_logs table.
type Store struct {
	db *sqlx.DB
}

var _ storage.AuditSink = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver string // sqlite
	DSN    string // Data source name / connection string
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// New opens the database and creates the schema if needed.
func New(cfg Config) (*Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3", "":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range sqlitePragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLite creates a new SQLite store
func NewSQLite(dbPath string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dbPath})
}

// DB returns the underlying sqlx.DB for advanced operations
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ai_generation_logs (
id TEXT PRIMARY KEY,
user_id TEXT NOT NULL DEFAULT '',
provider TEXT NOT NULL,
model TEXT NOT NULL DEFAULT '',
prompt_tokens INTEGER NOT NULL DEFAULT 0,
completion_tokens INTEGER NOT NULL DEFAULT 0,
status TEXT NOT NULL,
outcome TEXT NOT NULL,
error_kind TEXT NOT NULL DEFAULT '',
error_msg TEXT NOT NULL DEFAULT '',
latency_ms INTEGER NOT NULL DEFAULT 0,
created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_generation_logs_user ON ai_generation_logs(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_generation_logs_status ON ai_generation_logs(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertUsage(ctx context.Context, rec *domain.UsageRecord) error {
	row := *rec
	row.CreatedAt = row.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `INSERT INTO ai_generation_logs
	(id, user_id, provider, model, prompt_tokens, completion_tokens, status, outcome, error_kind, error_msg, latency_ms, created_at)
	VALUES (:id, :user_id, :provider, :model, :prompt_tokens, :completion_tokens, :status, :outcome, :error_kind, :error_msg, :latency_ms, :created_at)`, &row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateRecord, rec.ID)
		}
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

func (s *Store) ListUsage(ctx context.Context, opts storage.UsageListOptions) ([]*domain.UsageRecord, error) {
	query := `SELECT id, user_id, provider, model, prompt_tokens, completion_tokens, status, outcome,
	error_kind, error_msg, latency_ms, created_at FROM ai_generation_logs`
	var args []any
	if opts.ActorID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, opts.ActorID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`

	limit := opts.Limit
	if limit == 0 {
		limit = storage.DefaultListLimit
	}
	args = append(args, limit, opts.Offset)

	records := []*domain.UsageRecord{}
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
