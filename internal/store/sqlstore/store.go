// Package sqlstore implements store.ChatStore on database/sql for the
// embedded SQLite driver and for MySQL. Both dialects share the same `?`
// placeholders, so only the schema differs between them.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"ollamachat-backend/internal/models"
	"ollamachat-backend/internal/store"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var _ store.ChatStore = (*Store)(nil)

// Dialect names a supported database/sql driver.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

var schemas = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS chats (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT    NOT NULL,
			message    TEXT    NOT NULL,
			response   TEXT    NOT NULL,
			created_ts BIGINT  NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_created ON chats (user_id, created_ts)`,
	},
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS chats (
			id         BIGINT     NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id    TEXT       NOT NULL,
			message    MEDIUMTEXT NOT NULL,
			response   MEDIUMTEXT NOT NULL,
			created_ts BIGINT     NOT NULL,
			INDEX idx_chats_user_created (user_id(191), created_ts)
		)`,
	},
}

// Store persists chats through database/sql. created_ts holds Unix
// microseconds so ordering is exact on both engines.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New wraps an already opened *sql.DB.
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	if _, ok := schemas[dialect]; !ok {
		return nil, fmt.Errorf("unsupported sql dialect: %s", dialect)
	}
	return &Store{db: db, dialect: dialect, now: time.Now}, nil
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	return New(db, DialectSQLite)
}

// OpenMySQL opens a pool for a go-sql-driver DSN (user:pass@tcp(host:3306)/db).
func OpenMySQL(dsn string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["charset"] = "utf8mb4"

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	return New(db, DialectMySQL)
}

func (s *Store) Dialect() Dialect { return s.dialect }

// Migrate creates the chats table and index if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.dialect] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database error running %s migration: %w", s.dialect, err)
		}
	}
	log.Printf("[SQLStore] Migrate: %s chats table is up to date", s.dialect)
	return nil
}

func (s *Store) SaveChatExchange(ctx context.Context, draft *models.ChatExchange) (*models.ChatExchange, error) {
	if err := store.ValidateDraft(draft); err != nil {
		return nil, err
	}

	createdAt := s.now().UTC().Truncate(time.Microsecond)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (user_id, message, response, created_ts) VALUES (?, ?, ?, ?)`,
		draft.UserID, draft.Message, draft.Response, createdAt.UnixMicro(),
	)
	if err != nil {
		log.Printf("ERROR [SQLStore] SaveChatExchange: Failed to insert for user %s: %v", draft.UserID, err)
		return nil, fmt.Errorf("database error saving chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("database error reading inserted chat id: %w", err)
	}

	return &models.ChatExchange{
		ID:        id,
		UserID:    draft.UserID,
		Message:   draft.Message,
		Response:  draft.Response,
		CreatedAt: createdAt,
	}, nil
}

func (s *Store) FindChatExchanges(ctx context.Context, arg store.FindChatExchangesParams) ([]models.ChatExchange, error) {
	arg, err := arg.Normalize()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT id, user_id, message, response, created_ts
		FROM chats WHERE user_id = ? ORDER BY created_ts %[1]s, id %[1]s`, arg.Order)
	args := []any{arg.UserID}
	if arg.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, arg.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}
	defer rows.Close()

	chats := []models.ChatExchange{}
	for rows.Next() {
		var (
			chat      models.ChatExchange
			createdTs int64
		)
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Message, &chat.Response, &createdTs); err != nil {
			return nil, fmt.Errorf("error scanning chat row: %w", err)
		}
		chat.CreatedAt = time.UnixMicro(createdTs).UTC()
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rows: %w", err)
	}
	return chats, nil
}

func (s *Store) CountChatExchanges(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting chats: %w", err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
