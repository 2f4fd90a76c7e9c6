package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ollamachat-backend/internal/models"
	"ollamachat-backend/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.ChatStore
var _ store.ChatStore = (*PostgresStore)(nil)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open creates a pool for databaseURL. pgxpool connects lazily, so an
// unreachable server is only reported by Ping or the first query.
func Open(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create database connection pool: %w", err)
	}
	return NewPostgresStore(pool), nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chats (
		id         BIGSERIAL PRIMARY KEY,
		user_id    TEXT        NOT NULL,
		message    TEXT        NOT NULL,
		response   TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chats_user_created ON chats (user_id, created_at)`,
}

// Migrate creates the chats table and its lookup index if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("database error running migration: %w", err)
		}
	}
	log.Println("[PostgresStore] Migrate: chats table is up to date")
	return nil
}

const saveChatExchange = `-- name: SaveChatExchange :one
INSERT INTO chats (
    user_id, message, response
) VALUES (
    $1, $2, $3
)
RETURNING id, user_id, message, response, created_at;
`

// SaveChatExchange inserts the draft; id and created_at come from column defaults.
func (s *PostgresStore) SaveChatExchange(ctx context.Context, draft *models.ChatExchange) (*models.ChatExchange, error) {
	if err := store.ValidateDraft(draft); err != nil {
		return nil, err
	}

	var chat models.ChatExchange
	err := s.db.QueryRow(ctx, saveChatExchange, draft.UserID, draft.Message, draft.Response).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Message,
		&chat.Response,
		&chat.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Printf("ERROR [PostgresStore] SaveChatExchange: PostgreSQL error for user %s: Code=%s, Message=%s, Detail=%s", draft.UserID, pgErr.Code, pgErr.Message, pgErr.Detail)
		} else {
			log.Printf("ERROR [PostgresStore] SaveChatExchange: Failed to insert for user %s: %v", draft.UserID, err)
		}
		return nil, fmt.Errorf("database error saving chat: %w", err)
	}

	log.Printf("[PostgresStore] SaveChatExchange: Inserted chat ID %d for user %s", chat.ID, chat.UserID)
	return &chat, nil
}

// FindChatExchanges lists a user's chats. ORDER BY cannot be parameterised,
// so the direction is taken from the normalized params only.
func (s *PostgresStore) FindChatExchanges(ctx context.Context, arg store.FindChatExchangesParams) ([]models.ChatExchange, error) {
	arg, err := arg.Normalize()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`-- name: FindChatExchanges :many
SELECT id, user_id, message, response, created_at
FROM chats
WHERE user_id = $1
ORDER BY created_at %[1]s, id %[1]s`, arg.Order)
	args := []interface{}{arg.UserID}
	if arg.Limit > 0 {
		query += "\nLIMIT $2"
		args = append(args, arg.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}
	defer rows.Close()

	chats := []models.ChatExchange{}
	for rows.Next() {
		var chat models.ChatExchange
		if err := rows.Scan(
			&chat.ID,
			&chat.UserID,
			&chat.Message,
			&chat.Response,
			&chat.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning chat row: %w", err)
		}
		chats = append(chats, chat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rows: %w", err)
	}

	return chats, nil
}

func (s *PostgresStore) CountChatExchanges(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM chats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting chats: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
