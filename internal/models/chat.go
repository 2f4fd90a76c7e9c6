package models

import (
	"time"
)

// ChatExchange is one persisted turn of conversation: the user's message and the
// generated reply. Rows are append-only; nothing updates or deletes them.
type ChatExchange struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Message   string    `db:"message" json:"message"`
	Response  string    `db:"response" json:"response"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
