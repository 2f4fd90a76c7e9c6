package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ollamachat-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrInvalidExchange is returned when a draft is missing a required field.
var ErrInvalidExchange = errors.New("invalid chat exchange")

// SortOrder controls the created_at ordering of FindChatExchanges.
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// FindChatExchangesParams filters FindChatExchanges.
type FindChatExchangesParams struct {
	UserID string
	Order  SortOrder // Defaults to OrderAsc
	Limit  int       // <= 0 means no limit
}

// ChatStore defines the interface for chat record persistence.
// Records are append-only.
type ChatStore interface {
	// SaveChatExchange persists a draft and returns the stored record with
	// its ID and CreatedAt assigned.
	SaveChatExchange(ctx context.Context, draft *models.ChatExchange) (*models.ChatExchange, error)

	// FindChatExchanges returns the exchanges of one user ordered by
	// created_at (ties broken by id) in the requested direction.
	FindChatExchanges(ctx context.Context, arg FindChatExchangesParams) ([]models.ChatExchange, error)

	// CountChatExchanges returns the total number of stored exchanges.
	CountChatExchanges(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// NewChatExchange builds an unsaved draft. ID and CreatedAt stay zero until
// the draft goes through SaveChatExchange.
func NewChatExchange(userID, message, response string) *models.ChatExchange {
	return &models.ChatExchange{
		UserID:   userID,
		Message:  message,
		Response: response,
	}
}

// ValidateDraft checks the fields every driver requires before insert.
func ValidateDraft(draft *models.ChatExchange) error {
	switch {
	case draft == nil:
		return fmt.Errorf("%w: draft is nil", ErrInvalidExchange)
	case strings.TrimSpace(draft.UserID) == "":
		return fmt.Errorf("%w: user id is empty", ErrInvalidExchange)
	case draft.Message == "":
		return fmt.Errorf("%w: message is empty", ErrInvalidExchange)
	case draft.Response == "":
		return fmt.Errorf("%w: response is empty", ErrInvalidExchange)
	}
	return nil
}

// Normalize fills defaults and rejects unknown sort orders.
func (p FindChatExchangesParams) Normalize() (FindChatExchangesParams, error) {
	switch strings.ToUpper(string(p.Order)) {
	case "", string(OrderAsc):
		p.Order = OrderAsc
	case string(OrderDesc):
		p.Order = OrderDesc
	default:
		return p, fmt.Errorf("invalid sort order: %s", p.Order)
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	return p, nil
}
