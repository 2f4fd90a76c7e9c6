package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ollamachat-backend/internal/models"
	"ollamachat-backend/internal/store"
)

var _ store.ChatStore = (*Store)(nil)

// Store keeps chats in process memory. It is meant for local runs and tests;
// everything is lost on restart.
type Store struct {
	mu     sync.Mutex
	nextID int64
	chats  map[string][]models.ChatExchange
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		chats: make(map[string][]models.ChatExchange),
		now:   time.Now,
	}
}

func (s *Store) SaveChatExchange(_ context.Context, draft *models.ChatExchange) (*models.ChatExchange, error) {
	if err := store.ValidateDraft(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	chat := models.ChatExchange{
		ID:        s.nextID,
		UserID:    draft.UserID,
		Message:   draft.Message,
		Response:  draft.Response,
		CreatedAt: s.now().UTC(),
	}
	s.chats[chat.UserID] = append(s.chats[chat.UserID], chat)

	saved := chat
	return &saved, nil
}

func (s *Store) FindChatExchanges(_ context.Context, arg store.FindChatExchangesParams) ([]models.ChatExchange, error) {
	arg, err := arg.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	out := append([]models.ChatExchange{}, s.chats[arg.UserID]...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if arg.Order == store.OrderDesc {
			a, b = b, a
		}
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	if arg.Limit > 0 && len(out) > arg.Limit {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (s *Store) CountChatExchanges(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, chats := range s.chats {
		n += int64(len(chats))
	}
	return n, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
