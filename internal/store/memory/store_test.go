package memory

import (
	"context"
	"testing"
	"time"

	"ollamachat-backend/internal/store"
	"ollamachat-backend/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.RunChatStoreTests(t, func(t *testing.T) store.ChatStore {
		return NewStore()
	})
}

func TestStore_EqualTimestampsOrderByID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	for _, msg := range []string{"one", "two", "three"} {
		_, err := s.SaveChatExchange(ctx, store.NewChatExchange("u1", msg, "ok"))
		require.NoError(t, err)
	}

	asc, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1", Order: store.OrderAsc})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{asc[0].Message, asc[1].Message, asc[2].Message})

	desc, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1", Order: store.OrderDesc, Limit: 2})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "three", desc[0].Message)
	assert.Equal(t, "two", desc[1].Message)
}

func TestStore_ReturnedSlicesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.SaveChatExchange(ctx, store.NewChatExchange("u1", "hi", "hello"))
	require.NoError(t, err)

	got, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1"})
	require.NoError(t, err)
	got[0].Response = "tampered"

	again, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "hello", again[0].Response)
}
