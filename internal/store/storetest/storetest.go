// Package storetest holds behaviour tests every store.ChatStore driver must pass.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"ollamachat-backend/internal/models"
	"ollamachat-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunChatStoreTests exercises s. newStore must return an empty, migrated store
// for each subtest.
func RunChatStoreTests(t *testing.T, newStore func(t *testing.T) store.ChatStore) {
	t.Run("SaveAssignsIDAndTimestamp", func(t *testing.T) {
		testSaveAssignsIDAndTimestamp(t, newStore(t))
	})
	t.Run("SaveRejectsIncompleteDraft", func(t *testing.T) {
		testSaveRejectsIncompleteDraft(t, newStore(t))
	})
	t.Run("FindOrdersAndLimits", func(t *testing.T) {
		testFindOrdersAndLimits(t, newStore(t))
	})
	t.Run("FindIsScopedToUser", func(t *testing.T) {
		testFindIsScopedToUser(t, newStore(t))
	})
	t.Run("FindIsRepeatable", func(t *testing.T) {
		testFindIsRepeatable(t, newStore(t))
	})
	t.Run("LongValues", func(t *testing.T) {
		testLongValues(t, newStore(t))
	})
	t.Run("Count", func(t *testing.T) {
		testCount(t, newStore(t))
	})
}

func seed(t *testing.T, s store.ChatStore, userID string, n int) []models.ChatExchange {
	t.Helper()
	out := make([]models.ChatExchange, 0, n)
	for i := 0; i < n; i++ {
		saved, err := s.SaveChatExchange(context.Background(),
			store.NewChatExchange(userID, fmt.Sprintf("message %d", i), fmt.Sprintf("response %d", i)))
		require.NoError(t, err)
		out = append(out, *saved)
	}
	return out
}

func testSaveAssignsIDAndTimestamp(t *testing.T, s store.ChatStore) {
	ctx := context.Background()
	draft := store.NewChatExchange("u1", "  hi  ", "hello")
	require.Zero(t, draft.ID)

	first, err := s.SaveChatExchange(ctx, draft)
	require.NoError(t, err)
	second, err := s.SaveChatExchange(ctx, store.NewChatExchange("u1", "again", "hello again"))
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "  hi  ", first.Message)
	assert.Equal(t, "hello", first.Response)
}

func testSaveRejectsIncompleteDraft(t *testing.T, s store.ChatStore) {
	ctx := context.Background()
	for _, draft := range []*models.ChatExchange{
		nil,
		store.NewChatExchange("", "m", "r"),
		store.NewChatExchange("u", "", "r"),
		store.NewChatExchange("u", "m", ""),
	} {
		_, err := s.SaveChatExchange(ctx, draft)
		assert.ErrorIs(t, err, store.ErrInvalidExchange)
	}

	n, err := s.CountChatExchanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testFindOrdersAndLimits(t *testing.T, s store.ChatStore) {
	ctx := context.Background()
	saved := seed(t, s, "u1", 4)

	asc, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1", Order: store.OrderAsc})
	require.NoError(t, err)
	require.Len(t, asc, 4)
	assert.True(t, isNonDecreasing(asc))
	for i := range saved {
		assert.Equal(t, saved[i].ID, asc[i].ID)
	}

	desc, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1", Order: store.OrderDesc, Limit: 3})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, saved[3].ID, desc[0].ID)
	assert.Equal(t, saved[2].ID, desc[1].ID)
	assert.Equal(t, saved[1].ID, desc[2].ID)
	for i := 1; i < len(desc); i++ {
		assert.False(t, desc[i].CreatedAt.After(desc[i-1].CreatedAt))
	}

	defaultOrder, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, asc, defaultOrder)

	_, err = s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1", Order: "sideways"})
	assert.Error(t, err)
}

func testFindIsScopedToUser(t *testing.T, s store.ChatStore) {
	ctx := context.Background()
	seed(t, s, "alice", 2)
	seed(t, s, "bob", 1)

	alice, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 2)
	for _, c := range alice {
		assert.Equal(t, "alice", c.UserID)
	}

	nobody, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "carol"})
	require.NoError(t, err)
	assert.NotNil(t, nobody)
	assert.Empty(t, nobody)
}

func testFindIsRepeatable(t *testing.T, s store.ChatStore) {
	ctx := context.Background()
	seed(t, s, "u1", 3)

	params := store.FindChatExchangesParams{UserID: "u1"}
	first, err := s.FindChatExchanges(ctx, params)
	require.NoError(t, err)
	second, err := s.FindChatExchanges(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func testLongValues(t *testing.T, s store.ChatStore) {
	ctx := context.Background()
	// Both ids share a 300 byte prefix and differ only at the end.
	prefix := strings.Repeat("u", 300)
	userA, userB := prefix+"-a", prefix+"-b"
	message := strings.Repeat("m", 200<<10)
	response := strings.Repeat("r", 200<<10)

	saved, err := s.SaveChatExchange(ctx, store.NewChatExchange(userA, message, response))
	require.NoError(t, err)
	_, err = s.SaveChatExchange(ctx, store.NewChatExchange(userB, "short", "reply"))
	require.NoError(t, err)

	got, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: userA})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, saved.ID, got[0].ID)
	assert.Equal(t, userA, got[0].UserID)
	assert.Len(t, got[0].Message, len(message))
	assert.Len(t, got[0].Response, len(response))
}

func testCount(t *testing.T, s store.ChatStore) {
	ctx := context.Background()
	seed(t, s, "a", 2)
	seed(t, s, "b", 3)

	n, err := s.CountChatExchanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, s.Ping(ctx))
}

func isNonDecreasing(chats []models.ChatExchange) bool {
	for i := 1; i < len(chats); i++ {
		if chats[i].CreatedAt.Before(chats[i-1].CreatedAt) {
			return false
		}
	}
	return true
}
