package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ollamachat-backend/internal/store"
	"ollamachat-backend/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.RunChatStoreTests(t, func(t *testing.T) store.ChatStore {
		return newSQLiteStore(t)
	})
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
	assert.Equal(t, DialectSQLite, s.Dialect())
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	saved, err := s.SaveChatExchange(ctx, store.NewChatExchange("u1", "hi", "hello"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	chats, err := reopened.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, saved.ID, chats[0].ID)
	assert.True(t, saved.CreatedAt.Equal(chats[0].CreatedAt))
}

func TestSQLiteStore_EqualTimestampsOrderByID(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	for _, msg := range []string{"one", "two", "three"} {
		_, err := s.SaveChatExchange(ctx, store.NewChatExchange("u1", msg, "ok"))
		require.NoError(t, err)
	}

	desc, err := s.FindChatExchanges(ctx, store.FindChatExchangesParams{UserID: "u1", Order: store.OrderDesc})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "three", desc[0].Message)
	assert.Equal(t, "one", desc[2].Message)
}

func TestNew_UnknownDialect(t *testing.T) {
	_, err := New(nil, Dialect("oracle"))
	assert.Error(t, err)
}

func TestOpenMySQL_InvalidDSN(t *testing.T) {
	_, err := OpenMySQL("not a dsn")
	assert.Error(t, err)
}
