package main

import (
	"context"
	"path/filepath"
	"testing"

	"ollamachat-backend/internal/config"
	"ollamachat-backend/internal/store"
	"ollamachat-backend/internal/store/memory"
	"ollamachat-backend/internal/store/sqlstore"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := openStore(ctx, config.StoreConfig{Driver: config.StoreDriverMemory})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &memory.Store{}, s)
		assert.NoError(t, migrateStore(ctx, s), "stores without a schema skip migration")
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := openStore(ctx, config.StoreConfig{
			Driver:     config.StoreDriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "chat.db"),
		})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &sqlstore.Store{}, s)

		require.NoError(t, migrateStore(ctx, s))
		_, err = s.SaveChatExchange(ctx, store.NewChatExchange("u1", "hi", "hello"))
		assert.NoError(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := openStore(ctx, config.StoreConfig{Driver: "oracle"})
		assert.Error(t, err)
	})
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["probe"])

	require.NoError(t, root.PersistentFlags().Set("model", "llama3"))
	assert.NotNil(t, root.PersistentFlags().Lookup("store-driver"))
}

func TestRootCommandServesByDefault(t *testing.T) {
	calls := map[string]int{}
	orig := serve
	serve = func(v *viper.Viper) error {
		calls[v.GetString("OLLAMA_MODEL")]++
		return nil
	}
	t.Cleanup(func() { serve = orig })

	root := newRootCmd()
	root.SetArgs([]string{"--model", "llama3"})
	require.NoError(t, root.Execute())
	assert.Equal(t, 1, calls["llama3"])

	root = newRootCmd()
	root.SetArgs([]string{"serve"})
	require.NoError(t, root.Execute())
	assert.Equal(t, 1, calls["tinyllama"])
}
