package main

import (
	"context"
	"fmt"
	"log"

	"ollamachat-backend/internal/config"
	"ollamachat-backend/internal/store"
	"ollamachat-backend/internal/store/memory"
	"ollamachat-backend/internal/store/postgres"
	"ollamachat-backend/internal/store/sqlstore"
)

// migrator is implemented by the SQL-backed stores.
type migrator interface {
	Migrate(ctx context.Context) error
}

// openStore builds the chat store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.ChatStore, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	case config.StoreDriverSQLite:
		return sqlstore.OpenSQLite(cfg.SQLitePath)
	case config.StoreDriverMySQL:
		return sqlstore.OpenMySQL(cfg.MySQLDSN)
	case config.StoreDriverMemory:
		log.Println("WARN: Using in-memory chat store; chats are lost on restart.")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// migrateStore runs the schema migration when the store supports one.
func migrateStore(ctx context.Context, s store.ChatStore) error {
	m, ok := s.(migrator)
	if !ok {
		return nil
	}
	return m.Migrate(ctx)
}
