package main

import (
	"context"
	"log"
	"time"

	"ollamachat-backend/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the chats table for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(v)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			chatStore, err := openStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer chatStore.Close()

			if err := migrateStore(ctx, chatStore); err != nil {
				return err
			}
			log.Printf("Migration for store %s complete.", cfg.Store.Driver)
			return nil
		},
	}
}
