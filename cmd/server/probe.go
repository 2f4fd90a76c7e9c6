package main

import (
	"context"
	"errors"
	"fmt"

	"ollamachat-backend/internal/config"
	"ollamachat-backend/internal/models"
	"ollamachat-backend/internal/ollama"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newProbeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that Ollama is reachable and has the configured model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(v)
			if err != nil {
				return err
			}

			client := ollama.NewClient(cfg.Ollama)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Ollama.Timeout)
			defer cancel()

			if !client.HealthCheck(ctx) {
				fmt.Fprintln(cmd.OutOrStdout(), models.HealthStatusUnhealthy)
				return errors.New("ollama is unhealthy")
			}
			fmt.Fprintln(cmd.OutOrStdout(), models.HealthStatusHealthy)
			return nil
		},
	}
}
