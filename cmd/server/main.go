package main

import (
	"log"
	"os"

	"ollamachat-backend/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serve is swapped out in tests.
var serve = runServe

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("FATAL: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	root := &cobra.Command{
		Use:           "ollamachat",
		Short:         "Chat backend that answers messages with a local Ollama model",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Without a subcommand the binary serves, like a plain server main.
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("store-driver", config.StoreDriverPostgres, "chat store driver: postgres, sqlite, mysql or memory")
	flags.String("ollama-url", "http://localhost:11434", "base URL of the Ollama server")
	flags.String("model", "tinyllama", "Ollama model used for generation")
	bindFlag(v, root, "STORE_DRIVER", "store-driver")
	bindFlag(v, root, "OLLAMA_BASE_URL", "ollama-url")
	bindFlag(v, root, "OLLAMA_MODEL", "model")

	root.AddCommand(newServeCmd(v), newMigrateCmd(v), newProbeCmd(v))
	return root
}

// bindFlag lets an explicitly set flag override the environment value for key.
func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		log.Fatalf("FATAL: binding flag --%s: %v", flag, err)
	}
}
