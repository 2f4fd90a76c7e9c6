package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ollamachat-backend/internal/api"
	"ollamachat-backend/internal/config"
	"ollamachat-backend/internal/handlers"
	"ollamachat-backend/internal/ollama"
	"ollamachat-backend/internal/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
	}
	cmd.Flags().String("port", "3001", "HTTP listen port")
	if err := v.BindPFlag("HTTP_PORT", cmd.Flags().Lookup("port")); err != nil {
		log.Fatalf("FATAL: binding flag --port: %v", err)
	}
	return cmd
}

func runServe(v *viper.Viper) error {
	log.Println("Starting Ollama Chat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig(v)
	if err != nil {
		return err
	}
	log.Println("Configuration loaded successfully.")

	// 2. Open the chat store
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer startupCancel()

	chatStore, err := openStore(startupCtx, cfg.Store)
	if err != nil {
		return err
	}
	defer chatStore.Close()
	log.Printf("Chat store (%s) initialized.", cfg.Store.Driver)

	if cfg.Store.AutoMigrate {
		if err := migrateStore(startupCtx, chatStore); err != nil {
			// Each request retries its own storage call, so this is not fatal.
			log.Printf("WARN: Schema migration failed: %v", err)
		}
	}

	// 3. Initialize Dependencies (Gateway, Services, Handlers)
	ollamaClient := ollama.NewClient(cfg.Ollama)
	log.Println("Ollama client initialized.")

	chatService := services.NewChatService(chatStore, ollamaClient, services.ChatServiceOptions{
		RecentChatLimit: cfg.Chat.RecentChatLimit,
		HistoryLimit:    cfg.Chat.HistoryLimit,
	})
	log.Println("ChatService initialized.")
	chatService.CheckStorage(startupCtx)

	if version, err := ollamaClient.Version(startupCtx); err != nil {
		log.Printf("WARN: Ollama is not reachable at %s yet: %v", cfg.Ollama.BaseURL, err)
	} else {
		log.Printf("Connected to Ollama %s at %s", version, cfg.Ollama.BaseURL)
	}

	chatHandler := handlers.NewChatHandlers(chatService)
	log.Println("ChatHandler initialized.")

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		ChatHandler:        chatHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.Ollama.Timeout*2 + 5*time.Second,
	})
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// A chat request makes two Ollama round trips, each bounded by the
		// client timeout.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Ollama.Timeout*2 + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		log.Println("Server listener routine stopped.")
	}()

	select {
	case err := <-serverErr:
		return err
	case <-stopChan:
	}
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
		return err
	}

	log.Println("Server shutdown complete.")
	return nil
}
