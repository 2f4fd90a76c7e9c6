package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ollamachat-backend/internal/models"
	"ollamachat-backend/internal/ollama"
	"ollamachat-backend/internal/store"
)

// ErrValidation is returned when a required field is missing or blank.
var ErrValidation = errors.New("validation failed")

// DefaultRecentChatLimit is the number of exchanges fetched as prompt context.
const DefaultRecentChatLimit = 5

// InferenceGateway is the part of the Ollama client the chat service needs.
type InferenceGateway interface {
	GenerateResponse(ctx context.Context, message string, recent []models.ChatExchange, continuation []int) (*ollama.GeneratedReply, error)
	HealthCheck(ctx context.Context) bool
}

// ChatServiceOptions tunes ChatService. Zero values pick the defaults.
type ChatServiceOptions struct {
	RecentChatLimit int
	HistoryLimit    int // 0 returns the full history
}

// ChatService runs one request/response cycle: history lookup, generation,
// persistence.
type ChatService struct {
	store   store.ChatStore
	gateway InferenceGateway
	opts    ChatServiceOptions
}

// NewChatService creates a new ChatService.
func NewChatService(s store.ChatStore, gateway InferenceGateway, opts ChatServiceOptions) *ChatService {
	if opts.RecentChatLimit <= 0 {
		opts.RecentChatLimit = DefaultRecentChatLimit
	}
	if opts.HistoryLimit < 0 {
		opts.HistoryLimit = 0
	}
	return &ChatService{
		store:   s,
		gateway: gateway,
		opts:    opts,
	}
}

// CreateChat asks the model for a reply to message and stores the pair.
// Gateway errors are returned unchanged; nothing is stored when generation fails.
// Once a reply exists it is stored regardless of caller cancellation.
func (s *ChatService) CreateChat(ctx context.Context, userID, message string) (*models.ChatExchange, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId should not be empty", ErrValidation)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message should not be empty", ErrValidation)
	}

	log.Printf("[ChatService] CreateChat: user %s, message length %d", userID, len(message))

	recent, err := s.GetRecentChats(ctx, userID, s.opts.RecentChatLimit)
	if err != nil {
		log.Printf("ERROR [ChatService] CreateChat: loading recent chats for user %s: %v", userID, err)
		return nil, err
	}
	log.Printf("[ChatService] CreateChat: found %d recent chats for context", len(recent))

	reply, err := s.gateway.GenerateResponse(ctx, message, recent, nil)
	if err != nil {
		log.Printf("ERROR [ChatService] CreateChat: inference failed for user %s (%s): %v", userID, ollama.KindOf(err), err)
		return nil, err
	}

	response := strings.TrimSpace(reply.Response)
	if response == "" {
		err := &ollama.Error{Kind: ollama.KindModelProcessing, Message: "Model returned an empty response. Please try again."}
		log.Printf("ERROR [ChatService] CreateChat: empty response from model for user %s", userID)
		return nil, err
	}

	// The reply is already paid for; keep it even if the caller has gone away.
	saveCtx := context.WithoutCancel(ctx)
	saved, err := s.store.SaveChatExchange(saveCtx, store.NewChatExchange(userID, message, response))
	if err != nil {
		log.Printf("ERROR [ChatService] CreateChat: saving chat for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to save chat: %w", err)
	}

	log.Printf("[ChatService] CreateChat: successfully saved chat with ID %d", saved.ID)
	return saved, nil
}

// GetRecentChats returns at most limit exchanges for userID, newest first.
func (s *ChatService) GetRecentChats(ctx context.Context, userID string, limit int) ([]models.ChatExchange, error) {
	if limit <= 0 {
		limit = s.opts.RecentChatLimit
	}
	chats, err := s.store.FindChatExchanges(ctx, store.FindChatExchangesParams{
		UserID: userID,
		Order:  store.OrderDesc,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent chats: %w", err)
	}
	return chats, nil
}

// GetChatHistory returns the exchanges of userID oldest first. With a
// HistoryLimit set only the newest HistoryLimit exchanges are returned.
func (s *ChatService) GetChatHistory(ctx context.Context, userID string) ([]models.ChatExchange, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId should not be empty", ErrValidation)
	}

	if s.opts.HistoryLimit == 0 {
		chats, err := s.store.FindChatExchanges(ctx, store.FindChatExchangesParams{
			UserID: userID,
			Order:  store.OrderAsc,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list chat history: %w", err)
		}
		return chats, nil
	}

	chats, err := s.store.FindChatExchanges(ctx, store.FindChatExchangesParams{
		UserID: userID,
		Order:  store.OrderDesc,
		Limit:  s.opts.HistoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chat history: %w", err)
	}
	for i, j := 0, len(chats)-1; i < j; i, j = i+1, j-1 {
		chats[i], chats[j] = chats[j], chats[i]
	}
	return chats, nil
}

// CheckOllama reports inference backend health.
func (s *ChatService) CheckOllama(ctx context.Context) bool {
	return s.gateway.HealthCheck(ctx)
}

// CheckStorage logs whether the store is reachable. It is a startup
// diagnostic only and never fails the caller.
func (s *ChatService) CheckStorage(ctx context.Context) {
	n, err := s.store.CountChatExchanges(ctx)
	if err != nil {
		log.Printf("ERROR [ChatService] Database connection failed: %v", err)
		return
	}
	log.Printf("[ChatService] Database connection successful (%d chats stored)", n)
}
