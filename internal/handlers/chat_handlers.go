package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"ollamachat-backend/internal/models"
	"ollamachat-backend/internal/ollama"
	"ollamachat-backend/internal/services"
	"ollamachat-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// maxRequestBodyBytes bounds the POST /chat payload.
const maxRequestBodyBytes = 1 << 20

// ChatService defines the interface expected from the chat orchestrator.
type ChatService interface {
	CreateChat(ctx context.Context, userID, message string) (*models.ChatExchange, error)
	GetChatHistory(ctx context.Context, userID string) ([]models.ChatExchange, error)
	CheckOllama(ctx context.Context) bool
}

// ChatHandlers handles HTTP requests related to chats.
type ChatHandlers struct {
	chatService ChatService
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService ChatService) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
	}
}

// HandleCreateChat handles POST /chat
func (h *ChatHandlers) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatRequest
	if err := httputil.DecodeJSON(w, r, maxRequestBodyBytes, &req); err != nil {
		log.Printf("WARN [ChatHandlers] HandleCreateChat: %v", err)
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if msg := validateCreateChat(req); msg != "" {
		httputil.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), req.UserID, req.Message)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] HandleCreateChat for user %s: %v", req.UserID, err)
		status, msg := statusForError(err)
		httputil.RespondError(w, status, msg)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, chat)
}

// HandleGetChatHistory handles GET /chat/history/{userID}
func (h *ChatHandlers) HandleGetChatHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if strings.TrimSpace(userID) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "userId should not be empty")
		return
	}

	chats, err := h.chatService.GetChatHistory(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] HandleGetChatHistory for user %s: %v", userID, err)
		status, msg := statusForError(err)
		httputil.RespondError(w, status, msg)
		return
	}

	if chats == nil {
		chats = []models.ChatExchange{}
	}
	httputil.RespondJSON(w, http.StatusOK, chats)
}

// HandleOllamaHealth handles GET /health/ollama. It always answers 200; the
// body carries the verdict.
func (h *ChatHandlers) HandleOllamaHealth(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusUnhealthy
	if h.chatService.CheckOllama(r.Context()) {
		status = models.HealthStatusHealthy
	}
	httputil.RespondJSON(w, http.StatusOK, models.HealthResponse{Status: status})
}

func validateCreateChat(req models.CreateChatRequest) string {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return "userId should not be empty"
	case strings.TrimSpace(req.Message) == "":
		return "message should not be empty"
	}
	return ""
}

// statusForError maps service and gateway failures onto HTTP statuses.
func statusForError(err error) (int, string) {
	if errors.Is(err, services.ErrValidation) {
		return http.StatusBadRequest, err.Error()
	}
	switch ollama.KindOf(err) {
	case ollama.KindServiceUnavailable, ollama.KindModelUnavailable:
		return http.StatusServiceUnavailable, ollama.MessageOf(err)
	case ollama.KindModelProcessing:
		return http.StatusInternalServerError, ollama.MessageOf(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
