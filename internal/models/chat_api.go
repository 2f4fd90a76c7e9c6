package models

// --- Request Structs ---

// CreateChatRequest defines the expected body for POST /chat.
type CreateChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// --- Response Structs ---

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// HealthStatus values reported by GET /health/ollama.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// HealthResponse is returned by the inference health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
