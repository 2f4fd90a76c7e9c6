package ollama

import (
	"strings"

	"ollamachat-backend/internal/models"
)

// BuildPrompt renders the single-turn prompt sent to /api/generate.
//
// recent is used in the order given (the orchestrator passes newest first)
// and only its first window entries are rendered.
func BuildPrompt(preamble, message string, recent []models.ChatExchange, window int) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")

	if window > len(recent) {
		window = len(recent)
	}
	if window > 0 {
		b.WriteString("Recent conversation:\n")
		for _, chat := range recent[:window] {
			b.WriteString("Context - Message: ")
			b.WriteString(chat.Message)
			b.WriteString("\nContext - Response: ")
			b.WriteString(chat.Response)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Current message: ")
	b.WriteString(message)
	b.WriteString("\nYour response:")
	return b.String()
}
