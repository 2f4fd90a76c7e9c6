package ollama

import (
	"strings"
	"testing"

	"ollamachat-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

const testPreamble = "You are a helpful assistant. Give a single direct response."

func TestBuildPrompt_UsesOnlyTheTwoMostRecentExchanges(t *testing.T) {
	recent := []models.ChatExchange{
		{Message: "A", Response: "B"},
		{Message: "C", Response: "D"},
		{Message: "E", Response: "F"},
	}

	prompt := BuildPrompt(testPreamble, "G", recent, 2)

	want := testPreamble + "\n\n" +
		"Recent conversation:\n" +
		"Context - Message: A\nContext - Response: B\n" +
		"Context - Message: C\nContext - Response: D\n" +
		"\n" +
		"Current message: G\nYour response:"
	assert.Equal(t, want, prompt)
	assert.NotContains(t, prompt, "Context - Message: E")
	assert.NotContains(t, prompt, "Context - Response: F")
}

func TestBuildPrompt_NoHistoryOmitsConversationBlock(t *testing.T) {
	prompt := BuildPrompt(testPreamble, "hi", nil, 2)

	assert.Equal(t, testPreamble+"\n\nCurrent message: hi\nYour response:", prompt)
	assert.NotContains(t, prompt, "Recent conversation")
}

func TestBuildPrompt_WindowLargerThanHistory(t *testing.T) {
	recent := []models.ChatExchange{{Message: "only", Response: "one"}}

	prompt := BuildPrompt(testPreamble, "next", recent, 5)

	assert.Equal(t, 1, strings.Count(prompt, "Context - Message:"))
	assert.True(t, strings.HasSuffix(prompt, "Current message: next\nYour response:"))
}

func TestBuildPrompt_ZeroWindowDropsHistory(t *testing.T) {
	recent := []models.ChatExchange{{Message: "A", Response: "B"}}

	prompt := BuildPrompt(testPreamble, "G", recent, 0)

	assert.NotContains(t, prompt, "Recent conversation")
}

func TestBuildPrompt_KeepsCallerOrder(t *testing.T) {
	recent := []models.ChatExchange{
		{Message: "newest", Response: "r1"},
		{Message: "older", Response: "r2"},
	}

	prompt := BuildPrompt(testPreamble, "q", recent, 2)

	assert.Less(t, strings.Index(prompt, "newest"), strings.Index(prompt, "older"))
}
