package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"ollamachat-backend/internal/config"
	"ollamachat-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxResponseBytes caps how much of an Ollama response body is read.
const maxResponseBytes = 10 << 20

// GenerateRequest is the body of POST /api/generate.
//
// The sampling values are sent both top-level and under options: the
// top-level fields are the documented contract of this service, options is
// where current Ollama releases read them from.
type GenerateRequest struct {
	Model         string                 `json:"model"`
	Prompt        string                 `json:"prompt"`
	Stream        bool                   `json:"stream"`
	Context       []int                  `json:"context,omitempty"`
	Temperature   float64                `json:"temperature"`
	TopP          float64                `json:"top_p"`
	RepeatPenalty float64                `json:"repeat_penalty"`
	Options       map[string]interface{} `json:"options,omitempty"`
}

// GeneratedReply is the non-streaming /api/generate response.
type GeneratedReply struct {
	Model              string `json:"model"`
	Response           string `json:"response"`
	Done               bool   `json:"done"`
	Context            []int  `json:"context,omitempty"` // Continuation token
	TotalDuration      int64  `json:"total_duration,omitempty"`
	LoadDuration       int64  `json:"load_duration,omitempty"`
	PromptEvalCount    int    `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration int64  `json:"prompt_eval_duration,omitempty"`
	EvalCount          int    `json:"eval_count,omitempty"`
	EvalDuration       int64  `json:"eval_duration,omitempty"`
}

type showRequest struct {
	Name string `json:"name"`
}

type versionResponse struct {
	Version string `json:"version"`
}

// Client talks to a single Ollama server for a single configured model.
type Client struct {
	cfg        config.OllamaConfig
	httpClient *http.Client
}

// NewClient builds a Client whose every round trip is bounded by cfg.Timeout.
func NewClient(cfg config.OllamaConfig) *Client {
	log.Printf("[OllamaClient] Initializing Ollama client with baseURL: %s, model: %s", cfg.BaseURL, cfg.Model)
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Model returns the model identifier used for generation.
func (c *Client) Model() string { return c.cfg.Model }

// GenerateResponse verifies the model exists, builds the prompt from message
// and recent, and runs one non-streaming generation.
//
// The caller's cancellation is not propagated: once started, a generation
// runs until it completes or hits the client timeout.
func (c *Client) GenerateResponse(ctx context.Context, message string, recent []models.ChatExchange, continuation []int) (*GeneratedReply, error) {
	if message == "" {
		return nil, newError(KindInternal, "Message must not be empty", nil)
	}
	ctx = context.WithoutCancel(ctx)
	callID := uuid.NewString()

	if err := c.ensureModelExists(ctx); err != nil {
		log.Printf("ERROR [OllamaClient] GenerateResponse %s: model check failed: %v", callID, err)
		return nil, err
	}

	req := GenerateRequest{
		Model:         c.cfg.Model,
		Prompt:        BuildPrompt(c.cfg.PromptPreamble, message, recent, c.cfg.ContextWindow),
		Stream:        false,
		Context:       continuation,
		Temperature:   c.cfg.Temperature,
		TopP:          c.cfg.TopP,
		RepeatPenalty: c.cfg.RepeatPenalty,
		Options: map[string]interface{}{
			"temperature":    c.cfg.Temperature,
			"top_p":          c.cfg.TopP,
			"repeat_penalty": c.cfg.RepeatPenalty,
		},
	}

	log.Printf("[OllamaClient] GenerateResponse %s: sending request with model %s (%d context chats, prompt %d bytes)",
		callID, c.cfg.Model, min(len(recent), c.cfg.ContextWindow), len(req.Prompt))

	resp, err := c.do(ctx, http.MethodPost, "/api/generate", req)
	if err != nil {
		log.Printf("ERROR [OllamaClient] GenerateResponse %s: %v", callID, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Printf("ERROR [OllamaClient] GenerateResponse %s: reading body: %v", callID, err)
		if isTransportError(err) {
			return nil, newError(KindServiceUnavailable, "Failed to communicate with Ollama service", err)
		}
		return nil, newError(KindInternal, "Internal server error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("ERROR [OllamaClient] GenerateResponse %s: status=%d body=%q", callID, resp.StatusCode, truncate(body, 512))
		return nil, classifyGenerateStatus(resp.StatusCode, c.cfg.Model, body)
	}

	var reply GeneratedReply
	if err := json.Unmarshal(body, &reply); err != nil {
		log.Printf("ERROR [OllamaClient] GenerateResponse %s: decoding body: %v", callID, err)
		return nil, newError(KindInternal, "Internal server error", fmt.Errorf("decode generate response: %w", err))
	}

	log.Printf("[OllamaClient] GenerateResponse %s: successfully generated response (%d bytes, eval_count=%d)", callID, len(reply.Response), reply.EvalCount)
	return &reply, nil
}

func classifyGenerateStatus(status int, model string, body []byte) *Error {
	cause := fmt.Errorf("ollama returned status %d: %s", status, truncate(body, 512))
	switch {
	case status >= 500:
		return newError(KindModelProcessing, "Model processing error. Please ensure the model is properly loaded.", cause)
	case status == http.StatusNotFound:
		return newError(KindModelUnavailable, modelUnavailableMessage(model), cause)
	default:
		return newError(KindInternal, "Internal server error", cause)
	}
}

// ensureModelExists probes POST /api/show for the configured model.
func (c *Client) ensureModelExists(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/show", showRequest{Name: c.cfg.Model})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("WARN [OllamaClient] Model %s not found (status %d)", c.cfg.Model, resp.StatusCode)
		return newError(KindModelUnavailable, modelUnavailableMessage(c.cfg.Model),
			fmt.Errorf("/api/show returned status %d", resp.StatusCode))
	}
	return nil
}

// Version returns the Ollama server version from GET /api/version.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.getVersion(ctx)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var v versionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&v); err != nil {
		return "", newError(KindInternal, "Internal server error", fmt.Errorf("decode version response: %w", err))
	}
	return v.Version, nil
}

// getVersion calls GET /api/version and fails on transport errors and
// non-2xx answers. The body is left for the caller.
func (c *Client) getVersion(ctx context.Context) (*http.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/version", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, newError(KindServiceUnavailable, "Ollama version probe failed",
			fmt.Errorf("/api/version returned status %d", resp.StatusCode))
	}
	return resp, nil
}

// HealthCheck reports whether the server answers the version probe with a
// 2xx and has the configured model. The version body is not inspected. It
// never returns an error; any failure is false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	log.Println("[OllamaClient] Attempting Ollama health check...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := c.getVersion(gctx)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	})
	g.Go(func() error {
		return c.ensureModelExists(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("ERROR [OllamaClient] Ollama service health check failed: %v", err)
		return false
	}
	log.Println("[OllamaClient] Ollama health check passed")
	return true
}

// do sends one JSON request. Failures before a response arrives are
// classified here: building the request is KindInternal, the round trip
// itself (refused connection, DNS, timeout) is KindServiceUnavailable.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, newError(KindInternal, "Internal server error", fmt.Errorf("encode %s request: %w", path, err))
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, newError(KindInternal, "Internal server error", fmt.Errorf("build %s request: %w", path, err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindServiceUnavailable, "Failed to communicate with Ollama service", err)
	}
	return resp, nil
}

func isTransportError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded)
}

func modelUnavailableMessage(model string) string {
	return fmt.Sprintf("Model %s is not available. Please ensure it's installed using 'ollama pull %s'", model, model)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
