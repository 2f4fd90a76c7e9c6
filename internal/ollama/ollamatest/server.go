// Package ollamatest provides an in-process fake of the Ollama HTTP API for
// tests: /api/version, /api/show and non-streaming /api/generate.
package ollamatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// GenerateCall is one decoded /api/generate request body.
type GenerateCall struct {
	Model         string                 `json:"model"`
	Prompt        string                 `json:"prompt"`
	Stream        bool                   `json:"stream"`
	Context       []int                  `json:"context"`
	Temperature   float64                `json:"temperature"`
	TopP          float64                `json:"top_p"`
	RepeatPenalty float64                `json:"repeat_penalty"`
	Options       map[string]interface{} `json:"options"`
}

// Server is a fake Ollama. Zero-valued status fields mean 200.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	models         map[string]bool
	reply          string
	version        string
	generateStatus int
	versionStatus  int
	versionBody    string
	generateDelay  time.Duration
	generateCalls  []GenerateCall
	showCalls      int
}

// NewServer starts a fake serving the given installed models.
func NewServer(installed ...string) *Server {
	s := &Server{
		models:  make(map[string]bool),
		reply:   "Hello there!",
		version: "0.6.2",
	}
	for _, m := range installed {
		s.models[m] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("POST /api/show", s.handleShow)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) SetReply(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = reply
}

func (s *Server) SetGenerateStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateStatus = status
}

func (s *Server) SetVersionStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versionStatus = status
}

// SetVersionBody makes /api/version answer 200 with body written as is.
func (s *Server) SetVersionBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versionBody = body
}

func (s *Server) SetGenerateDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generateDelay = d
}

func (s *Server) RemoveModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, name)
}

// GenerateCalls returns a copy of every /api/generate body received.
func (s *Server) GenerateCalls() []GenerateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GenerateCall(nil), s.generateCalls...)
}

func (s *Server) ShowCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showCalls
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status, version, raw := s.versionStatus, s.version, s.versionBody
	s.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		writeJSON(w, status, map[string]string{"error": "version unavailable"})
		return
	}
	if raw != "" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(raw))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": version})
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	name := req.Name
	if name == "" {
		name = req.Model
	}

	s.mu.Lock()
	s.showCalls++
	ok := s.models[name]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "model '" + name + "' not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"modelfile": "FROM " + name,
		"details":   map[string]string{"format": "gguf"},
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var call GenerateCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.generateCalls = append(s.generateCalls, call)
	status, reply, delay, known := s.generateStatus, s.reply, s.generateDelay, s.models[call.Model]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	switch {
	case status != 0 && status != http.StatusOK:
		writeJSON(w, status, map[string]string{"error": "llama runner process has terminated"})
	case !known:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "model '" + call.Model + "' not found"})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"model":      call.Model,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
			"response":   reply,
			"done":       true,
			"context":    []int{1, 2, 3},
			"eval_count": 7,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
