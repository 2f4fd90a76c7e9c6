package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.HTTPPort)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.True(t, cfg.Store.AutoMigrate)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "tinyllama", cfg.Ollama.Model)
	assert.Equal(t, 30*time.Second, cfg.Ollama.Timeout)
	assert.InDelta(t, 0.7, cfg.Ollama.Temperature, 1e-9)
	assert.InDelta(t, 0.9, cfg.Ollama.TopP, 1e-9)
	assert.InDelta(t, 1.1, cfg.Ollama.RepeatPenalty, 1e-9)
	assert.Equal(t, DefaultPromptPreamble, cfg.Ollama.PromptPreamble)
	assert.Equal(t, 2, cfg.Ollama.ContextWindow)
	assert.Equal(t, 5, cfg.Chat.RecentChatLimit)
	assert.Zero(t, cfg.Chat.HistoryLimit)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/chat-test.db")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434/")
	t.Setenv("OLLAMA_MODEL", "llama3")
	t.Setenv("OLLAMA_TIMEOUT", "45s")
	t.Setenv("OLLAMA_TEMPERATURE", "0.2")
	t.Setenv("CONTEXT_WINDOW", "4")
	t.Setenv("HISTORY_LIMIT", "100")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/chat-test.db", cfg.Store.SQLitePath)
	assert.Equal(t, "http://ollama:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
	assert.Equal(t, 45*time.Second, cfg.Ollama.Timeout)
	assert.InDelta(t, 0.2, cfg.Ollama.Temperature, 1e-9)
	assert.Equal(t, 4, cfg.Ollama.ContextWindow)
	assert.Equal(t, 100, cfg.Chat.HistoryLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_InvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("OLLAMA_TIMEOUT", "soon")

	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Ollama.Timeout)
}

func TestLoadConfig_NilViperUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "tinyllama", cfg.Ollama.Model)
}

func TestLoadConfig_FlagOverride(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "from-env")
	v := NewViper()
	v.Set("OLLAMA_MODEL", "from-flag")

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Ollama.Model)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Driver: StoreDriverMemory},
			Ollama: OllamaConfig{BaseURL: "http://localhost:11434", Model: "tinyllama", ContextWindow: 2},
			Chat:   ChatConfig{RecentChatLimit: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "oracle" }, "unknown STORE_DRIVER"},
		{"postgres without url", func(c *Config) { c.Store.Driver = StoreDriverPostgres }, "DATABASE_URL"},
		{"sqlite without path", func(c *Config) { c.Store.Driver = StoreDriverSQLite }, "SQLITE_PATH"},
		{"mysql without dsn", func(c *Config) { c.Store.Driver = StoreDriverMySQL }, "MYSQL_DSN"},
		{"empty base url", func(c *Config) { c.Ollama.BaseURL = "" }, "OLLAMA_BASE_URL"},
		{"empty model", func(c *Config) { c.Ollama.Model = "" }, "OLLAMA_MODEL"},
		{"negative window", func(c *Config) { c.Ollama.ContextWindow = -1 }, "CONTEXT_WINDOW"},
		{"zero recent limit", func(c *Config) { c.Chat.RecentChatLimit = 0 }, "RECENT_CHAT_LIMIT"},
		{"negative history limit", func(c *Config) { c.Chat.HistoryLimit = -1 }, "HISTORY_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
