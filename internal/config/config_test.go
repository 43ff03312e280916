package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ANSWER_FRAMING", "sse")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "vu-chat-sessions", cfg.Storage.Key)
	assert.Equal(t, "sse", cfg.Answer.Framing)
	assert.Equal(t, "/api/chat/stream", cfg.Answer.StreamPath)
	assert.Equal(t, 60*time.Second, cfg.Answer.Timeout)
}

func TestLoad_FramingIsRequired(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ANSWER_FRAMING", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
storage:
  driver: sqlite
  path: /tmp/chat.db
answer:
  base_url: http://answers.internal:8000
  framing: ndjson
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "ndjson", cfg.Answer.Framing)
	assert.Equal(t, "http://answers.internal:8000", cfg.Answer.BaseURL)
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Driver: "etcd", Key: "k"},
		Answer: AnswerConfig{
			BaseURL:      "http://localhost:8000",
			Framing:      "ndjson",
			ChatPath:     "/api/chat",
			StreamPath:   "/api/chat/stream",
			FeedbackPath: "/api/feedback",
		},
	}
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = "memory"
	assert.NoError(t, cfg.Validate())
}
