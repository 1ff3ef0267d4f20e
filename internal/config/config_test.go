package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "ChatLog", cfg.ChatLogTable)
	require.Equal(t, "BugTickets", cfg.BugTicketsTable)
	require.Equal(t, "Records", cfg.RecordsTable)
	require.Equal(t, 30*time.Second, cfg.InferenceTimeout)
	require.Empty(t, cfg.ChatEndpoint)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CHAT_ENDPOINT", "https://models.example/chat")
	t.Setenv("PREDICT_ENDPOINT", "https://models.example/predict")
	t.Setenv("AUTH_TOKEN", "tok")
	t.Setenv("CHAT_LOG_TABLE", "chat-log-prod")
	t.Setenv("INFERENCE_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "https://models.example/chat", cfg.ChatEndpoint)
	require.Equal(t, "https://models.example/predict", cfg.PredictEndpoint)
	require.Equal(t, "tok", cfg.AuthToken)
	require.Equal(t, "chat-log-prod", cfg.ChatLogTable)
	require.Equal(t, 45*time.Second, cfg.InferenceTimeout)
}

func TestLoad_InvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("INFERENCE_TIMEOUT", "not-a-duration")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.InferenceTimeout)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: "8080", ChatLogTable: "a", BugTicketsTable: "b", RecordsTable: "c", InferenceTimeout: time.Second}
	require.NoError(t, cfg.Validate())

	cfg.Port = ""
	require.Error(t, cfg.Validate())

	cfg.Port = "8080"
	cfg.ChatLogTable = ""
	require.Error(t, cfg.Validate())

	cfg.ChatLogTable = "a"
	cfg.InferenceTimeout = 0
	require.Error(t, cfg.Validate())
}
