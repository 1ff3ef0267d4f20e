package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"portfolio-backend/internal/domain"
	"portfolio-backend/internal/integrations/inference"
)

// FallbackBotMessage is appended to the transcript when the inference call
// fails, so the stored history reflects what the user saw.
const FallbackBotMessage = "Sorry, something went wrong while answering. Please try again in a moment."

// ChatClient is the inference dependency of the relay.
type ChatClient interface {
	Chat(ctx context.Context, message string) (string, error)
}

// TranscriptStore persists the final transcript of an exchange.
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, t domain.Transcript) error
}

// RelayService forwards one user message to the model host and records the
// exchange. The response status is decided before persistence runs;
// persistence failures are logged and never alter it.
type RelayService struct {
	chat  ChatClient
	store TranscriptStore
}

type SendInput struct {
	Message         string
	SessionKey      string
	CurrentMessages []domain.ChatMessage
}

type SendOutput struct {
	Response string
}

func NewRelayService(chat ChatClient, store TranscriptStore) (*RelayService, error) {
	if chat == nil {
		return nil, errors.New("usecase: chat client must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: transcript store must not be nil")
	}
	return &RelayService{chat: chat, store: store}, nil
}

func (s *RelayService) Send(ctx context.Context, in SendInput) (SendOutput, error) {
	message := strings.TrimSpace(in.Message)
	sessionKey := strings.TrimSpace(in.SessionKey)
	if message == "" || sessionKey == "" {
		return SendOutput{}, newError(ErrorInvalidInput, "missing_message_or_session",
			"Message and session identifier are required", nil)
	}

	// The caller either sends the full history with the user's message
	// already appended, or just the message for a fresh session.
	transcript := domain.Transcript{SessionKey: sessionKey, Messages: in.CurrentMessages}
	if len(transcript.Messages) == 0 {
		transcript.Messages = []domain.ChatMessage{{Sender: domain.SenderUser, Text: message}}
	}

	reply, err := s.chat.Chat(ctx, message)
	if err != nil {
		if errors.Is(err, inference.ErrNotConfigured) {
			s.persist(ctx, transcript)
			return SendOutput{}, newError(ErrorNotConfigured, "chat_not_configured",
				"Chat inference endpoint is not configured", err)
		}
		transcript.Messages = append(transcript.Messages, domain.ChatMessage{
			Sender: domain.SenderBot,
			Text:   FallbackBotMessage,
		})
		s.persist(ctx, transcript)
		return SendOutput{}, newError(ErrorUpstream, "inference_error",
			"Failed to communicate with the inference endpoint", err)
	}

	transcript.Messages = append(transcript.Messages, domain.ChatMessage{
		Sender: domain.SenderBot,
		Text:   reply,
	})
	s.persist(ctx, transcript)

	return SendOutput{Response: reply}, nil
}

// persist saves the transcript best-effort. It runs after the relay outcome
// is decided and is awaited so the write lands before the process freezes.
func (s *RelayService) persist(ctx context.Context, t domain.Transcript) {
	if err := s.store.SaveTranscript(ctx, t); err != nil {
		slog.Error("failed to save chat transcript", "sessionKey", t.SessionKey, "err", err)
	}
}
