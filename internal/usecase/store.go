package usecase

import (
	"context"
	"errors"
	"strings"

	"portfolio-backend/internal/domain"
)

// Logical table names accepted by the store gateway.
const (
	TableBugTickets = "BugTickets"
	TableChatLog    = "ChatLog"
)

// StoreWriter defines the persistence operations consumed by the gateway.
type StoreWriter interface {
	PutTranscript(ctx context.Context, t domain.Transcript) error
	PutBugTicket(ctx context.Context, t domain.BugTicket) error
	PutRecord(ctx context.Context, data map[string]any) error
}

// StoreService validates incoming records per table and persists them.
// ChatLog saves replace the stored transcript for the session key: the relay
// always sends the complete history, so a replace is both the reconciliation
// policy and an idempotent retry.
type StoreService struct {
	store StoreWriter
}

type SaveInput struct {
	Table string
	Data  map[string]any
}

type SaveOutput struct {
	Message string
}

func NewStoreService(store StoreWriter) (*StoreService, error) {
	if store == nil {
		return nil, errors.New("usecase: store writer must not be nil")
	}
	return &StoreService{store: store}, nil
}

func (s *StoreService) Save(ctx context.Context, in SaveInput) (SaveOutput, error) {
	table := strings.TrimSpace(in.Table)
	if table == "" || in.Data == nil {
		return SaveOutput{}, newError(ErrorInvalidInput, "missing_table_or_data",
			"Missing table or data in request body", nil)
	}

	switch table {
	case TableBugTickets:
		return s.saveBugTicket(ctx, in.Data)
	case TableChatLog:
		return s.saveChatLog(ctx, in.Data)
	default:
		if err := s.store.PutRecord(ctx, in.Data); err != nil {
			return SaveOutput{}, newError(ErrorStore, "record_write_error", err.Error(), err)
		}
		return SaveOutput{Message: "Data saved successfully"}, nil
	}
}

func (s *StoreService) saveBugTicket(ctx context.Context, data map[string]any) (SaveOutput, error) {
	ticket := domain.BugTicket{
		Title: stringField(data, "title"),
		Desc:  stringField(data, "desc"),
		Prio:  stringField(data, "prio"),
	}
	if ticket.Title == "" || ticket.Desc == "" || ticket.Prio == "" {
		return SaveOutput{}, newError(ErrorInvalidInput, "missing_ticket_fields",
			"Missing required fields for BugTickets", nil)
	}
	if !domain.ValidPriorities[ticket.Prio] {
		return SaveOutput{}, newError(ErrorInvalidInput, "invalid_priority",
			"Invalid priority value", nil)
	}

	if err := s.store.PutBugTicket(ctx, ticket); err != nil {
		return SaveOutput{}, newError(ErrorStore, "bug_ticket_write_error", err.Error(), err)
	}
	return SaveOutput{Message: "Bug ticket saved successfully"}, nil
}

func (s *StoreService) saveChatLog(ctx context.Context, data map[string]any) (SaveOutput, error) {
	transcript, verr := transcriptFromData(data)
	if verr != nil {
		return SaveOutput{}, verr
	}

	if err := s.store.PutTranscript(ctx, transcript); err != nil {
		return SaveOutput{}, newError(ErrorStore, "chat_log_write_error", err.Error(), err)
	}
	return SaveOutput{Message: "Chat history saved successfully"}, nil
}

// SaveTranscript is the in-process entry used by the chat relay; it persists
// an already-validated transcript through the same replace-by-key path.
func (s *StoreService) SaveTranscript(ctx context.Context, t domain.Transcript) error {
	if strings.TrimSpace(t.SessionKey) == "" {
		return newError(ErrorInvalidInput, "missing_session_key",
			"Missing session key for ChatLog", nil)
	}
	if err := s.store.PutTranscript(ctx, t); err != nil {
		return newError(ErrorStore, "chat_log_write_error", err.Error(), err)
	}
	return nil
}

// transcriptFromData validates the raw ChatLog payload: a session key plus a
// messages array whose every element carries a sender and text.
func transcriptFromData(data map[string]any) (domain.Transcript, *Error) {
	key := stringField(data, "id")
	if key == "" {
		key = stringField(data, "timestamp")
	}
	if key == "" {
		return domain.Transcript{}, newError(ErrorInvalidInput, "missing_session_key",
			"Missing session key for ChatLog", nil)
	}

	raw, ok := data["messages"].([]any)
	if !ok {
		return domain.Transcript{}, newError(ErrorInvalidInput, "invalid_messages",
			"Missing or invalid messages field for ChatLog", nil)
	}

	msgs := make([]domain.ChatMessage, 0, len(raw))
	for _, elem := range raw {
		obj, ok := elem.(map[string]any)
		if !ok {
			return domain.Transcript{}, newError(ErrorInvalidInput, "invalid_message_element",
				"Invalid message format in messages array", nil)
		}
		sender := stringField(obj, "sender")
		text := stringField(obj, "text")
		if sender == "" || text == "" {
			return domain.Transcript{}, newError(ErrorInvalidInput, "invalid_message_element",
				"Invalid message format in messages array", nil)
		}
		msgs = append(msgs, domain.ChatMessage{Sender: sender, Text: text})
	}

	return domain.Transcript{SessionKey: key, Messages: msgs}, nil
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return strings.TrimSpace(v)
}
