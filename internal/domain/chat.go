package domain

// Message senders as they appear on the wire and in the stored transcript.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatMessage is a single conversation turn as exchanged with the frontend
// chat widget and persisted in the chat log.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Transcript is the complete ordered message history for one chat session.
// The session key is the uniqueness constraint: at most one stored row per key.
type Transcript struct {
	SessionKey string
	Messages   []ChatMessage
}
