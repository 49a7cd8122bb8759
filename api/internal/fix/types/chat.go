package types

// Sender of a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatMessage — one entry of the follow-up chat transcript. Transcripts are
// client state only; they are rebuilt fresh for every solution and never
// persisted.
type ChatMessage struct {
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	IsLoading bool   `json:"isLoading,omitempty"`
}
