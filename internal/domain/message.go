package domain

import "time"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeVoice  MessageType = "voice"
	MessageTypeSystem MessageType = "system"
)

// Message is append-only; ordering is by CreatedAt with insertion order
// breaking ties.
type Message struct {
	ID        string      `json:"id" db:"id"`
	MatchID   string      `json:"match_id" db:"match_id"`
	SenderID  string      `json:"sender_id" db:"sender_id"`
	Content   string      `json:"content" db:"content"`
	Type      MessageType `json:"message_type" db:"message_type"`
	Read      bool        `json:"read" db:"read"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
