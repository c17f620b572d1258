package memory

import (
	"errors"
	"fmt"
	"time"

	"docubuddy/internal/docs"
)

var (
	// ErrConversationNotFound is returned when a conversation id does not
	// resolve to a stored conversation.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInvalidRole is returned when a message role is neither "user"
	// nor "assistant".
	ErrInvalidRole = errors.New("invalid message role")

	// ErrInvalidContent is returned when message content is empty or
	// exceeds the maximum length.
	ErrInvalidContent = errors.New("invalid message content")
)

// maxContentLength bounds a single message body, counted in characters.
const maxContentLength = 10000

// Role is the author of a message. It is a closed two-value enumeration,
// validated at every boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Message is a single conversation turn. Sources are typically attached
// to assistant messages only.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Sources   []docs.Source `json:"sources,omitempty"`
}

// Conversation is a durable record owning its ordered message list.
// Messages travel with their parent; they are not a separately queried
// collection.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Summary is a conversation listing entry.
type Summary struct {
	ID           string    `json:"conversation_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastMessage  string    `json:"last_message,omitempty"`
}
