package domain

import "time"

type MessageRole string

const (
	MessageRoleUser MessageRole = "user"
	MessageRoleAI   MessageRole = "ai"
)

// Conversation is the chat thread a user keeps about one policy.
type Conversation struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id,omitempty"`
	PolicyID      string     `json:"policy_id"`
	Title         string     `json:"title"`
	MessageCount  int        `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OwnedBy reports whether userID may read the conversation. Threads created
// without a user are visible to everyone.
func (c *Conversation) OwnedBy(userID string) bool {
	return c.UserID == "" || c.UserID == userID
}

func ConversationTitle(policyName string) string {
	return "Chat about " + policyName
}

type ConversationMessage struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Model          string      `json:"model,omitempty"`
	TokensUsed     int         `json:"tokens_used,omitempty"`
	ResponseSecs   float64     `json:"response_time,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ConversationThread is a conversation with its messages in chronological order.
type ConversationThread struct {
	Conversation
	Messages []ConversationMessage `json:"messages"`
}
