package models

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatContext is the per-browser-session state: authentication stamp,
// identified user, cached preferences and the running transcript. It is
// created at login and discarded at logout or expiry.
type ChatContext struct {
	SessionID     string    `json:"session_id"`
	Authenticated bool      `json:"authenticated"`
	AuthTime      time.Time `json:"auth_time"`

	UserID      string       `json:"user_id,omitempty"`
	Email       string       `json:"email,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`

	Messages       []ChatMessage `json:"messages,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
	VisitID        string        `json:"visit_id,omitempty"`
}

// Identified reports whether an email has been attached to the session.
func (c *ChatContext) Identified() bool { return c != nil && c.UserID != "" }
