package domain

import "time"

type SessionID string
type MessageID string

// Sender is fixed when a message is created and never changes.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Role is the neutral wire role used in assistant context windows.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Role maps a sender to its wire role.
func (s Sender) Role() Role {
	if s == SenderAssistant {
		return RoleAssistant
	}
	return RoleUser
}

type Timestamp = time.Time
