package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ExchangeRequest is everything the gateway needs for one user turn.
type ExchangeRequest struct {
	UserText string
	// nil when the turn carries no attachment.
	Attachment *Attachment
	// History preceding the current turn, oldest first.
	History []Message
	// Locale of the conversation; empty leaves it to the gateway.
	Locale string
}

// AssistantReply is a successful answer from the assistant endpoint.
type AssistantReply struct {
	Text string
	// ServerTime is nil when the backend did not report a timestamp.
	ServerTime *time.Time
	ReceivedAt time.Time
}

// CreatedAt prefers the server-reported time and falls back to the time the
// call completed.
func (r AssistantReply) CreatedAt() time.Time {
	if r.ServerTime != nil {
		return *r.ServerTime
	}
	return r.ReceivedAt
}

// AssistantGateway performs the network exchange for a single turn.
// Implementations return *GatewayError on failure.
type AssistantGateway interface {
	Exchange(ctx context.Context, req ExchangeRequest) (AssistantReply, error)
}

// LLMClient defines how the assistant backend talks to a language model.
type LLMClient interface {
	GenerateReply(ctx context.Context, userMessage string, convCtx ConversationContext) (string, error)
}

// ConversationContext gives the LLM minimal context about the conversation.
type ConversationContext struct {
	Locale     string
	History    []Turn
	Attachment *Attachment
}

// TranscriptArchive is a write-mostly record of appended messages. It is
// never read back into a live conversation.
type TranscriptArchive interface {
	ArchiveMessage(ctx context.Context, sessionID SessionID, msg Message) error
	ListMessages(ctx context.Context, sessionID SessionID, limit int) ([]Message, error)
}

// WeatherSource fetches the upstream forecast document untouched.
type WeatherSource interface {
	FetchForecast(ctx context.Context) (json.RawMessage, error)
}
