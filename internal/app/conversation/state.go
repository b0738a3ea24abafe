package conversation

import (
	"slices"
	"strings"

	"github.com/PabloGalante/farmdash/internal/domain"
)

// State is an immutable snapshot of a conversation. Transitions return a new
// State and leave the receiver untouched, so observers may keep old values.
type State struct {
	history     []domain.Message
	pendingTurn *domain.MessageID
	staged      *domain.Attachment
}

// newState seeds a conversation with its greeting.
func newState(greeting domain.Message) State {
	return State{history: []domain.Message{greeting}}
}

// History returns the messages in display order. The slice is a copy.
func (s State) History() []domain.Message {
	return slices.Clone(s.history)
}

func (s State) Len() int {
	return len(s.history)
}

// Pending is true while a user turn waits for its assistant result.
func (s State) Pending() bool {
	return s.pendingTurn != nil
}

// PendingTurn returns the id of the user message awaiting a reply.
func (s State) PendingTurn() (domain.MessageID, bool) {
	if s.pendingTurn == nil {
		return "", false
	}
	return *s.pendingTurn, true
}

// Staged returns the attachment selected for the next turn.
func (s State) Staged() (domain.Attachment, bool) {
	if s.staged == nil {
		return domain.Attachment{}, false
	}
	return *s.staged, true
}

// Last returns the most recent message.
func (s State) Last() (domain.Message, bool) {
	if len(s.history) == 0 {
		return domain.Message{}, false
	}
	return s.history[len(s.history)-1], true
}

func (s State) withStaged(a *domain.Attachment) State {
	if a != nil {
		cp := *a
		a = &cp
	}
	s.staged = a
	return s
}

// withUserTurn appends a user message, clears the staged attachment and
// marks the turn pending.
func (s State) withUserTurn(msg domain.Message) (State, error) {
	if s.Pending() {
		return s, domain.ErrTurnPending
	}
	if strings.TrimSpace(msg.Content) == "" && !msg.HasAttachments() {
		return s, domain.ErrEmptySubmission
	}

	id := msg.ID
	s.history = append(slices.Clip(s.history), msg)
	s.pendingTurn = &id
	s.staged = nil
	return s, nil
}

// withAssistantResult appends the reply for turn and clears pending. It
// reports false, leaving the state unchanged, when turn is not the pending
// one.
func (s State) withAssistantResult(turn domain.MessageID, msg domain.Message) (State, bool) {
	if s.pendingTurn == nil || *s.pendingTurn != turn {
		return s, false
	}
	s.history = append(slices.Clip(s.history), msg)
	s.pendingTurn = nil
	return s, true
}
