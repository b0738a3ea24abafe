package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/farmdash/internal/domain"
)

// TranscriptStore is an in-memory domain.TranscriptArchive.
// It is NOT persistent and is only suitable for development / local mode.
type TranscriptStore struct {
	mu       sync.RWMutex
	messages map[domain.SessionID][]domain.Message
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		messages: make(map[domain.SessionID][]domain.Message),
	}
}

func (s *TranscriptStore) ArchiveMessage(_ context.Context, sessionID domain.SessionID, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return nil
}

// ListMessages returns the last `limit` messages of a session, oldest first.
// If limit <= 0, returns all.
func (s *TranscriptStore) ListMessages(_ context.Context, sessionID domain.SessionID, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
