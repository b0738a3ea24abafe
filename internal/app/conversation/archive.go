package conversation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/observability"
)

const archiveWriteTimeout = 5 * time.Second

// Archiver copies appended messages to a TranscriptArchive on a background
// worker, so slow archive writes never stall the event loop. Failures, and
// messages that find the queue full, are logged and otherwise ignored.
type Archiver struct {
	archive   domain.TranscriptArchive
	sessionID domain.SessionID

	queue chan domain.Message
	done  chan struct{}
	once  sync.Once
	mu    sync.RWMutex
	shut  bool
}

func NewArchiver(archive domain.TranscriptArchive, sessionID domain.SessionID) *Archiver {
	a := &Archiver{
		archive:   archive,
		sessionID: sessionID,
		queue:     make(chan domain.Message, 64),
		done:      make(chan struct{}),
	}
	go a.run()
	return a
}

// Observe is a store Observer.
func (a *Archiver) Observe(ev Event) {
	if ev.Appended == nil {
		return
	}
	a.Enqueue(*ev.Appended)
}

func (a *Archiver) Enqueue(msg domain.Message) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.shut {
		return
	}
	select {
	case a.queue <- msg:
	default:
		observability.WithFields(zap.String("session_id", string(a.sessionID))).
			Warn("archive queue full, dropping message", zap.String("message_id", string(msg.ID)))
	}
}

func (a *Archiver) run() {
	defer close(a.done)
	log := observability.WithFields(zap.String("session_id", string(a.sessionID)))

	for msg := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), archiveWriteTimeout)
		if err := a.archive.ArchiveMessage(ctx, a.sessionID, msg); err != nil {
			log.Warn("failed to archive message", zap.String("message_id", string(msg.ID)), zap.Error(err))
		}
		cancel()
	}
}

// Close flushes queued messages and stops the worker.
func (a *Archiver) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.shut = true
		close(a.queue)
		a.mu.Unlock()
	})
	<-a.done
}
