package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
)

// Session wires a store, stager and composer for one mounted conversation.
type Session struct {
	ID        domain.SessionID
	Locale    string
	CreatedAt time.Time

	store    *Store
	stager   *Stager
	composer *Composer
	archiver *Archiver

	// guards the composer for callers that are not an event loop
	mu sync.Mutex
}

// NewSession builds a session whose greeting and apology follow locale.
func NewSession(id domain.SessionID, locale string, gateway domain.AssistantGateway, opts ...Option) *Session {
	locale = i18n.Normalize(locale)
	opts = append([]Option{WithCatalog(i18n.For(locale))}, opts...)

	store := NewStore(opts...)
	stager := NewStager(store)
	greeting, _ := store.State().Last()

	composer := NewComposer(store, gateway)
	composer.locale = locale

	return &Session{
		ID:        id,
		Locale:    locale,
		CreatedAt: greeting.CreatedAt,
		store:     store,
		stager:    stager,
		composer:  composer,
	}
}

// ArchiveTo mirrors every message, greeting included, to archive.
func (s *Session) ArchiveTo(archive domain.TranscriptArchive) {
	if archive == nil {
		return
	}
	s.archiver = NewArchiver(archive, s.ID)
	for _, m := range s.store.State().History() {
		s.archiver.Enqueue(m)
	}
	s.store.Subscribe(s.archiver.Observe)
}

func (s *Session) Store() *Store       { return s.store }
func (s *Session) Stager() *Stager     { return s.stager }
func (s *Session) Composer() *Composer { return s.composer }

// Submit sets the composer input and submits it.
func (s *Session) Submit(text string) (*Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.composer.SetInput(text)
	ex, err := s.composer.Submit()
	if err != nil {
		s.composer.SetInput("")
	}
	return ex, err
}

// Send submits text and waits for the exchange to resolve.
func (s *Session) Send(ctx context.Context, text string) (Result, error) {
	ex, err := s.Submit(text)
	if err != nil {
		return Result{}, err
	}
	return ex.Do(ctx)
}

// Close discards the conversation. In-flight results become no-ops.
func (s *Session) Close() {
	s.store.Close()
	if s.archiver != nil {
		s.archiver.Close()
	}
}
