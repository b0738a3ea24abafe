package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/observability"
)

// Service keeps the live conversations of a process. Nothing outlives the
// process; the archive is write-only.
type Service struct {
	gateway domain.AssistantGateway
	archive domain.TranscriptArchive
	opts    []Option

	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

// NewService creates a conversation service. archive may be nil.
func NewService(gateway domain.AssistantGateway, archive domain.TranscriptArchive, opts ...Option) *Service {
	return &Service{
		gateway:  gateway,
		archive:  archive,
		opts:     opts,
		sessions: make(map[domain.SessionID]*Session),
	}
}

type StartSessionInput struct {
	Locale string
}

type StartSessionOutput struct {
	Session *Session
}

func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	log := observability.LoggerFromContext(ctx).With(zap.String("locale", in.Locale))
	log.Info("starting new session")

	id := domain.SessionID(uuid.NewString())
	session := NewSession(id, in.Locale, s.gateway, s.opts...)
	session.ArchiveTo(s.archive)

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	log.Info("session started", zap.String("session_id", string(id)))

	return &StartSessionOutput{Session: session}, nil
}

func (s *Service) GetSession(id domain.SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	Text      string
}

type SendMessageOutput struct {
	UserMessage      domain.Message
	AssistantMessage domain.Message
	// Failed is true when the assistant message is the apology fallback.
	Failed bool
	State  State
}

// SendMessage runs one full turn synchronously.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	session, err := s.GetSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(zap.String("session_id", string(session.ID)))
	log.Info("sending message", zap.Int("text_len", len(in.Text)))

	result, err := session.Send(ctx, in.Text)
	if err != nil {
		log.Info("send did not complete", zap.Error(err))
		return nil, err
	}

	st := session.Store().State()
	out := &SendMessageOutput{Failed: !result.Succeeded(), State: st}

	history := st.History()
	for i, m := range history {
		if m.ID != result.Turn {
			continue
		}
		out.UserMessage = m
		if i+1 < len(history) {
			out.AssistantMessage = history[i+1]
		}
		break
	}

	log.Info("send message completed", zap.Bool("failed", out.Failed))
	return out, nil
}

// StageAttachment replaces the staged attachment of a session.
func (s *Service) StageAttachment(ctx context.Context, id domain.SessionID, a domain.Attachment) (State, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return State{}, err
	}
	session.Stager().Stage(a)

	observability.LoggerFromContext(ctx).Info("attachment staged",
		zap.String("session_id", string(id)),
		zap.String("name", a.DisplayName))
	return session.Store().State(), nil
}

func (s *Service) GetSessionTimeline(ctx context.Context, id domain.SessionID) (*Session, State, error) {
	session, err := s.GetSession(id)
	if err != nil {
		observability.LoggerFromContext(ctx).Info("session lookup failed",
			zap.String("session_id", string(id)), zap.Error(err))
		return nil, State{}, err
	}
	return session, session.Store().State(), nil
}

// EndSession closes and forgets a session.
func (s *Service) EndSession(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Close()

	observability.LoggerFromContext(ctx).Info("session ended",
		zap.String("session_id", string(id)),
		zap.Duration("age", time.Since(session.CreatedAt)))
	return nil
}

// Shutdown closes every session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[domain.SessionID]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
