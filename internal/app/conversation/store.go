package conversation

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
	"github.com/PabloGalante/farmdash/internal/observability"
)

// Event is delivered to observers after every state transition.
type Event struct {
	State State
	// Appended is the message added by this transition, nil for staging.
	Appended *domain.Message
}

type Observer func(Event)

// Result is the outcome of one exchange, addressed to the user turn it
// answers.
type Result struct {
	Turn  domain.MessageID
	Reply *domain.AssistantReply
	Err   error
}

// Succeeded reports whether the exchange produced a reply.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.Reply != nil
}

func Success(turn domain.MessageID, reply domain.AssistantReply) Result {
	return Result{Turn: turn, Reply: &reply}
}

func Failure(turn domain.MessageID, err error) Result {
	if err == nil {
		err = domain.NewGatewayError(domain.KindMalformedResponse, nil)
	}
	return Result{Turn: turn, Err: err}
}

// Store owns the conversation history and the pending flag. All mutations
// go through AppendUserTurn and AppendAssistantResult (plus staging).
type Store struct {
	mu        sync.Mutex
	state     State
	closed    bool
	observers map[int]Observer
	nextObs   int

	now     func() time.Time
	newID   func() domain.MessageID
	apology string
}

type Option func(*storeOptions)

type storeOptions struct {
	now      func() time.Time
	newID    func() domain.MessageID
	greeting string
	apology  string
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// WithIDGenerator overrides the message id source. Ids must sort in
// creation order.
func WithIDGenerator(gen func() domain.MessageID) Option {
	return func(o *storeOptions) { o.newID = gen }
}

// WithCatalog takes the greeting and apology from a locale catalog.
func WithCatalog(c i18n.Catalog) Option {
	return func(o *storeOptions) {
		o.greeting = c.Greeting
		o.apology = c.Apology
	}
}

// NewStore creates a store seeded with the assistant greeting.
func NewStore(opts ...Option) *Store {
	cat := i18n.For(i18n.DefaultLocale)
	o := storeOptions{
		now:      time.Now,
		newID:    newMessageID,
		greeting: cat.Greeting,
		apology:  cat.Apology,
	}
	for _, opt := range opts {
		opt(&o)
	}

	greeting := domain.Message{
		ID:        o.newID(),
		Content:   o.greeting,
		Sender:    domain.SenderAssistant,
		CreatedAt: o.now(),
	}

	return &Store{
		state:     newState(greeting),
		observers: make(map[int]Observer),
		now:       o.now,
		newID:     o.newID,
		apology:   o.apology,
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for future transitions and returns a func that
// removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// AppendUserTurn appends a user message and marks it pending. When
// attachment is nil the staged attachment, if any, goes with the message.
// Either way the staged attachment is cleared.
func (s *Store) AppendUserTurn(content string, attachment *domain.Attachment) (domain.MessageID, error) {
	msg, _, err := s.appendUserTurn(content, attachment)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// appendUserTurn also returns the history that preceded the new message.
// Taking the staged attachment and appending happen under one lock.
func (s *Store) appendUserTurn(content string, attachment *domain.Attachment) (domain.Message, []domain.Message, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return domain.Message{}, nil, domain.ErrStoreClosed
	}

	if attachment == nil {
		attachment = s.state.staged
	}

	msg := domain.Message{
		ID:        s.newID(),
		Content:   strings.TrimSpace(content),
		Sender:    domain.SenderUser,
		CreatedAt: s.now(),
	}
	if attachment != nil {
		msg.Attachments = []domain.Attachment{*attachment}
	}

	prior := s.state
	next, err := prior.withUserTurn(msg)
	if err != nil {
		s.mu.Unlock()
		return domain.Message{}, nil, err
	}
	s.state = next
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(observers, Event{State: next, Appended: &msg})
	return msg, prior.history, nil
}

// AppendAssistantResult appends exactly one assistant message for the
// pending turn and clears pending. A failed result becomes the fixed
// apology. It returns false when the result was dropped: the store was
// closed, or the result does not answer the pending turn.
func (s *Store) AppendAssistantResult(r Result) bool {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return false
	}

	var msg domain.Message
	if r.Succeeded() {
		msg = domain.Message{
			ID:        s.newID(),
			Content:   r.Reply.Text,
			Sender:    domain.SenderAssistant,
			CreatedAt: r.Reply.CreatedAt(),
		}
	} else {
		msg = domain.Message{
			ID:        s.newID(),
			Content:   s.apology,
			Sender:    domain.SenderAssistant,
			CreatedAt: s.now(),
		}
	}

	next, ok := s.state.withAssistantResult(r.Turn, msg)
	if !ok {
		s.mu.Unlock()
		observability.Logger().Warn("dropping assistant result for a turn that is not pending",
			zap.String("turn", string(r.Turn)))
		return false
	}
	s.state = next
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(observers, Event{State: next, Appended: &msg})
	return true
}

func (s *Store) stage(a *domain.Attachment) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	next := s.state.withStaged(a)
	s.state = next
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(observers, Event{State: next})
}

// consumeStaged returns and clears the staged attachment in one step.
func (s *Store) consumeStaged() *domain.Attachment {
	s.mu.Lock()
	a := s.state.staged
	if a == nil {
		s.mu.Unlock()
		return nil
	}
	next := s.state.withStaged(nil)
	s.state = next
	observers := s.snapshotObservers()
	s.mu.Unlock()

	notify(observers, Event{State: next})
	return a
}

// Close tears the conversation down. Results arriving afterwards are
// ignored, so in-flight exchanges cannot touch a discarded store.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.observers = make(map[int]Observer)
	s.mu.Unlock()
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) snapshotObservers() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	keys := make([]int, 0, len(s.observers))
	for k := range s.observers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]Observer, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.observers[k])
	}
	return out
}

func notify(observers []Observer, ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}

// newMessageID returns a UUIDv7, which sorts by creation time and is
// monotonic within the process.
func newMessageID() domain.MessageID {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.MessageID(uuid.NewString())
	}
	return domain.MessageID(id.String())
}
