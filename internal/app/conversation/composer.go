package conversation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/observability"
)

// Phase is the per-turn state machine as seen by a renderer. Succeeded and
// Failed are instantaneous: the result is appended and the phase returns
// to Idle in the same step.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseComposing
	PhaseSending
)

func (p Phase) String() string {
	switch p {
	case PhaseComposing:
		return "composing"
	case PhaseSending:
		return "sending"
	default:
		return "idle"
	}
}

// Composer holds the input buffer and turns a submission into an Exchange.
// It is meant to be driven from a single event loop.
type Composer struct {
	store   *Store
	gateway domain.AssistantGateway
	locale  string
	input   string
}

// NewComposer submits through store, which also holds the staged attachment.
func NewComposer(store *Store, gateway domain.AssistantGateway) *Composer {
	return &Composer{
		store:   store,
		gateway: gateway,
	}
}

func (c *Composer) SetInput(text string) {
	c.input = text
}

func (c *Composer) Input() string {
	return c.input
}

// Phase derives the current phase from the store and the input buffer.
func (c *Composer) Phase() Phase {
	st := c.store.State()
	if st.Pending() {
		return PhaseSending
	}
	if _, staged := st.Staged(); staged || strings.TrimSpace(c.input) != "" {
		return PhaseComposing
	}
	return PhaseIdle
}

// Submit validates the buffer and appends the user turn. It returns
// ErrTurnPending or ErrEmptySubmission without touching any state when the
// submission is refused. On success the buffer is cleared right away and
// the returned Exchange performs the network call.
func (c *Composer) Submit() (*Exchange, error) {
	text := strings.TrimSpace(c.input)

	st := c.store.State()
	if st.Pending() {
		return nil, domain.ErrTurnPending
	}
	if _, staged := st.Staged(); text == "" && !staged {
		return nil, domain.ErrEmptySubmission
	}

	msg, prior, err := c.store.appendUserTurn(text, nil)
	if err != nil {
		return nil, err
	}

	c.input = ""

	return &Exchange{
		Turn: msg.ID,
		Request: domain.ExchangeRequest{
			UserText:   msg.Content,
			Attachment: firstAttachment(msg),
			History:    prior,
			Locale:     c.locale,
		},
		gateway: c.gateway,
		store:   c.store,
	}, nil
}

// Exchange is one submitted turn waiting for its network round trip.
type Exchange struct {
	Turn    domain.MessageID
	Request domain.ExchangeRequest

	gateway domain.AssistantGateway
	store   *Store
}

// Run performs the gateway call. It never panics on gateway errors and
// always yields a Result addressed to the turn.
func (e *Exchange) Run(ctx context.Context) Result {
	start := time.Now()
	log := observability.LoggerFromContext(ctx).With(zap.String("turn", string(e.Turn)))

	reply, err := e.gateway.Exchange(ctx, e.Request)
	if err != nil {
		log.Warn("assistant exchange failed",
			zap.String("kind", string(domain.KindOf(err))),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return Failure(e.Turn, err)
	}

	log.Info("assistant exchange succeeded",
		zap.Int("history", len(e.Request.History)),
		zap.Duration("elapsed", time.Since(start)))
	return Success(e.Turn, reply)
}

// Apply hands the result to the store. It is a no-op once the store has
// been closed.
func (e *Exchange) Apply(r Result) bool {
	return e.store.AppendAssistantResult(r)
}

// Do runs the exchange and applies its result. It returns
// domain.ErrStoreClosed when the conversation was torn down meanwhile and
// the result was dropped.
func (e *Exchange) Do(ctx context.Context) (Result, error) {
	r := e.Run(ctx)
	if !e.Apply(r) {
		return r, domain.ErrStoreClosed
	}
	return r, nil
}

func firstAttachment(msg domain.Message) *domain.Attachment {
	if !msg.HasAttachments() {
		return nil
	}
	a := msg.Attachments[0]
	return &a
}
