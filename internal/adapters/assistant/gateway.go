// Package assistant is the HTTP gateway to the remote assistant endpoint.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/observability"
)

// ContextWindow caps how many prior messages accompany a turn.
const ContextWindow = 10

const (
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Gateway implements domain.AssistantGateway over HTTP. It is stateless
// per call: one POST, no retries, no caching.
type Gateway struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	locale   string
	now      func() time.Time
}

type Option func(*Gateway)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithTimeout bounds each exchange. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLocale tags outgoing requests with the conversation locale.
func WithLocale(locale string) Option {
	return func(g *Gateway) { g.locale = locale }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func NewGateway(endpoint string, opts ...Option) *Gateway {
	g := &Gateway{
		endpoint: endpoint,
		client:   &http.Client{},
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Window returns at most the last ContextWindow messages of history,
// oldest first, in the neutral {role, content} shape.
func Window(history []domain.Message) []domain.Turn {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}
	out := make([]domain.Turn, 0, len(history))
	for _, m := range history {
		out = append(out, domain.Turn{Role: m.Sender.Role(), Content: m.Content})
	}
	return out
}

// BuildRequest assembles the outbound payload for a turn. locale is used
// when the request carries none.
func BuildRequest(req domain.ExchangeRequest, locale string) ChatRequest {
	if req.Locale != "" {
		locale = req.Locale
	}
	out := ChatRequest{
		Message: req.UserText,
		History: Window(req.History),
		Locale:  locale,
	}
	if req.Attachment != nil {
		out.Attachment = &AttachmentMeta{
			Kind: string(req.Attachment.Kind),
			Name: req.Attachment.DisplayName,
		}
	}
	return out
}

// Exchange performs one assistant call. Every failure is a
// *domain.GatewayError; no partial reply text is ever returned.
func (g *Gateway) Exchange(ctx context.Context, req domain.ExchangeRequest) (domain.AssistantReply, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	log := observability.LoggerFromContext(ctx).With(zap.String("endpoint", g.endpoint))

	payload := BuildRequest(req, g.locale)
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.AssistantReply{}, domain.NewGatewayError(domain.KindNetwork, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.AssistantReply{}, domain.NewGatewayError(domain.KindNetwork, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if reqID := observability.RequestIDFrom(ctx); reqID != "" {
		httpReq.Header.Set("X-Request-ID", reqID)
	}

	log.Debug("calling assistant", zap.Int("history", len(payload.History)))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return domain.AssistantReply{}, domain.NewGatewayError(domain.KindNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return domain.AssistantReply{}, domain.NewGatewayError(domain.KindNetwork, fmt.Errorf("read body: %w", err))
	}
	receivedAt := g.now()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.AssistantReply{}, &domain.GatewayError{
			Kind:   domain.KindServer,
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}
	if len(raw) > maxBodyBytes {
		return domain.AssistantReply{}, domain.NewGatewayError(domain.KindMalformedResponse, errors.New("response body too large"))
	}

	reply, err := decodeReply(raw, receivedAt)
	if err != nil {
		return domain.AssistantReply{}, domain.NewGatewayError(domain.KindMalformedResponse, err)
	}

	if reply.ServerTime == nil {
		log.Debug("assistant reply without timestamp, using completion time")
	}
	return reply, nil
}

func decodeReply(raw []byte, receivedAt time.Time) (domain.AssistantReply, error) {
	var body ChatResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.AssistantReply{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Response == nil {
		return domain.AssistantReply{}, errors.New("response field missing")
	}
	if strings.TrimSpace(*body.Response) == "" {
		return domain.AssistantReply{}, errors.New("response field empty")
	}

	reply := domain.AssistantReply{
		Text:       *body.Response,
		ReceivedAt: receivedAt,
	}

	serverTime, err := ParseTimestamp(body.Timestamp)
	if err != nil {
		// the timestamp is optional; an unreadable one is treated as absent
		observability.Logger().Debug("ignoring assistant timestamp", zap.Error(err))
	} else {
		reply.ServerTime = serverTime
	}
	return reply, nil
}
