package conversation_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PabloGalante/farmdash/internal/app/conversation"
	"github.com/PabloGalante/farmdash/internal/domain"
)

var fixedNow = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

// fakeGateway records requests and answers with reply or err.
type fakeGateway struct {
	mu       sync.Mutex
	requests []domain.ExchangeRequest
	reply    string
	server   *time.Time
	err      error
	// block, when set, holds Exchange until closed or ctx is done.
	block chan struct{}
}

func (g *fakeGateway) Exchange(ctx context.Context, req domain.ExchangeRequest) (domain.AssistantReply, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	block := g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.AssistantReply{}, domain.NewGatewayError(domain.KindNetwork, ctx.Err())
		}
	}
	if g.err != nil {
		return domain.AssistantReply{}, g.err
	}
	return domain.AssistantReply{Text: g.reply, ServerTime: g.server, ReceivedAt: fixedNow}, nil
}

func (g *fakeGateway) Requests() []domain.ExchangeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.ExchangeRequest(nil), g.requests...)
}

func sequentialIDs() func() domain.MessageID {
	var n atomic.Int64
	return func() domain.MessageID {
		return domain.MessageID(fmt.Sprintf("m-%04d", n.Add(1)))
	}
}

func newTestSession(gw domain.AssistantGateway) *conversation.Session {
	return conversation.NewSession("s-1", "en", gw,
		conversation.WithClock(func() time.Time { return fixedNow }),
		conversation.WithIDGenerator(sequentialIDs()),
	)
}

var soilReport = domain.Attachment{
	Kind:        domain.AttachmentImage,
	Reference:   "/tmp/soil-analysis.jpg",
	DisplayName: "soil-analysis.jpg",
}
