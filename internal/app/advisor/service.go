// Package advisor answers assistant requests with an LLM. It is the
// backend the conversation gateway talks to.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/adapters/assistant"
	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
	"github.com/PabloGalante/farmdash/internal/observability"
)

var ErrEmptyMessage = errors.New("message is required")

type Service struct {
	llm domain.LLMClient
	now func() time.Time
}

func NewService(llm domain.LLMClient) *Service {
	return &Service{
		llm: llm,
		now: time.Now,
	}
}

type AnswerInput struct {
	Message    string
	History    []domain.Turn
	Attachment *domain.Attachment
	Locale     string
}

type AnswerOutput struct {
	Text      string
	Timestamp time.Time
}

// Answer generates a reply. History beyond the context window is dropped
// so a misbehaving client cannot inflate model cost.
func (s *Service) Answer(ctx context.Context, in AnswerInput) (*AnswerOutput, error) {
	if strings.TrimSpace(in.Message) == "" && in.Attachment == nil {
		return nil, ErrEmptyMessage
	}

	history := in.History
	if len(history) > assistant.ContextWindow {
		history = history[len(history)-assistant.ContextWindow:]
	}

	locale := i18n.Normalize(in.Locale)
	log := observability.LoggerFromContext(ctx).With(
		zap.String("locale", locale),
		zap.Int("history", len(history)),
		zap.Bool("attachment", in.Attachment != nil),
	)

	start := s.now()
	text, err := s.llm.GenerateReply(ctx, in.Message, domain.ConversationContext{
		Locale:     locale,
		History:    history,
		Attachment: in.Attachment,
	})
	if err != nil {
		log.Error("llm failed", zap.Error(err))
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	done := s.now()
	log.Info("answered", zap.Duration("elapsed", done.Sub(start)))

	return &AnswerOutput{Text: text, Timestamp: done}, nil
}
