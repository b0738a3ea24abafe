package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
)

// MockLLM answers without calling a model. Used in local mode and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(ctx context.Context, userMessage string, convCtx domain.ConversationContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	if i18n.Normalize(convCtx.Locale) == "ja" {
		fmt.Fprintf(&b, "「%s」について承りました。", userMessage)
		if convCtx.Attachment != nil {
			fmt.Fprintf(&b, "添付ファイル「%s」も確認します。", convCtx.Attachment.DisplayName)
		}
		b.WriteString("圃場の広さと品種を教えていただけますか？")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "You asked about %q.", userMessage)
	if convCtx.Attachment != nil {
		fmt.Fprintf(&b, " I see you attached %s.", convCtx.Attachment.DisplayName)
	}
	fmt.Fprintf(&b, " (%d earlier messages in context.) How large is the field and which variety are you growing?", len(convCtx.History))
	return b.String(), nil
}
