package llm

import (
	"strings"

	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
)

const baseSystemPrompt = `
You are a farming strategy assistant for growers in Niigata Prefecture, Japan.

Your role:
- Help farmers plan planting, transplanting, fertilizing and harvest around the local climate.
- Cover the crops that matter locally: rice (Koshihikari and others), soybeans, edamame, vegetables and fruit.
- Consider snowfall, the rainy season (tsuyu), typhoon season and heat stress when you plan.
- You do NOT replace agronomists, pesticide labels or local cooperative (JA) guidance.

General style guidelines:
- Be concise: 3–8 short paragraphs or bullet points max.
- Give concrete dates or windows when you can, and say how confident you are.
- Ask 1 good follow-up question when information is missing (field size, variety, soil).
- If the user mentions an attached file, acknowledge it by name. You cannot see its contents; ask for the key numbers.

Safety:
- Never recommend exceeding labeled application rates for pesticides or fertilizers.
- For suspected disease outbreaks, suggest contacting the local agricultural extension office.
`

const englishInstructions = `
Language: answer in English unless the user writes in another language.
`

const japaneseInstructions = `
Language: answer in Japanese (polite form) unless the user writes in another language.
`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildSystemPrompt returns the system instructions for a locale.
func BuildSystemPrompt(locale string) string {
	return baseSystemPrompt + "\n" + localeInstructions(locale)
}

// BuildPrompt flattens history, attachment and the new message into a single
// user block, for backends without native multi-turn support.
func BuildPrompt(userMessage string, ctx domain.ConversationContext) Prompt {
	var historyParts []string
	for _, t := range ctx.History {
		historyParts = append(historyParts, string(t.Role)+": "+t.Content)
	}

	historyText := strings.Join(historyParts, "\n")

	var userContent strings.Builder
	if historyText != "" {
		userContent.WriteString("Conversation so far:\n")
		userContent.WriteString(historyText)
		userContent.WriteString("\n\n")
	}
	if ctx.Attachment != nil {
		userContent.WriteString("Attached file: ")
		userContent.WriteString(ctx.Attachment.DisplayName)
		userContent.WriteString(" (" + string(ctx.Attachment.Kind) + ")\n\n")
	}
	userContent.WriteString("New user message:\n")
	userContent.WriteString(userMessage)

	return Prompt{
		System: BuildSystemPrompt(ctx.Locale),
		User:   userContent.String(),
	}
}

func localeInstructions(locale string) string {
	switch i18n.Normalize(locale) {
	case "ja":
		return japaneseInstructions
	default:
		return englishInstructions
	}
}
