// Package i18n holds the few localized strings the assistant core needs and
// negotiates a supported locale from user preferences.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

const DefaultLocale = "en"

var supported = []language.Tag{
	language.English, // first entry is the matcher fallback
	language.Japanese,
}

var matcher = language.NewMatcher(supported)

// Catalog is the set of strings shown by the conversation UI.
type Catalog struct {
	Locale           string
	Greeting         string
	Apology          string
	InputPlaceholder string
	AttachmentStaged string
	Send             string
	Title            string
}

var catalogs = map[string]Catalog{
	"en": {
		Locale:           "en",
		Greeting:         "Hello! I'm your farming assistant for Niigata. How can I help you with strategic farming planning?",
		Apology:          "I'm sorry, I couldn't process your message. Please try again later.",
		InputPlaceholder: "Ask a question about farming...",
		AttachmentStaged: "File attached",
		Send:             "Send",
		Title:            "Farming Strategy Assistant",
	},
	"ja": {
		Locale:           "ja",
		Greeting:         "こんにちは！新潟の農業アシスタントです。戦略的な営農計画について、どのようにお手伝いできますか？",
		Apology:          "申し訳ありません。メッセージを処理できませんでした。しばらくしてからもう一度お試しください。",
		InputPlaceholder: "農業に関する質問を入力してください...",
		AttachmentStaged: "ファイルを添付しました",
		Send:             "送信",
		Title:            "営農戦略アシスタント",
	},
}

// Locales lists the supported locale codes.
func Locales() []string {
	out := make([]string, 0, len(supported))
	for _, t := range supported {
		out = append(out, t.String())
	}
	return out
}

// Normalize maps any locale string (e.g. "ja-JP") to a supported code.
func Normalize(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLocale
	}
	return match(tag)
}

// Negotiate picks a supported locale from an Accept-Language header.
func Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	return match(tags...)
}

func match(tags ...language.Tag) string {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return supported[idx].String()
}

// For returns the catalog for locale, falling back to English.
func For(locale string) Catalog {
	if c, ok := catalogs[Normalize(locale)]; ok {
		return c
	}
	return catalogs[DefaultLocale]
}
