package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "en"},
		{"en", "en"},
		{"en-US", "en"},
		{"ja", "ja"},
		{"ja-JP", "ja"},
		{"fr", "en"},
		{"not a locale!", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestNegotiate(t *testing.T) {
	assert.Equal(t, "ja", Negotiate("ja-JP,ja;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", Negotiate("de-DE,en;q=0.5"))
	assert.Equal(t, "en", Negotiate(""))
}

func TestForFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, catalogs["en"].Greeting, For("es").Greeting)
	assert.Equal(t, "送信", For("ja").Send)
	assert.ElementsMatch(t, []string{"en", "ja"}, Locales())
}
