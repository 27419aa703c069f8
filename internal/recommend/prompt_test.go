package recommend

import (
	"strings"
	"testing"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptBuilder_System(t *testing.T) {
	de := NewPromptBuilder("de", "")
	assert.Equal(t, "de", de.Locale())
	assert.True(t, strings.HasPrefix(de.System(), "Du bist ein Produktberater für einen Shopify-Shop."))
	assert.Contains(t, de.System(), "'✅ Auf Lager'")
	assert.Contains(t, de.System(), "'⚠️ Begrenzt' (qty 1–5)")
	assert.Contains(t, de.System(), "'❌ Nicht verfügbar'")
	assert.Contains(t, de.System(), "stelle genau 1 gezielte Rückfrage")

	en := NewPromptBuilder("en", "")
	assert.Contains(t, en.System(), "product advisor")
	assert.Contains(t, en.System(), "'⚠️ Limited'")

	fallback := NewPromptBuilder("fr", "")
	assert.Equal(t, "de", fallback.Locale())
	assert.Equal(t, de.System(), fallback.System())

	custom := NewPromptBuilder("en", "  Be terse.  ")
	assert.Equal(t, "Be terse.", custom.System())
}

func TestPromptBuilder_UserTurn(t *testing.T) {
	b := NewPromptBuilder("de", "")

	t.Run("empty payload and no context", func(t *testing.T) {
		turn, err := b.UserTurn("Habt ihr Tee?", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "Nutzerfrage: Habt ihr Tee?\nKontext: {}\nGefundene Produkte(JSON): []", turn)
	})

	t.Run("context and products serialized", func(t *testing.T) {
		price := "4.90 EUR"
		turn, err := b.UserTurn("Tee", map[string]any{"page": "home"}, []catalog.CompactProduct{
			{Title: "Salbeitee", Tags: []string{}, URL: "https://shop.example/products/salbeitee", Available: true, Price: &price},
		})
		require.NoError(t, err)
		assert.Contains(t, turn, `Kontext: {"page":"home"}`)
		assert.Contains(t, turn, `"title":"Salbeitee"`)
		assert.Contains(t, turn, `"qty":null`)
		assert.Contains(t, turn, `"price":"4.90 EUR"`)
	})

	t.Run("english labels", func(t *testing.T) {
		turn, err := NewPromptBuilder("en", "").UserTurn("tea?", nil, []catalog.CompactProduct{})
		require.NoError(t, err)
		assert.Equal(t, "Question: tea?\nContext: {}\nProducts found (JSON): []", turn)
	})

	t.Run("unserializable context", func(t *testing.T) {
		_, err := b.UserTurn("x", map[string]any{"f": func() {}}, nil)
		assert.Error(t, err)
	})
}

func TestPromptBuilder_EmptyReply(t *testing.T) {
	assert.Equal(t, "Entschuldigung, keine Antwort erhalten.", NewPromptBuilder("de", "").EmptyReply())
	assert.Equal(t, "Sorry, no answer received.", NewPromptBuilder("en", "").EmptyReply())
}
