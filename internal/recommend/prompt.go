package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/retrieval"
)

// promptText is the locale-specific wording of the conversation.
type promptText struct {
	role        string
	task        string
	format      string
	stockFmt    string
	emptyList   string
	userTurnFmt string
	emptyReply  string
}

var prompts = map[string]promptText{
	"de": {
		role:        "Du bist ein Produktberater für einen Shopify-Shop. Antworte kurz, klar und freundlich.",
		task:        "Du bekommst Produktdaten als JSON. Wähle 3–5 passende Empfehlungen aus (keine Erfindungen).",
		format:      "Gib je Empfehlung: Titel, 1 Satz Nutzen, Preis (falls vorhanden) und klickbaren Link.",
		stockFmt:    "Verfügbarkeit: '%s' (available true und qty>5 oder unbekannt), '%s' (qty 1–5), '%s' (qty 0 oder available false).",
		emptyList:   "Wenn die Liste leer ist, stelle genau 1 gezielte Rückfrage zur Präzisierung.",
		userTurnFmt: "Nutzerfrage: %s\nKontext: %s\nGefundene Produkte(JSON): %s",
		emptyReply:  "Entschuldigung, keine Antwort erhalten.",
	},
	"en": {
		role:        "You are a product advisor for a Shopify store. Answer briefly, clearly and kindly.",
		task:        "You receive product data as JSON. Pick 3–5 fitting recommendations (never invent products).",
		format:      "For each recommendation give: title, a one-sentence benefit, price (if present) and a clickable link.",
		stockFmt:    "Availability: '%s' (available true and qty>5 or unknown), '%s' (qty 1–5), '%s' (qty 0 or available false).",
		emptyList:   "If the list is empty, ask exactly one targeted follow-up question.",
		userTurnFmt: "Question: %s\nContext: %s\nProducts found (JSON): %s",
		emptyReply:  "Sorry, no answer received.",
	},
}

// PromptBuilder renders the system instruction and user turn for a locale.
type PromptBuilder struct {
	locale string
	text   promptText
	system string
}

// NewPromptBuilder creates a builder. Unknown locales use "de"; a non-empty override replaces the system instruction.
func NewPromptBuilder(locale, systemOverride string) *PromptBuilder {
	text, ok := prompts[locale]
	if !ok {
		locale = "de"
		text = prompts[locale]
	}

	system := strings.TrimSpace(systemOverride)
	if system == "" {
		system = strings.Join([]string{
			text.role,
			text.task,
			text.format,
			fmt.Sprintf(text.stockFmt,
				retrieval.AvailabilityLabel(locale, catalog.InStock),
				retrieval.AvailabilityLabel(locale, catalog.Limited),
				retrieval.AvailabilityLabel(locale, catalog.OutOfStock),
			),
			text.emptyList,
		}, " ")
	}

	return &PromptBuilder{locale: locale, text: text, system: system}
}

// Locale returns the effective locale.
func (b *PromptBuilder) Locale() string {
	return b.locale
}

// System returns the system instruction.
func (b *PromptBuilder) System() string {
	return b.system
}

// UserTurn renders the question, its context (as {} when absent) and the product payload (as [] when empty).
func (b *PromptBuilder) UserTurn(message string, userContext map[string]any, payload []catalog.CompactProduct) (string, error) {
	if userContext == nil {
		userContext = map[string]any{}
	}
	if payload == nil {
		payload = []catalog.CompactProduct{}
	}

	ctxJSON, err := json.Marshal(userContext)
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal products: %w", err)
	}

	return fmt.Sprintf(b.text.userTurnFmt, message, ctxJSON, payloadJSON), nil
}

// EmptyReply is returned to the shopper when the model answers with blank text.
func (b *PromptBuilder) EmptyReply() string {
	return b.text.emptyReply
}
