package retrieval

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
)

// stopwordsByLocale holds the filler words dropped before querying the catalog.
var stopwordsByLocale = map[string][]string{
	"de": {
		"und", "oder", "mit", "für", "als", "ein", "eine",
		"der", "die", "das", "den", "des", "von", "im", "in", "am",
	},
	"en": {
		"the", "a", "an", "and", "or", "with", "for", "of", "to", "in", "on",
		"at", "by", "from", "is", "are", "be", "it", "its", "me", "my",
		"i", "you", "your", "we", "our", "this", "that", "what", "which",
		"who", "how", "can", "do", "does", "have", "has", "need", "want",
		"looking", "some", "any",
	},
}

// Stopwords returns a copy of the built-in stopword list for locale ("de" when unknown).
func Stopwords(locale string) []string {
	list, ok := stopwordsByLocale[locale]
	if !ok {
		list = stopwordsByLocale["de"]
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// KeywordExtractorConfig configures keyword extraction.
type KeywordExtractorConfig struct {
	MinLength int
	// MaxKeywords caps the result. 0 means unlimited.
	MaxKeywords int
	Locale      string
	// Stopwords replaces the locale list when non-empty.
	Stopwords      []string
	ExtraStopwords []string
}

// KeywordExtractor turns a free-text message into a KeywordSet.
type KeywordExtractor struct {
	minLength   int
	maxKeywords int
	stopwords   map[string]struct{}
}

// NewKeywordExtractor creates an extractor. MinLength defaults to 2.
func NewKeywordExtractor(cfg KeywordExtractorConfig) *KeywordExtractor {
	if cfg.MinLength <= 0 {
		cfg.MinLength = 2
	}
	if cfg.MaxKeywords < 0 {
		cfg.MaxKeywords = 0
	}

	base := cfg.Stopwords
	if len(base) == 0 {
		base = Stopwords(cfg.Locale)
	}

	stop := make(map[string]struct{}, len(base)+len(cfg.ExtraStopwords))
	for _, w := range base {
		stop[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range cfg.ExtraStopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	return &KeywordExtractor{
		minLength:   cfg.MinLength,
		maxKeywords: cfg.MaxKeywords,
		stopwords:   stop,
	}
}

// Extract returns the message's keywords. ok is false when nothing usable remains.
func (e *KeywordExtractor) Extract(message string) (catalog.KeywordSet, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(message))

	seen := make(map[string]struct{})
	keywords := make(catalog.KeywordSet, 0)

	for _, token := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(token) < e.minLength {
			continue
		}
		if _, stop := e.stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)

		if e.maxKeywords > 0 && len(keywords) == e.maxKeywords {
			break
		}
	}

	return keywords, len(keywords) > 0
}
