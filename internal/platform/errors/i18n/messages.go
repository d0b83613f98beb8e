// Package i18n renders user-facing messages for domain error codes.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported lists the locales with translated error copy; the first entry is
// the fallback.
var Supported = []language.Tag{language.English, language.BrazilianPortuguese}

var matcher = language.NewMatcher(Supported)

const fallbackKey = "error.generic"

// MatchLocale resolves an Accept-Language header or locale token to a
// supported tag.
func MatchLocale(raw string) language.Tag {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Supported[0]
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, index, _ := matcher.Match(tags...)
	return Supported[index]
}

// Message returns the localized user message for code, falling back to the
// generic message when no translation exists.
func Message(tag language.Tag, code string) string {
	printer := message.NewPrinter(tag)
	key := "error." + code
	value := printer.Sprintf(key)
	if value == "" || value == key {
		return printer.Sprintf(fallbackKey)
	}
	return value
}
