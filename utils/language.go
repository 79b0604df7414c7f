package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is the label stored for users who never picked one.
const DefaultLanguage = "English"

// NormalizeLanguage maps whatever the client sent ("fr", "fr-FR", "french",
// "French") to the English display name of the base language. That name is
// also the key used in the per-message translations map.
func NormalizeLanguage(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultLanguage
	}

	if tag, err := language.Parse(s); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			if name := display.English.Languages().Name(language.Make(base.String())); name != "" {
				return name
			}
		}
	}

	// Not a BCP 47 tag; treat it as a spelled-out language name.
	return cases.Title(language.English).String(strings.ToLower(s))
}
