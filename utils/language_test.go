package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"":        DefaultLanguage,
		"en":      "English",
		"fr":      "French",
		"fr-FR":   "French",
		"zh":      "Chinese",
		"french":  "French",
		"FRENCH":  "French",
		"English": "English",
		" es ":    "Spanish",
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizeLanguage(input), "input %q", input)
	}
}
