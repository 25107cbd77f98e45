// Package langdetect guesses the language of a piece of text.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Returned when no language could be determined.
const (
	AutoCode = "auto"
	AutoName = "Auto"
)

var detector = sync.OnceValue(func() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		WithLowAccuracyMode().
		Build()
})

// Detect returns the ISO 639-1 code (lower case) and English name of the
// language of text.
func Detect(text string) (code, name string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return AutoCode, AutoName
	}

	lang, ok := detector().DetectLanguageOf(text)
	if !ok {
		return AutoCode, AutoName
	}
	return strings.ToLower(lang.IsoCode639_1().String()), lang.String()
}
