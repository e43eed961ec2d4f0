package types

import "fmt"

// Language is an ISO 639-1 language code used for detection and response shaping.
// The knowledge base corpus is Dutch; English is supported on the user side.
type Language string

const (
	LanguageDutch   Language = "nl"
	LanguageEnglish Language = "en"
)

// AllLanguages returns all supported languages
func AllLanguages() []Language {
	return []Language{
		LanguageDutch,
		LanguageEnglish,
	}
}

// IsValid checks if the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguageDutch, LanguageEnglish:
		return true
	default:
		return false
	}
}

// Normalize returns the language, treating empty or unsupported values as Dutch.
// Dutch is the corpus language and the safe default when detection is inconclusive.
func (l Language) Normalize() Language {
	if !l.IsValid() {
		return LanguageDutch
	}
	return l
}

// String returns the string representation of the language
func (l Language) String() string {
	return string(l)
}

// ParseLanguage parses a string into a Language
func ParseLanguage(s string) (Language, error) {
	lang := Language(s)
	if !lang.IsValid() {
		return "", fmt.Errorf("unsupported language: %s", s)
	}
	return lang, nil
}
