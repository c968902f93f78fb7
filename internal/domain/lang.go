package domain

import (
	"fmt"
	"strings"
)

// Lang is a two-letter lowercase language code.
type Lang string

// DefaultLang is used when no language is requested and as the translation
// fallback.
const DefaultLang Lang = "en"

// ParseLang normalizes s. An empty string yields DefaultLang.
func ParseLang(s string) (Lang, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLang, nil
	}
	if len(s) != 2 || s[0] < 'a' || s[0] > 'z' || s[1] < 'a' || s[1] > 'z' {
		return "", fmt.Errorf("invalid language code %q", s)
	}
	return Lang(s), nil
}

func (l Lang) String() string { return string(l) }
