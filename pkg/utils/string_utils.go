package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CollapseSpaces trims s and reduces inner whitespace runs to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase normalizes display names: "  coca   COLA " becomes "Coca Cola".
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.ToLower(CollapseSpaces(s)))
}
