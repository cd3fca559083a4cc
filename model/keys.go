package model

import "strings"

// NormalizeName collapses runs of whitespace into single spaces and trims the
// ends. Display columns keep the extracted casing; only the shape is cleaned.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// NameKey returns the canonical lookup key for a name-like identity field.
// Identity comparison is case-insensitive, so the key is the normalized name
// lowercased. The key is stored alongside the display name and backs the
// unique indexes, which keeps the case rule enforced by the database itself.
func NameKey(raw string) string {
	return strings.ToLower(NormalizeName(raw))
}
