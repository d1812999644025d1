// Package clantag normalizes and validates clan and player tags.
//
// Every lookup key in the system (roster, timeline, war and capital metrics)
// is a normalized tag: upper case with a single leading '#'.
package clantag

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidTag is returned by Parse for empty or malformed tags.
var ErrInvalidTag = errors.New("invalid tag")

// Tags only use this alphabet; 'O' is a common typo for '0'.
var validTag = regexp.MustCompile(`^#[0289PYLQGRJCUV]{3,15}$`)

// Normalize upper-cases raw, strips any leading '#', maps 'O' to '0' and
// prefixes a single '#'. Blank input yields "".
func Normalize(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	t = strings.TrimLeft(t, "#")
	if t == "" {
		return ""
	}
	return "#" + strings.ReplaceAll(t, "O", "0")
}

// Valid reports whether tag is an already normalized, well-formed tag.
func Valid(tag string) bool {
	return validTag.MatchString(tag)
}

// Parse normalizes raw and validates the result.
func Parse(raw string) (string, error) {
	tag := Normalize(raw)
	if !Valid(tag) {
		return "", ErrInvalidTag
	}
	return tag, nil
}
