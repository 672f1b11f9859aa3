// Package snippet cuts bounded context around a hit without splitting words.
//
// Lengths are counted in runes. A snippet grows outward from the hit one
// whitespace rune or one whole non-whitespace run at a time and stops once it
// holds at least the requested length and the last thing taken was
// whitespace, or when the text ends. Snippets may therefore be slightly
// longer than requested.
package snippet

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrOffsetOutOfRange is returned when a hit offset lies outside the text.
	ErrOffsetOutOfRange = errors.New("snippet: offset out of range")
	// ErrNegativeLength is returned for a negative maximum length.
	ErrNegativeLength = errors.New("snippet: negative max length")
)

// Preceding returns the context before the hit starting at byte offset hitStart.
func Preceding(text string, hitStart, maxLength int) (string, error) {
	if err := check(text, hitStart, maxLength); err != nil {
		return "", err
	}
	if maxLength == 0 {
		return "", nil
	}

	i, n := hitStart, 0
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if unicode.IsSpace(r) {
			i -= size
			n++
			if n >= maxLength {
				break
			}
			continue
		}
		for i > 0 {
			r, size = utf8.DecodeLastRuneInString(text[:i])
			if unicode.IsSpace(r) {
				break
			}
			i -= size
			n++
		}
	}
	return text[i:hitStart], nil
}

// Succeeding returns the context after the hit ending at byte offset hitEnd.
func Succeeding(text string, hitEnd, maxLength int) (string, error) {
	if err := check(text, hitEnd, maxLength); err != nil {
		return "", err
	}
	if maxLength == 0 {
		return "", nil
	}

	i, n := hitEnd, 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			n++
			if n >= maxLength {
				break
			}
			continue
		}
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
			n++
		}
	}
	return text[hitEnd:i], nil
}

// Context is a hit with the text around it.
type Context struct {
	Before string `json:"before"`
	Match  string `json:"match"`
	After  string `json:"after"`
}

// Around cuts the context on both sides of text[start:end].
func Around(text string, start, end, maxLength int) (Context, error) {
	if start > end {
		return Context{}, ErrOffsetOutOfRange
	}
	before, err := Preceding(text, start, maxLength)
	if err != nil {
		return Context{}, err
	}
	after, err := Succeeding(text, end, maxLength)
	if err != nil {
		return Context{}, err
	}
	return Context{Before: before, Match: text[start:end], After: after}, nil
}

func check(text string, offset, maxLength int) error {
	if offset < 0 || offset > len(text) {
		return ErrOffsetOutOfRange
	}
	if maxLength < 0 {
		return ErrNegativeLength
	}
	return nil
}
