package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize is the largest text, in bytes, accepted by Sanitize
// when no limit is given.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitize rejects text larger than maxSize bytes or not valid UTF-8, and
// strips control characters other than newline, tab and carriage return
// from the update text and command arguments. Oversized input is rejected,
// never truncated.
func Sanitize(maxSize int) Func {
	if maxSize <= 0 {
		maxSize = DefaultMaxInputSize
	}
	return func(ctx context.Context, mc *Context, next Next) error {
		u := mc.Update
		for _, field := range []*string{&u.Text, &u.CommandArgs} {
			clean, err := SanitizeInput(*field, maxSize)
			if err != nil {
				return err
			}
			*field = clean
		}
		next()
		return nil
	}
}

// SanitizeInput applies the Sanitize rules to a single string.
func SanitizeInput(input string, maxSize int) (string, error) {
	if len(input) > maxSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), maxSize)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
