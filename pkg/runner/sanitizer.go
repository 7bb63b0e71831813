package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "CANOPY_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrInvalidEvent  = errors.New("invalid event name")
)

// ParseEvents splits a line into event names.
//
// Names are separated by whitespace or commas and "#" starts a comment.
// Control characters inside a name are dropped. Names may hold letters,
// digits and "_-.:/"; anything else, such as a call written as "emit(x)" or
// a leftover escape sequence, rejects the whole line so that no part of it
// is enqueued.
func ParseEvents(line string) ([]string, error) {
	if limit := maxInputSize(); len(line) > limit {
		return nil, fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(line), limit)
	}
	if !utf8.ValidString(line) {
		return nil, ErrInvalidUTF8
	}
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	var events []string
	for _, field := range strings.FieldsFunc(line, isSeparator) {
		name := strings.Map(dropControl, field)
		if name == "" {
			continue
		}
		if i := strings.IndexFunc(name, notEventRune); i >= 0 {
			r, _ := utf8.DecodeRuneInString(name[i:])
			return nil, fmt.Errorf("%w %q: unexpected %q", ErrInvalidEvent, name, r)
		}
		events = append(events, name)
	}
	return events, nil
}

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

func dropControl(r rune) rune {
	if unicode.IsControl(r) {
		return -1
	}
	return r
}

func notEventRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	return !strings.ContainsRune("_-.:/", r)
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
