// Package ident validates and generates the string identifiers and
// display names the framework keys everything on.
//
// An identifier matches [A-Za-z_][A-Za-z0-9_]*. A name is any non-empty
// string without leading/trailing whitespace or control characters.
package ident

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
)

const (
	// DefaultIDPrefix is used by NewID when the caller passes an empty prefix.
	DefaultIDPrefix = "ID_"
	// DefaultNamePrefix is used by NewName when the caller passes an empty prefix.
	DefaultNamePrefix = "Name_"
)

var (
	countersMu sync.Mutex
	counters   = make(map[string]uint64)
)

// nextCount returns the next per-prefix counter value. Counters are
// keyed by the lower-cased prefix so "ID_" and "id_" share a sequence.
func nextCount(prefix string) uint64 {
	key := strings.ToLower(prefix)
	countersMu.Lock()
	defer countersMu.Unlock()
	counters[key]++
	return counters[key]
}

func isIDHead(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isIDTail(r rune) bool {
	return isIDHead(r) || (r >= '0' && r <= '9')
}

// IsValidID reports whether s is a well-formed identifier.
func IsValidID(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isIDHead(r) {
				return false
			}
			continue
		}
		if !isIDTail(r) {
			return false
		}
	}
	return true
}

// AsValidID coerces s into a valid identifier. Valid input comes back
// unchanged; blank input yields a fresh unique id; anything else is
// trimmed and has every invalid rune replaced with '_'.
func AsValidID(s string) string {
	if IsValidID(s) {
		return s
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Unique()
	}
	var b strings.Builder
	b.Grow(len(trimmed))
	for i, r := range trimmed {
		switch {
		case i == 0 && !isIDHead(r):
			b.WriteRune('_')
		case i > 0 && !isIDTail(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewID returns prefix followed by a per-prefix monotonically increasing
// counter. An empty prefix means DefaultIDPrefix.
func NewID(prefix string) string {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return prefix + strconv.FormatUint(nextCount(prefix), 10)
}

// Unique returns a fresh globally unique identifier derived from a UUID.
func Unique() string {
	return "ID_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

const (
	idHead = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_"
	idTail = idHead + "0123456789"
)

// RandomID returns a uniformly random identifier of the given length,
// or "" when length is zero or negative.
func RandomID(length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, length)
	b[0] = idHead[rand.Intn(len(idHead))]
	for i := 1; i < length; i++ {
		b[i] = idTail[rand.Intn(len(idTail))]
	}
	return string(b)
}

// IsValidName reports whether s is a well-formed display name: non-empty,
// no leading or trailing whitespace, and only letters, digits,
// punctuation, symbols, and spaces.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	if strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			!unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// AsValidName coerces s into a valid name, replacing every invalid rune
// with replacement. Blank input yields a fresh generated name. Note the
// replacement rune itself must be valid in a name or the result is
// coerced again with '_'.
func AsValidName(s string, replacement rune) string {
	if IsValidName(s) {
		return s
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return NewName("")
	}
	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if r == ' ' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
			unicode.IsPunct(r) || unicode.IsSymbol(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(replacement)
		}
	}
	out := b.String()
	if !IsValidName(out) {
		return AsValidName(out, '_')
	}
	return out
}

// NewName returns prefix followed by a per-prefix counter. An empty
// prefix means DefaultNamePrefix. Counters are shared with NewID when
// the prefixes collide case-insensitively.
func NewName(prefix string) string {
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return prefix + strconv.FormatUint(nextCount(prefix), 10)
}

const (
	nameHead = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	nameBody = nameHead + "0123456789 "
	nameTail = nameHead + "0123456789"
)

// RandomName returns a random display name of the given length. Interior
// characters may be spaces; the first and last never are.
func RandomName(length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, length)
	b[0] = nameHead[rand.Intn(len(nameHead))]
	for i := 1; i < length-1; i++ {
		b[i] = nameBody[rand.Intn(len(nameBody))]
	}
	if length > 1 {
		b[length-1] = nameTail[rand.Intn(len(nameTail))]
	}
	return string(b)
}
