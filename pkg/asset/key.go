package asset

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidKey is returned when a string does not have the
// scheme://authority/path shape required of an asset key.
var ErrInvalidKey = errors.New("invalid asset key")

// Key is the canonical identity of one external data artifact.
// It is an opaque URI; equality is exact string match.
type Key string

// ParseKey validates raw as an asset key. Keys must carry a scheme,
// the "://" marker, and a non-empty remainder, and may not contain
// whitespace. The string is never rewritten: what goes in is the key.
func ParseKey(raw string) (Key, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidKey, raw)
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", fmt.Errorf("%w: %q is missing the scheme separator", ErrInvalidKey, raw)
	}
	if scheme == "" {
		return "", fmt.Errorf("%w: %q has an empty scheme", ErrInvalidKey, raw)
	}
	if rest == "" {
		return "", fmt.Errorf("%w: %q has no authority or path", ErrInvalidKey, raw)
	}
	if _, err := url.Parse(raw); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidKey, raw, err)
	}
	return Key(raw), nil
}

// MustKey is ParseKey for compile-time-known keys. It panics on invalid input.
func MustKey(raw string) Key {
	k, err := ParseKey(raw)
	if err != nil {
		panic(err)
	}
	return k
}

// Validate re-runs key validation. Useful for keys that arrive
// pre-typed from decoded wire data.
func (k Key) Validate() error {
	_, err := ParseKey(string(k))
	return err
}

func (k Key) String() string { return string(k) }

// Redacted returns the key with any URL userinfo stripped
// (postgres://user:pw@db/x -> postgres://db/x). Log lines, reports and
// UI output must use this form; the raw key stays internal.
func (k Key) Redacted() string {
	u, err := url.Parse(string(k))
	if err != nil || u.User == nil {
		return string(k)
	}
	u.User = nil
	return u.String()
}
