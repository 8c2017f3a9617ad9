// Package credentials resolves the AI provider API key from an explicit,
// ordered chain of sources instead of ambient global lookups.
package credentials

import (
	"errors"
	"os"
	"strings"
)

// MinKeyLength is the shortest value accepted as a key; anything of this
// length or shorter is treated as a placeholder and skipped.
const MinKeyLength = 10

// ErrMissing is returned when no source yields a usable key.
var ErrMissing = errors.New("API key is missing")

// Source is one place a key may come from.
type Source interface {
	Name() string
	Lookup() (string, bool)
}

// Credential is a resolved key and the source that supplied it.
type Credential struct {
	Key    string
	Source string
}

// Masked returns the key in a form safe to print.
func (c Credential) Masked() string { return Mask(c.Key) }

type staticSource struct {
	name  string
	value string
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Lookup() (string, bool) { return s.value, s.value != "" }

// Explicit is an override supplied by the caller (flag or request body).
func Explicit(v string) Source { return staticSource{name: "explicit", value: v} }

// Stored is the value persisted in the config file.
func Stored(v string) Source { return staticSource{name: "config", value: v} }

// Embedded is a default compiled into the binary.
func Embedded(v string) Source { return staticSource{name: "embedded", value: v} }

type envSource struct {
	names  []string
	getenv func(string) string
}

func (e envSource) Name() string { return "env:" + strings.Join(e.names, ",") }

func (e envSource) Lookup() (string, bool) {
	for _, n := range e.names {
		if v := e.getenv(n); v != "" {
			return v, true
		}
	}
	return "", false
}

// Env reads the first non-empty variable among names.
func Env(names ...string) Source { return EnvFunc(os.Getenv, names...) }

// EnvFunc is Env with an injectable lookup, for tests.
func EnvFunc(getenv func(string) string, names ...string) Source {
	return envSource{names: names, getenv: getenv}
}

// Resolve walks sources in order and returns the first usable key.
// Values are sanitised before the length check.
func Resolve(sources ...Source) (Credential, error) {
	for _, s := range sources {
		if s == nil {
			continue
		}
		v, ok := s.Lookup()
		if !ok {
			continue
		}
		v = Sanitize(v)
		if len(v) > MinKeyLength {
			return Credential{Key: v, Source: s.Name()}, nil
		}
	}
	return Credential{}, ErrMissing
}

// Sanitize trims whitespace and one pair of matching surrounding quotes.
func Sanitize(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			v = strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}

// Mask shows only the first four characters of a key.
func Mask(key string) string {
	if len(key) <= 4 {
		return "invalid-key"
	}
	return key[:4] + "..."
}

// RejectedError reports that the provider refused a resolved key. Only the
// masked prefix is kept.
type RejectedError struct {
	Masked string
	Source string
	Err    error
}

func (e *RejectedError) Error() string {
	return "provider rejected the API key (key used starts with: '" + e.Masked + "', from " + e.Source + "); please verify the key is correct: " + e.Err.Error()
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Rejected wraps err with the masked identity of c.
func Rejected(c Credential, err error) error {
	return &RejectedError{Masked: c.Masked(), Source: c.Source, Err: err}
}
