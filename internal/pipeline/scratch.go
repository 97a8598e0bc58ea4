// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"reflect"
)

// Well-known scratch keys shared by the stage library.
const (
	KeySentence      = "sentence"
	KeyOpinionHolder = "opinion_holder"
	KeyOpinionTarget = "opinion_target"
	KeyOpinionMood   = "opinion_mood"
	KeyGFBFEvent     = "gfbf_event"
	KeyEvent         = "event"
)

// MissingKeyError is returned when a stage reads a key no earlier stage set.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("scratch key %q not set", e.Key)
}

// TypeError is returned when a key holds a value of another type.
type TypeError struct {
	Key  string
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("scratch key %q holds %T, want %s", e.Key, e.Got, e.Want)
}

// Scratch is the per-item value store shared by the stages of one run. It is
// created empty for every item and dropped afterwards; stages agree on keys
// among themselves.
type Scratch struct {
	values map[string]any
}

// NewScratch returns an empty store.
func NewScratch() *Scratch {
	return &Scratch{values: make(map[string]any)}
}

// Set stores v under key, replacing any earlier value.
func (s *Scratch) Set(key string, v any) {
	s.values[key] = v
}

// Has reports whether key is set.
func (s *Scratch) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Value returns the value under key or a *MissingKeyError.
func (s *Scratch) Value(key string) (any, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, &MissingKeyError{Key: key}
	}
	return v, nil
}

// Len returns the number of keys set.
func (s *Scratch) Len() int {
	return len(s.values)
}

// Get returns the value under key as a T. A missing key yields a
// *MissingKeyError and a value of another type a *TypeError.
func Get[T any](s *Scratch, key string) (T, error) {
	var zero T
	v, err := s.Value(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeError{Key: key, Want: reflect.TypeFor[T]().String(), Got: v}
	}
	return typed, nil
}
