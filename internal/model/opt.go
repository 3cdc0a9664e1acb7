package model

import (
	"bytes"
	"encoding/json"
)

// Opt is an optional value. The zero value is absent.
//
// Absent encodes as JSON null and is dropped by `omitzero` struct tags.
type Opt[T any] struct {
	value T
	ok    bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, ok: true}
}

// None returns an absent Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value is set.
func (o Opt[T]) Present() bool {
	return o.ok
}

// OrElse returns the value when present and def otherwise.
func (o Opt[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// IsZero lets encoding/json's omitzero skip absent values.
func (o Opt[T]) IsZero() bool {
	return !o.ok
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Opt[T]{value: v, ok: true}
	return nil
}
