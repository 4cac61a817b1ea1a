package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that distinguishes "absent" from "null".
// Set is false when the key is missing from the payload; a present null
// leaves Set true with a nil Value.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// IsNull reports whether the field was sent as an explicit null.
func (o Optional[T]) IsNull() bool {
	return o.Set && o.Value == nil
}

// Has reports whether the field was sent with a non-null value.
func (o Optional[T]) Has() bool {
	return o.Set && o.Value != nil
}
