package dto

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was sent at all and whether it was null.
//
//	omitted       -> Set=false
//	"field": null -> Set=true, Value=nil
//	"field": v    -> Set=true, Value=&v
//
// It must be used as a non-pointer struct field so encoding/json calls
// UnmarshalJSON for a literal null too.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some builds a present, non-null Optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Null builds a present Optional that clears the field.
func Null[T any]() Optional[T] { return Optional[T]{Set: true} }

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

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
