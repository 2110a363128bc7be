package enum

import (
	"fmt"
	"reflect"
)

var registry = map[reflect.Type]any{}

type values[T comparable] map[string]T

// New registers a string-based enum value so it can be resolved later with
// ToEnum. It returns the value unchanged, allowing declarations like:
//
//	var DrawActive = enum.New(DrawStatus("active"))
func New[T comparable](value T) T {
	v := reflect.ValueOf(value)
	if _, ok := registry[v.Type()]; !ok {
		registry[v.Type()] = values[T]{}
	}

	registry[v.Type()].(values[T])[v.String()] = value
	return value
}

// ToEnum resolves a raw string into a registered enum value of type T.
func ToEnum[T comparable](s string) (T, error) {
	var zero T
	v, ok := registry[reflect.TypeOf(zero)]
	if !ok {
		return zero, fmt.Errorf("not found enum type %T", zero)
	}

	value, ok := v.(values[T])[s]
	if !ok {
		return zero, fmt.Errorf("not found value %s in enum %T", s, zero)
	}

	return value, nil
}
