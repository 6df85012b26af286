package generic

import "fmt"

// Result pairs a value with the error from the call that produced it.
type Result[T any] struct {
	Value T
	Error error
}

// NewResult wraps a (T, error) return value from another function call as a Result[T].
func NewResult[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Error: err}
}

// IsOk returns true if the Result[T] contains a value.
func (r Result[T]) IsOk() bool {
	return r.Error == nil
}

// Expect returns the contained value, or panics with msg and the contained error.
func (r Result[T]) Expect(msg string) T {
	if !r.IsOk() {
		panic(fmt.Errorf("%s: %w", msg, r.Error))
	}
	return r.Value
}

// Unwrap is a shortcut for NewResult(...).Expect(...).
func Unwrap[T any](value T, err error) T {
	return NewResult(value, err).Expect("tried to Unwrap() an error")
}

// Unwrap_ is like Unwrap, but for return values that are just an error.
func Unwrap_(err error) {
	NewResult(Void{}, err).Expect("tried to Unwrap_() an error")
}
