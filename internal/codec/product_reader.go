// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package codec

import (
	"fmt"

	"github.com/vk/synthgraph/internal/rate"
)

// ProductReader hands the fields of one product to its reader, in declared
// order. The first failure is sticky: later reads return zero values and
// Err reports it. The decoder checks Err after the reader returns, so
// readers may read all fields first and check once.
type ProductReader struct {
	d         *Decoder
	key       string
	arity     int
	remaining int
	err       error
}

// Key returns the fully qualified key of the product being read.
func (in *ProductReader) Key() string { return in.key }

// Arity returns the number of fields announced on the wire.
func (in *ProductReader) Arity() int { return in.arity }

// Remaining returns the number of fields not read yet.
func (in *ProductReader) Remaining() int { return in.remaining }

// Env returns the value attached to the decoder with WithEnv.
func (in *ProductReader) Env() any { return in.d.env }

// Err returns the first error met by this reader.
func (in *ProductReader) Err() error { return in.err }

// Fail records a reader-level error, such as a semantically invalid field.
func (in *ProductReader) Fail(format string, args ...any) {
	if in.err == nil {
		in.err = &DecodingError{Offset: in.d.off, Key: in.key, Err: ErrBadValue, Msg: fmt.Sprintf(format, args...)}
	}
}

// Value reads the next field, whatever its cookie.
func (in *ProductReader) Value() any {
	if !in.take() {
		return nil
	}
	v, err := in.d.value()
	if err != nil {
		in.err = err
		return nil
	}
	return v
}

// Product reads a field that must be a product or a back-reference.
func (in *ProductReader) Product() any {
	if !in.take() {
		return nil
	}
	v, err := in.d.DecodeProduct()
	if err != nil {
		in.err = err
		return nil
	}
	return v
}

// Int reads an int32 field.
func (in *ProductReader) Int() int {
	v, _ := expect[int32](in, "int")
	return int(v)
}

// Float32 reads a float32 field.
func (in *ProductReader) Float32() float32 {
	v, _ := expect[float32](in, "float")
	return v
}

// Float64 reads a float64 field.
func (in *ProductReader) Float64() float64 {
	v, _ := expect[float64](in, "double")
	return v
}

// String reads a string field.
func (in *ProductReader) String() string {
	v, _ := expect[string](in, "string")
	return v
}

// Optional reads an optional string field; nil means absent.
func (in *ProductReader) Optional() *string {
	v, _ := expect[*string](in, "optional string")
	return v
}

// Bool reads a boolean field.
func (in *ProductReader) Bool() bool {
	v, _ := expect[bool](in, "bool")
	return v
}

// Rate reads a rate field.
func (in *ProductReader) Rate() rate.Rate {
	v, ok := expect[rate.Rate](in, "rate")
	if !ok {
		return rate.Unknown
	}
	return v
}

// Vector reads a vector field of arbitrary elements.
func (in *ProductReader) Vector() []any {
	v, _ := expect[[]any](in, "vector")
	return v
}

// Float32s reads a vector field whose elements are all float32.
func (in *ProductReader) Float32s() []float32 { return vectorOf[float32](in, "float") }

// Ints reads a vector field whose elements are all int32.
func (in *ProductReader) Ints() []int {
	vs := vectorOf[int32](in, "int")
	if vs == nil {
		return nil
	}
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = int(v)
	}
	return out
}

// Strings reads a vector field whose elements are all strings.
func (in *ProductReader) Strings() []string { return vectorOf[string](in, "string") }

// Rates reads a vector field whose elements are all rates.
func (in *ProductReader) Rates() []rate.Rate { return vectorOf[rate.Rate](in, "rate") }

func (in *ProductReader) take() bool {
	if in.err != nil {
		return false
	}
	if in.remaining == 0 {
		in.err = &DecodingError{Offset: in.d.off, Key: in.key, Err: ErrArity, Msg: "read past the last field"}
		return false
	}
	in.remaining--
	return true
}

func expect[T any](in *ProductReader, what string) (T, bool) {
	var zero T
	v := in.Value()
	if in.err != nil {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		in.err = &DecodingError{Offset: in.d.off, Key: in.key, Err: ErrBadCookie,
			Msg: fmt.Sprintf("expected %s field, got %T", what, v)}
		return zero, false
	}
	return t, true
}

func vectorOf[T any](in *ProductReader, what string) []T {
	vs, ok := expect[[]any](in, "vector")
	if !ok {
		return nil
	}
	out := make([]T, len(vs))
	for i, v := range vs {
		t, ok := v.(T)
		if !ok {
			in.err = &DecodingError{Offset: in.d.off, Key: in.key, Err: ErrBadCookie,
				Msg: fmt.Sprintf("vector element %d: expected %s, got %T", i, what, v)}
			return nil
		}
		out[i] = t
	}
	return out
}
