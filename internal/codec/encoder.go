// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/vk/synthgraph/internal/rate"
)

// Encoder writes tagged values to an output stream. The back-reference table
// spans every value written through the same Encoder.
type Encoder struct {
	w    *bufio.Writer
	ns   string
	refs map[any]int32
	next int32
	buf  [8]byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	o := buildOptions(opts)
	return &Encoder{
		w:    bufio.NewWriter(w),
		ns:   o.namespace,
		refs: make(map[any]int32),
	}
}

// Encode writes v and flushes the underlying writer.
func (e *Encoder) Encode(v any) error {
	if err := e.value(v); err != nil {
		return err
	}
	return e.w.Flush()
}

func (e *Encoder) value(v any) error {
	switch x := v.(type) {
	case nil:
		return fmt.Errorf("codec: encode nil: %w", ErrUnsupported)
	case int:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return fmt.Errorf("codec: int %d: %w", x, ErrValueTooLarge)
		}
		return e.int32(int32(x))
	case int32:
		return e.int32(x)
	case float32:
		e.w.WriteByte(cookieFloat)
		return e.uint32(math.Float32bits(x))
	case float64:
		e.w.WriteByte(cookieDouble)
		binary.BigEndian.PutUint64(e.buf[:8], math.Float64bits(x))
		_, err := e.w.Write(e.buf[:8])
		return err
	case string:
		e.w.WriteByte(cookieString)
		return e.utf(x)
	case *string:
		e.w.WriteByte(cookieOption)
		if x == nil {
			return e.w.WriteByte(0)
		}
		e.w.WriteByte(1)
		return e.utf(*x)
	case bool:
		e.w.WriteByte(cookieBool)
		if x {
			return e.w.WriteByte(1)
		}
		return e.w.WriteByte(0)
	case rate.Rate:
		e.w.WriteByte(cookieRate)
		return e.w.WriteByte(x.ID())
	case Product:
		return e.product(x)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		n := rv.Len()
		if n > math.MaxInt32 {
			return fmt.Errorf("codec: vector of %d elements: %w", n, ErrValueTooLarge)
		}
		e.w.WriteByte(cookieVector)
		if err := e.uint32(uint32(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := e.value(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("codec: encode %T: %w", v, ErrUnsupported)
}

func (e *Encoder) product(p Product) error {
	shared := reflect.ValueOf(p).Kind() == reflect.Pointer
	if shared {
		if id, ok := e.refs[p]; ok {
			e.w.WriteByte(cookieRef)
			return e.uint32(uint32(id))
		}
	}

	fields := p.Fields()
	if len(fields) > math.MaxInt16 {
		return fmt.Errorf("codec: product %s has %d fields: %w", p.TypeKey(), len(fields), ErrValueTooLarge)
	}
	e.w.WriteByte(cookieProduct)
	if err := e.utf(e.shortKey(p.TypeKey())); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(e.buf[:2], uint16(len(fields)))
	e.w.Write(e.buf[:2])
	for _, f := range fields {
		if err := e.value(f); err != nil {
			return fmt.Errorf("%s: %w", p.TypeKey(), err)
		}
	}

	// Ids are handed out after the fields, matching the order in which the
	// decoder finishes products.
	id := e.next
	e.next++
	if shared {
		e.refs[p] = id
	}
	return nil
}

func (e *Encoder) shortKey(key string) string {
	if e.ns == "" {
		return key
	}
	rest, ok := strings.CutPrefix(key, e.ns+".")
	if !ok || rest == "" || strings.Contains(rest, ".") {
		return key
	}
	return rest
}

func (e *Encoder) int32(v int32) error {
	e.w.WriteByte(cookieInt)
	return e.uint32(uint32(v))
}

func (e *Encoder) uint32(v uint32) error {
	binary.BigEndian.PutUint32(e.buf[:4], v)
	_, err := e.w.Write(e.buf[:4])
	return err
}

func (e *Encoder) utf(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("codec: string of %d bytes: %w", len(s), ErrValueTooLarge)
	}
	binary.BigEndian.PutUint16(e.buf[:2], uint16(len(s)))
	e.w.Write(e.buf[:2])
	_, err := e.w.WriteString(s)
	return err
}
