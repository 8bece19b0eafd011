// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"fmt"
	"io"

	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/codec"
	"github.com/vk/synthgraph/internal/opcode"
)

// Namespace is the key namespace of element products.
const Namespace = "synthgraph.element"

const (
	keyConstant     = Namespace + ".Constant"
	keyGroup        = Namespace + ".Group"
	keyOp           = Namespace + ".Op"
	keyBinaryOp     = Namespace + ".BinaryOp"
	keyUnaryOp      = Namespace + ".UnaryOp"
	keyControlBank  = Namespace + ".ControlBank"
	keyChannelProxy = Namespace + ".ChannelProxy"
	keyFlatten      = Namespace + ".Flatten"
	keyMix          = Namespace + ".Mix"
	keyDone         = Namespace + ".Done"
	keyLocalBuf     = Namespace + ".LocalBuf"
)

func (c Constant) TypeKey() string { return keyConstant }
func (c Constant) Fields() []any   { return []any{float32(c)} }

func (g Group) TypeKey() string { return keyGroup }
func (g Group) Fields() []any   { return []any{g.Elems} }

func (o *Op) TypeKey() string { return keyOp }
func (o *Op) Fields() []any {
	return []any{o.Spec.Name, o.Requested, o.Special, o.Args}
}

func (e *BinaryOp) TypeKey() string { return keyBinaryOp }
func (e *BinaryOp) Fields() []any   { return []any{int(e.Op), e.A, e.B} }

func (e *UnaryOp) TypeKey() string { return keyUnaryOp }
func (e *UnaryOp) Fields() []any   { return []any{int(e.Op), e.A} }

func (c *ControlBank) TypeKey() string { return keyControlBank }
func (c *ControlBank) Fields() []any {
	return []any{c.Name, c.R, c.Values, c.Trigger}
}

func (e *ChannelProxy) TypeKey() string { return keyChannelProxy }
func (e *ChannelProxy) Fields() []any   { return []any{e.Src, e.Index} }

func (e *Flatten) TypeKey() string { return keyFlatten }
func (e *Flatten) Fields() []any   { return []any{e.Src} }

func (e *Mix) TypeKey() string { return keyMix }
func (e *Mix) Fields() []any   { return []any{e.Src} }

func (e *Done) TypeKey() string { return keyDone }
func (e *Done) Fields() []any   { return []any{e.Src} }

func (e *LocalBuf) TypeKey() string { return keyLocalBuf }
func (e *LocalBuf) Fields() []any   { return []any{e.NumChannels, e.NumFrames} }

// Readers returns the codec readers for element products. Decoded elements
// register with the *builder.Builder attached to the decoder with
// codec.WithEnv, in the order they are read. Readers construct elements as
// written and never fold them.
func Readers() []codec.Reader {
	return []codec.Reader{
		{Key: keyConstant, Arity: 1, Factory: func(in *codec.ProductReader) (any, error) {
			return Constant(in.Float32()), nil
		}},
		{Key: keyGroup, Arity: 1, Factory: func(in *codec.ProductReader) (any, error) {
			return Group{Elems: elementsOf(in)}, nil
		}},
		{Key: keyOp, Arity: 4, Factory: readOp},
		{Key: keyBinaryOp, Arity: 3, Factory: func(in *codec.ProductReader) (any, error) {
			op, a, b := BinaryOpID(in.Int()), elementOf(in), elementOf(in)
			return construct(in, func(bld *builder.Builder) GE { return NewBinaryOp(bld, op, a, b) })
		}},
		{Key: keyUnaryOp, Arity: 2, Factory: func(in *codec.ProductReader) (any, error) {
			op, a := UnaryOpID(in.Int()), elementOf(in)
			return construct(in, func(bld *builder.Builder) GE { return NewUnaryOp(bld, op, a) })
		}},
		{Key: keyControlBank, Arity: 4, Factory: func(in *codec.ProductReader) (any, error) {
			name, r, values, trig := in.String(), in.Rate(), in.Float32s(), in.Bool()
			return construct(in, func(bld *builder.Builder) GE {
				if trig {
					return NewTrigControl(bld, name, values...)
				}
				return NewControl(bld, name, r, values...)
			})
		}},
		{Key: keyChannelProxy, Arity: 2, Factory: func(in *codec.ProductReader) (any, error) {
			src, idx := elementOf(in), in.Int()
			return construct(in, func(bld *builder.Builder) GE { return NewChannelProxy(bld, src, idx) })
		}},
		{Key: keyFlatten, Arity: 1, Factory: func(in *codec.ProductReader) (any, error) {
			src := elementOf(in)
			return construct(in, func(bld *builder.Builder) GE { return NewFlatten(bld, src) })
		}},
		{Key: keyMix, Arity: 1, Factory: func(in *codec.ProductReader) (any, error) {
			src := elementOf(in)
			return construct(in, func(bld *builder.Builder) GE { return NewMix(bld, src) })
		}},
		{Key: keyDone, Arity: 1, Factory: func(in *codec.ProductReader) (any, error) {
			src := elementOf(in)
			return construct(in, func(bld *builder.Builder) GE { return NewDone(bld, src) })
		}},
		{Key: keyLocalBuf, Arity: 2, Factory: func(in *codec.ProductReader) (any, error) {
			ch, fr := elementOf(in), elementOf(in)
			return construct(in, func(bld *builder.Builder) GE { return NewLocalBuf(bld, ch, fr) })
		}},
	}
}

// NewRegistry returns a registry holding the element readers.
func NewRegistry() (*codec.Registry, error) {
	return codec.NewRegistry(Namespace, Readers()...)
}

func readOp(in *codec.ProductReader) (any, error) {
	name, r, special, args := in.String(), in.Rate(), in.Int(), elementsOf(in)
	if in.Err() != nil {
		return nil, in.Err()
	}
	spec, ok := opcode.Lookup(name)
	if !ok {
		in.Fail("unknown opcode %q", name)
		return nil, in.Err()
	}
	return construct(in, func(bld *builder.Builder) GE { return newOp(bld, spec, r, special, args) })
}

// construct runs fn with the decoder's builder, turning construction
// failures into errors.
func construct(in *codec.ProductReader, fn func(b *builder.Builder) GE) (any, error) {
	if in.Err() != nil {
		return nil, in.Err()
	}
	b, ok := in.Env().(*builder.Builder)
	if !ok || b == nil {
		return nil, fmt.Errorf("decoding %s: %w", in.Key(), builder.ErrNoBuilder)
	}
	var e GE
	if err := builder.Try(func() { e = fn(b) }); err != nil {
		return nil, err
	}
	return e, nil
}

func elementOf(in *codec.ProductReader) GE {
	v := in.Product()
	if in.Err() != nil {
		return nil
	}
	e, ok := v.(GE)
	if !ok {
		in.Fail("expected an element, got %T", v)
		return nil
	}
	return e
}

func elementsOf(in *codec.ProductReader) []GE {
	vs := in.Vector()
	if in.Err() != nil {
		return nil
	}
	out := make([]GE, len(vs))
	for i, v := range vs {
		e, ok := v.(GE)
		if !ok {
			in.Fail("element %d: expected an element, got %T", i, v)
			return nil
		}
		out[i] = e
	}
	return out
}

// Encode writes every element registered with b, in registration order.
// Elements shared between consumers are written once and back-referenced.
func Encode(w io.Writer, b *builder.Builder) error {
	elems := b.Elements()
	sources := make([]any, len(elems))
	for i, e := range elems {
		if _, ok := e.(codec.Product); !ok {
			return fmt.Errorf("encoding element %d: %T: %w", i, e, codec.ErrUnsupported)
		}
		sources[i] = e
	}
	return codec.NewEncoder(w, codec.WithNamespace(Namespace)).Encode(sources)
}

// Decode reads a stream written by Encode and registers the decoded
// elements with b. It returns the top-level elements in stream order. When
// decoding fails, b is aborted so no partially decoded graph survives.
func Decode(r io.Reader, reg *codec.Registry, b *builder.Builder) (elems []GE, err error) {
	defer func() {
		if err != nil {
			b.Abort()
		}
	}()

	v, err := codec.NewDecoder(r, reg, codec.WithNamespace(Namespace), codec.WithEnv(b)).Decode()
	if err != nil {
		return nil, err
	}
	vs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("decoding elements: expected a vector, got %T", v)
	}
	out := make([]GE, len(vs))
	for i, x := range vs {
		e, ok := x.(GE)
		if !ok {
			return nil, fmt.Errorf("decoding elements: entry %d is %T", i, x)
		}
		out[i] = e
	}
	return out, nil
}
