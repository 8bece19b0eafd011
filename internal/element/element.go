// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package element is the declarative graph-element model. Elements are
// created against a builder.Builder, register with it at construction, and
// expand into ugen nodes through multichannel broadcasting with rate
// coercion. Constants and groups are plain values; every other element is
// registered and expanded at most once per build.
package element

import (
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// GE is a graph element.
type GE interface {
	Rate() rate.Rate
	Expand(b *builder.Builder) ugen.InLike
}

// lazy is embedded by every registered element. Its Expand goes through the
// builder's memo table.
type lazy struct {
	b *builder.Builder
	h builder.Handle
}

func (l *lazy) register(b *builder.Builder, e builder.Element) {
	l.h = b.Register(e)
	l.b = b
}

// Handle returns the arena handle of the element.
func (l *lazy) Handle() builder.Handle { return l.h }

// Expand returns the memoized expansion of the element.
func (l *lazy) Expand(b *builder.Builder) ugen.InLike {
	if b != l.b {
		builder.Fail(builder.ErrArgument, "element %d belongs to another build", l.h)
	}
	return b.Expand(l.h)
}

// Constant is a literal scalar-rate value.
type Constant float32

func (c Constant) Rate() rate.Rate { return rate.Scalar }
func (c Constant) Expand(*builder.Builder) ugen.InLike { return ugen.Constant(c) }

func constantOf(e GE) (float32, bool) {
	c, ok := e.(Constant)
	return float32(c), ok
}

// Group is an ordered list of channels.
type Group struct {
	Elems []GE
}

// Seq groups elems into one multichannel element.
func Seq(elems ...GE) Group {
	return Group{Elems: append([]GE(nil), elems...)}
}

// Values groups constants.
func Values(vs ...float32) Group {
	elems := make([]GE, len(vs))
	for i, v := range vs {
		elems[i] = Constant(v)
	}
	return Group{Elems: elems}
}

func (g Group) Rate() rate.Rate {
	rs := make([]rate.Rate, len(g.Elems))
	for i, e := range g.Elems {
		rs[i] = e.Rate()
	}
	return rate.Reduce(rs...)
}

func (g Group) Expand(b *builder.Builder) ugen.InLike {
	ins := make([]ugen.InLike, len(g.Elems))
	for i, e := range g.Elems {
		ins[i] = e.Expand(b)
	}
	return ugen.NewGroup(ins...)
}
