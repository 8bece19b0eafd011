// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ugen

import "github.com/vk/synthgraph/internal/rate"

// InLike is the result of expanding a graph element. It is either a single
// value (an In) or a Group of further InLike values.
type InLike interface {
	// Outputs returns every leaf value in channel order.
	Outputs() []In
	// Unbubble collapses single-channel groups to their only element.
	Unbubble() InLike
	// Channel returns channel i, wrapping around: a value returns itself
	// and a group returns element i mod its size.
	Channel(i int) InLike

	inLike()
}

// In is a single concrete input reference: a Constant or an Output.
type In interface {
	InLike
	Rate() rate.Rate
}

// Constant is a literal input value.
type Constant float32

func (c Constant) Outputs() []In { return []In{c} }
func (c Constant) Unbubble() InLike { return c }
func (c Constant) Channel(int) InLike { return c }
func (c Constant) Rate() rate.Rate { return rate.Scalar }
func (Constant) inLike() {}

// Output references output slot Index of a node.
type Output struct {
	UGen  *UGen
	Index int
}

func (o Output) Outputs() []In { return []In{o} }
func (o Output) Unbubble() InLike { return o }
func (o Output) Channel(int) InLike { return o }
func (o Output) Rate() rate.Rate { return o.UGen.Outputs[o.Index] }
func (Output) inLike() {}

// Group is an ordered list of channels. A group never holds exactly one
// nested group: NewGroup collapses that case.
type Group struct {
	elems []InLike
}

// NewGroup builds a group from elems. A single element that is itself a
// group is returned as is.
func NewGroup(elems ...InLike) Group {
	if len(elems) == 1 {
		if g, ok := elems[0].(Group); ok {
			return g
		}
	}
	cp := make([]InLike, len(elems))
	copy(cp, elems)
	return Group{elems: cp}
}

// Len returns the number of channels.
func (g Group) Len() int { return len(g.elems) }

// At returns channel i without wrapping.
func (g Group) At(i int) InLike { return g.elems[i] }

// Elems returns a copy of the channels.
func (g Group) Elems() []InLike {
	cp := make([]InLike, len(g.elems))
	copy(cp, g.elems)
	return cp
}

func (g Group) Outputs() []In {
	var out []In
	for _, e := range g.elems {
		out = append(out, e.Outputs()...)
	}
	return out
}

func (g Group) Unbubble() InLike {
	if len(g.elems) == 1 {
		return g.elems[0].Unbubble()
	}
	return g
}

func (g Group) Channel(i int) InLike {
	if len(g.elems) == 0 {
		return g
	}
	return g.elems[i%len(g.elems)]
}

func (Group) inLike() {}
