// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// ChannelProxy selects one channel of a multichannel element, wrapping
// around the channel count.
type ChannelProxy struct {
	lazy
	Src   GE
	Index int
}

// NewChannelProxy registers channel index of src.
func NewChannelProxy(b *builder.Builder, src GE, index int) *ChannelProxy {
	if index < 0 {
		builder.Fail(builder.ErrArgument, "negative channel index %d", index)
	}
	e := &ChannelProxy{Src: src, Index: index}
	e.register(b, e)
	return e
}

func (e *ChannelProxy) Rate() rate.Rate { return e.Src.Rate() }

func (e *ChannelProxy) Lower(b *builder.Builder) ugen.InLike {
	in := e.Src.Expand(b).Unbubble()
	if g, ok := in.(ugen.Group); ok && g.Len() == 0 {
		builder.Fail(builder.ErrArgument, "channel %d of an empty group", e.Index)
	}
	return in.Channel(e.Index)
}

// Flatten turns a nested multichannel element into one flat group of its
// leaf channels.
type Flatten struct {
	lazy
	Src GE
}

// NewFlatten registers the flattened form of src.
func NewFlatten(b *builder.Builder, src GE) *Flatten {
	e := &Flatten{Src: src}
	e.register(b, e)
	return e
}

func (e *Flatten) Rate() rate.Rate { return e.Src.Rate() }

func (e *Flatten) Lower(b *builder.Builder) ugen.InLike {
	outs := e.Src.Expand(b).Outputs()
	elems := make([]ugen.InLike, len(outs))
	for i, o := range outs {
		elems[i] = o
	}
	return ugen.NewGroup(elems...).Unbubble()
}

// Mix sums every channel of an element into one channel.
type Mix struct {
	lazy
	Src GE
}

// NewMix registers the mono sum of src.
func NewMix(b *builder.Builder, src GE) *Mix {
	e := &Mix{Src: src}
	e.register(b, e)
	return e
}

func (e *Mix) Rate() rate.Rate { return e.Src.Rate() }

func (e *Mix) Lower(b *builder.Builder) ugen.InLike {
	outs := e.Src.Expand(b).Outputs()
	if len(outs) == 0 {
		return ugen.Constant(0)
	}
	sum := outs[0]
	for _, o := range outs[1:] {
		sum = makeBinary(b, Plus, sum, o)
	}
	return sum
}

// Done reports the completion of elements whose nodes carry the done flag.
type Done struct {
	lazy
	Src GE
}

// NewDone registers a completion monitor for src.
func NewDone(b *builder.Builder, src GE) *Done {
	e := &Done{Src: src}
	e.register(b, e)
	return e
}

func (e *Done) Rate() rate.Rate { return rate.Control }

func (e *Done) Lower(b *builder.Builder) ugen.InLike {
	return unwrap([]ugen.InLike{e.Src.Expand(b)}, func(ins []ugen.In) ugen.InLike {
		out, ok := ins[0].(ugen.Output)
		if !ok || !out.UGen.Flags.Has(ugen.DoneFlag) {
			builder.Fail(builder.ErrArgument, "Done needs an input with a done flag, got %v", ins[0])
		}
		u := ugen.New(opcode.Done.Name, rate.Control, opcode.Done.NumOutputs, ins, opcode.Done.Flags)
		b.AddUGen(u)
		return u.Output(0)
	})
}
