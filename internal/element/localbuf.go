// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// LocalBuf allocates a buffer local to the synth. Every expanded channel
// takes one slot of the build's MaxLocalBufs allocator.
type LocalBuf struct {
	lazy
	NumChannels GE
	NumFrames   GE
}

// NewLocalBuf registers a local buffer.
func NewLocalBuf(b *builder.Builder, numChannels, numFrames GE) *LocalBuf {
	e := &LocalBuf{NumChannels: numChannels, NumFrames: numFrames}
	e.register(b, e)
	return e
}

func (e *LocalBuf) Rate() rate.Rate { return rate.Scalar }

func (e *LocalBuf) Lower(b *builder.Builder) ugen.InLike {
	alloc := localBufsOf(b)
	args := []ugen.InLike{e.NumChannels.Expand(b), e.NumFrames.Expand(b)}
	return unwrap(args, func(ins []ugen.In) ugen.InLike {
		alloc.take()
		u := ugen.New(opcode.LocalBuf.Name, rate.Scalar, opcode.LocalBuf.NumOutputs, ins, opcode.LocalBuf.Flags)
		b.AddUGen(u)
		return u.Output(0)
	})
}

type localBufsKey struct{}

// localBufs is the per-build MaxLocalBufs allocator. Its node is prepended
// when the first buffer is expanded and its count input is settled once,
// when the build finalizes.
type localBufs struct {
	node    *ugen.UGen
	count   int
	settled bool
}

func localBufsOf(b *builder.Builder) *localBufs {
	return builder.Shared(b, localBufsKey{}, func() *localBufs {
		spec := opcode.MaxLocalBufs
		a := &localBufs{node: ugen.New(spec.Name, rate.Scalar, spec.NumOutputs, []ugen.In{ugen.Constant(0)}, spec.Flags)}
		b.Prepend(a.node)
		b.OnFinalize(a.settle)
		return a
	})
}

func (a *localBufs) take() {
	if a.settled {
		builder.Fail(builder.ErrSingleUse, "%s settled at %d buffers", opcode.MaxLocalBufs.Name, a.count)
	}
	a.count++
}

func (a *localBufs) settle() {
	a.node.Inputs[0] = ugen.Constant(float32(a.count))
	a.settled = true
}
