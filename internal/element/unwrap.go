// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/ugen"
)

// unwrap broadcasts args over mk. When every argument is a single value mk
// runs once. Otherwise the widest group sets the channel count and each
// channel i recurses with group arguments reduced to their channel
// i mod len and value arguments reused as is. Results are collected in
// channel order, and mk runs for every channel even when it yields nothing.
func unwrap(args []ugen.InLike, mk func(ins []ugen.In) ugen.InLike) ugen.InLike {
	vals := make([]ugen.In, len(args))
	unbubbled := make([]ugen.InLike, len(args))
	exp, multi := 0, false
	for i, a := range args {
		u := a.Unbubble()
		unbubbled[i] = u
		if g, ok := u.(ugen.Group); ok {
			multi = true
			exp = max(exp, g.Len())
			continue
		}
		vals[i] = u.(ugen.In)
	}
	if !multi {
		return mk(vals)
	}

	out := make([]ugen.InLike, exp)
	for i := range exp {
		reduced := make([]ugen.InLike, len(unbubbled))
		for j, u := range unbubbled {
			reduced[j] = u.Channel(i)
		}
		out[i] = unwrap(reduced, mk)
	}
	return ugen.NewGroup(out...)
}

func expandArgs(b *builder.Builder, args []GE) []ugen.InLike {
	out := make([]ugen.InLike, len(args))
	for i, a := range args {
		out[i] = a.Expand(b)
	}
	return out
}
