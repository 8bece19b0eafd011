// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

type conversion struct{ from, to rate.Rate }

// Converters for continuous signals.
var continuous = map[conversion]string{
	{rate.Scalar, rate.Control}: opcode.DCName,
	{rate.Scalar, rate.Audio}:   opcode.DCName,
	{rate.Control, rate.Audio}:  opcode.K2AName,
	{rate.Audio, rate.Control}:  opcode.A2KName,
	{rate.Audio, rate.Scalar}:   opcode.DCName,
	{rate.Control, rate.Scalar}: opcode.DCName,
}

// Converters for trigger signals. Triggers are edges, so they never go
// down to scalar rate.
var trigger = map[conversion]string{
	{rate.Scalar, rate.Control}: opcode.T2KName,
	{rate.Scalar, rate.Audio}:   opcode.T2AName,
	{rate.Control, rate.Audio}:  opcode.T2AName,
	{rate.Audio, rate.Control}:  opcode.T2KName,
}

// MatchRate converts ins[index] to target with a continuous-signal
// converter. It is a no-op when the rates already agree. Other positions of
// ins are left untouched.
func MatchRate(b *builder.Builder, ins []ugen.In, index int, target rate.Rate) []ugen.In {
	return convert(b, ins, index, target, continuous, "signal")
}

// MatchRateFrom applies MatchRate to every input from start on, left to
// right.
func MatchRateFrom(b *builder.Builder, ins []ugen.In, start int, target rate.Rate) []ugen.In {
	for i := start; i < len(ins); i++ {
		ins = MatchRate(b, ins, i, target)
	}
	return ins
}

// MatchRateT is MatchRate for trigger inputs.
func MatchRateT(b *builder.Builder, ins []ugen.In, index int, target rate.Rate) []ugen.In {
	return convert(b, ins, index, target, trigger, "trigger")
}

func convert(b *builder.Builder, ins []ugen.In, index int, target rate.Rate, table map[conversion]string, kind string) []ugen.In {
	if index < 0 || index >= len(ins) {
		builder.Fail(builder.ErrArgument, "input %d out of range [0, %d)", index, len(ins))
	}
	in := ins[index]
	from := in.Rate()
	if from == target {
		return ins
	}
	name, ok := table[conversion{from, target}]
	if !ok {
		builder.Fail(builder.ErrRate, "no %s converter from %s to %s", kind, from, target)
	}
	u := ugen.New(name, target, 1, []ugen.In{in}, 0)
	b.AddUGen(u)
	ins[index] = u.Output(0)
	return ins
}
