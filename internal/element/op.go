// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// Op is an instance of a declared opcode. Args holds one element per
// declared input; a variadic last input is a single (usually grouped)
// element whose channels are flattened into the node inputs.
type Op struct {
	lazy
	Spec *opcode.Spec
	// Requested is the rate asked for at construction. Unknown derives the
	// rate from the inputs.
	Requested rate.Rate
	// Special selects an opcode variant; copied to the node's special index.
	Special int
	Args    []GE
}

// NewOp registers an instance of spec. Omitted trailing inputs take their
// declared defaults; for a variadic spec every argument past the fixed
// inputs is gathered into the variadic input.
func NewOp(b *builder.Builder, spec *opcode.Spec, r rate.Rate, args ...GE) *Op {
	if spec == nil {
		builder.Fail(builder.ErrArgument, "nil opcode")
	}
	if r != rate.Unknown && !spec.Supports(r) {
		builder.Fail(builder.ErrRate, "%s cannot run at %s", spec.Name, r)
	}
	return newOp(b, spec, r, 0, normalize(spec, args))
}

// Ar is NewOp at audio rate.
func Ar(b *builder.Builder, spec *opcode.Spec, args ...GE) *Op {
	return NewOp(b, spec, rate.Audio, args...)
}

// Kr is NewOp at control rate.
func Kr(b *builder.Builder, spec *opcode.Spec, args ...GE) *Op {
	return NewOp(b, spec, rate.Control, args...)
}

func newOp(b *builder.Builder, spec *opcode.Spec, r rate.Rate, special int, args []GE) *Op {
	if len(args) != len(spec.Inputs) {
		builder.Fail(builder.ErrArgument, "%s takes %d inputs, got %d", spec.Name, len(spec.Inputs), len(args))
	}
	o := &Op{Spec: spec, Requested: r, Special: special, Args: args}
	o.register(b, o)
	return o
}

func normalize(spec *opcode.Spec, args []GE) []GE {
	fixed := len(spec.Inputs)
	if spec.Variadic() {
		fixed--
	} else if len(args) > fixed {
		builder.Fail(builder.ErrArgument, "%s takes at most %d inputs, got %d", spec.Name, fixed, len(args))
	}

	out := make([]GE, len(spec.Inputs))
	for i := 0; i < fixed; i++ {
		switch in := spec.Inputs[i]; {
		case i < len(args) && args[i] != nil:
			out[i] = args[i]
		case in.Default != nil:
			out[i] = Constant(*in.Default)
		default:
			builder.Fail(builder.ErrArgument, "%s: missing input %q", spec.Name, in.Name)
		}
	}
	if spec.Variadic() {
		var rest []GE
		if len(args) > fixed {
			rest = args[fixed:]
		}
		switch len(rest) {
		case 0:
			builder.Fail(builder.ErrArgument, "%s: input %q needs at least one channel", spec.Name, spec.Inputs[fixed].Name)
		case 1:
			out[fixed] = rest[0]
		default:
			out[fixed] = Seq(rest...)
		}
	}
	return out
}

func (o *Op) fixed() int {
	if o.Spec.Variadic() {
		return len(o.Args) - 1
	}
	return len(o.Args)
}

// Rate returns the requested rate, the only rate of a single-rate opcode, or
// the maximum rate of the rate-deciding inputs.
func (o *Op) Rate() rate.Rate {
	if o.Requested != rate.Unknown {
		return o.Requested
	}
	if len(o.Spec.Rates) == 1 {
		return o.Spec.Rates[0]
	}
	var rs []rate.Rate
	for _, i := range o.rateInputs() {
		rs = append(rs, o.Args[i].Rate())
	}
	return rate.MaxOf(rs...)
}

func (o *Op) rateInputs() []int {
	if len(o.Spec.RateInputs) > 0 {
		return o.Spec.RateInputs
	}
	idx := make([]int, len(o.Args))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (o *Op) Lower(b *builder.Builder) ugen.InLike {
	fixed := o.fixed()
	args := expandArgs(b, o.Args[:fixed])
	var extra []ugen.In
	if fixed < len(o.Args) {
		extra = o.Args[fixed].Expand(b).Outputs()
	}
	return unwrap(args, func(vals []ugen.In) ugen.InLike {
		inputs := make([]ugen.In, 0, len(vals)+len(extra))
		inputs = append(append(inputs, vals...), extra...)
		return o.makeUGen(b, inputs)
	})
}

func (o *Op) makeUGen(b *builder.Builder, ins []ugen.In) ugen.InLike {
	r := o.nodeRate(ins)
	fixed := o.fixed()
	for _, i := range o.Spec.MatchRate {
		if i == fixed {
			ins = MatchRateFrom(b, ins, i, r)
		} else {
			ins = MatchRate(b, ins, i, r)
		}
	}
	for _, i := range o.Spec.Trigger {
		ins = MatchRateT(b, ins, i, r)
	}
	u := ugen.New(o.Spec.Name, r, o.Spec.NumOutputs, ins, o.Spec.Flags)
	u.SpecialIndex = o.Special
	b.AddUGen(u)
	return u.Result()
}

// nodeRate resolves the node rate from the expanded inputs. A derived rate
// the opcode cannot run at is raised to the next rate it supports.
func (o *Op) nodeRate(ins []ugen.In) rate.Rate {
	if o.Requested != rate.Unknown {
		return o.Requested
	}
	if len(o.Spec.Rates) == 1 {
		return o.Spec.Rates[0]
	}
	fixed := o.fixed()
	var rs []rate.Rate
	for _, i := range o.rateInputs() {
		if i == fixed && fixed < len(o.Args) {
			for _, in := range ins[fixed:] {
				rs = append(rs, in.Rate())
			}
			continue
		}
		rs = append(rs, ins[i].Rate())
	}
	r := rate.MaxOf(rs...)
	if o.Spec.Supports(r) {
		return r
	}
	if r != rate.Demand {
		for _, up := range []rate.Rate{rate.Scalar, rate.Control, rate.Audio} {
			if c, _ := rate.Compare(up, r); c >= 0 && o.Spec.Supports(up) {
				return up
			}
		}
	}
	builder.Fail(builder.ErrRate, "%s cannot run at %s", o.Spec.Name, r)
	return rate.Unknown
}
