// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"fmt"
	"math"

	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// UnaryOpID selects the operator of a UnaryOpUGen node.
type UnaryOpID int

const (
	Neg        UnaryOpID = 0
	Not        UnaryOpID = 1
	Abs        UnaryOpID = 5
	Ceil       UnaryOpID = 8
	Floor      UnaryOpID = 9
	Frac       UnaryOpID = 10
	Signum     UnaryOpID = 11
	Squared    UnaryOpID = 12
	Cubed      UnaryOpID = 13
	Sqrt       UnaryOpID = 14
	Exp        UnaryOpID = 15
	Reciprocal UnaryOpID = 16
	MidiCps    UnaryOpID = 17
	CpsMidi    UnaryOpID = 18
	DbAmp      UnaryOpID = 21
	AmpDb      UnaryOpID = 22
	Log        UnaryOpID = 25
	Log2       UnaryOpID = 26
	Log10      UnaryOpID = 27
	Sin        UnaryOpID = 28
	Cos        UnaryOpID = 29
	Tan        UnaryOpID = 30
)

var unaryNames = map[UnaryOpID]string{
	Neg: "neg", Not: "not", Abs: "abs", Ceil: "ceil", Floor: "floor", Frac: "frac",
	Signum: "signum", Squared: "squared", Cubed: "cubed", Sqrt: "sqrt", Exp: "exp",
	Reciprocal: "reciprocal", MidiCps: "midicps", CpsMidi: "cpsmidi", DbAmp: "dbamp",
	AmpDb: "ampdb", Log: "log", Log2: "log2", Log10: "log10", Sin: "sin", Cos: "cos", Tan: "tan",
}

func (op UnaryOpID) String() string {
	if n, ok := unaryNames[op]; ok {
		return n
	}
	return fmt.Sprintf("unop(%d)", int(op))
}

// Valid reports whether op is a known operator.
func (op UnaryOpID) Valid() bool {
	_, ok := unaryNames[op]
	return ok
}

// ParseUnaryOp returns the operator with the given name.
func ParseUnaryOp(s string) (UnaryOpID, bool) {
	for id, n := range unaryNames {
		if n == s {
			return id, true
		}
	}
	return 0, false
}

func (op UnaryOpID) apply(a float32) (float32, bool) {
	x := float64(a)
	var v float64
	switch op {
	case Neg:
		return -a, true
	case Not:
		return boolf(a == 0), true
	case Abs:
		v = math.Abs(x)
	case Ceil:
		v = math.Ceil(x)
	case Floor:
		v = math.Floor(x)
	case Frac:
		v = x - math.Floor(x)
	case Signum:
		switch {
		case a > 0:
			return 1, true
		case a < 0:
			return -1, true
		}
		return 0, true
	case Squared:
		return a * a, true
	case Cubed:
		return a * a * a, true
	case Sqrt:
		if a < 0 {
			return 0, false
		}
		v = math.Sqrt(x)
	case Exp:
		v = math.Exp(x)
	case Reciprocal:
		if a == 0 {
			return 0, false
		}
		return 1 / a, true
	case MidiCps:
		v = 440 * math.Pow(2, (x-69)/12)
	case CpsMidi:
		if a <= 0 {
			return 0, false
		}
		v = math.Log2(x/440)*12 + 69
	case DbAmp:
		v = math.Pow(10, x/20)
	case AmpDb:
		if a <= 0 {
			return 0, false
		}
		v = math.Log10(x) * 20
	case Log, Log2, Log10:
		if a <= 0 {
			return 0, false
		}
		switch op {
		case Log:
			v = math.Log(x)
		case Log2:
			v = math.Log2(x)
		default:
			v = math.Log10(x)
		}
	case Sin:
		v = math.Sin(x)
	case Cos:
		v = math.Cos(x)
	case Tan:
		v = math.Tan(x)
	default:
		return 0, false
	}
	return float32(v), true
}

// UnaryOp applies a unary operator to an element.
type UnaryOp struct {
	lazy
	Op UnaryOpID
	A  GE
}

// NewUnaryOp registers op(x) without any folding.
func NewUnaryOp(b *builder.Builder, op UnaryOpID, x GE) *UnaryOp {
	if !op.Valid() {
		builder.Fail(builder.ErrArgument, "unknown unary operator %d", int(op))
	}
	e := &UnaryOp{Op: op, A: x}
	e.register(b, e)
	return e
}

// Unary returns op(x). Constants are computed eagerly and a double
// negation cancels.
func Unary(b *builder.Builder, op UnaryOpID, x GE) GE {
	if c, ok := constantOf(x); ok {
		if v, ok := op.apply(c); ok {
			return Constant(v)
		}
	}
	if inner, ok := x.(*UnaryOp); ok && op == Neg && inner.Op == Neg {
		return inner.A
	}
	return NewUnaryOp(b, op, x)
}

func (e *UnaryOp) Rate() rate.Rate { return e.A.Rate() }

func (e *UnaryOp) Lower(b *builder.Builder) ugen.InLike {
	return unwrap([]ugen.InLike{e.A.Expand(b)}, func(ins []ugen.In) ugen.InLike {
		if c, ok := ins[0].(ugen.Constant); ok {
			if v, ok := e.Op.apply(float32(c)); ok {
				return ugen.Constant(v)
			}
		}
		u := ugen.New(opcode.UnaryOpUGen.Name, ins[0].Rate(), 1, ins, opcode.UnaryOpUGen.Flags)
		u.SpecialIndex = int(e.Op)
		b.AddUGen(u)
		return u.Output(0)
	})
}
