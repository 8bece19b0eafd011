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

// BinaryOpID selects the operator of a BinaryOpUGen node. The values are the
// engine's special indices.
type BinaryOpID int

const (
	Plus   BinaryOpID = 0
	Minus  BinaryOpID = 1
	Times  BinaryOpID = 2
	IDiv   BinaryOpID = 3
	Div    BinaryOpID = 4
	Mod    BinaryOpID = 5
	Eq     BinaryOpID = 6
	Neq    BinaryOpID = 7
	Lt     BinaryOpID = 8
	Gt     BinaryOpID = 9
	Leq    BinaryOpID = 10
	Geq    BinaryOpID = 11
	Min    BinaryOpID = 12
	Max    BinaryOpID = 13
	BitAnd BinaryOpID = 14
	BitOr  BinaryOpID = 15
	BitXor BinaryOpID = 16
	Atan2  BinaryOpID = 22
	Hypot  BinaryOpID = 23
	Pow    BinaryOpID = 25
	AbsDif BinaryOpID = 38
)

var binaryNames = map[BinaryOpID]string{
	Plus: "+", Minus: "-", Times: "*", IDiv: "div", Div: "/", Mod: "%",
	Eq: "==", Neq: "!=", Lt: "<", Gt: ">", Leq: "<=", Geq: ">=",
	Min: "min", Max: "max", BitAnd: "&", BitOr: "|", BitXor: "^",
	Atan2: "atan2", Hypot: "hypot", Pow: "pow", AbsDif: "absdif",
}

func (op BinaryOpID) String() string {
	if n, ok := binaryNames[op]; ok {
		return n
	}
	return fmt.Sprintf("binop(%d)", int(op))
}

// Valid reports whether op is a known operator.
func (op BinaryOpID) Valid() bool {
	_, ok := binaryNames[op]
	return ok
}

// ParseBinaryOp returns the operator with the given symbol or name.
func ParseBinaryOp(s string) (BinaryOpID, bool) {
	for id, n := range binaryNames {
		if n == s {
			return id, true
		}
	}
	return 0, false
}

func boolf(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// apply computes op on two constants. ok is false when the result is not
// defined at construction time.
func (op BinaryOpID) apply(a, b float32) (float32, bool) {
	x, y := float64(a), float64(b)
	switch op {
	case Plus:
		return a + b, true
	case Minus:
		return a - b, true
	case Times:
		return a * b, true
	case Div:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case IDiv:
		if b == 0 {
			return 0, false
		}
		return float32(math.Floor(x / y)), true
	case Mod:
		if b == 0 {
			return 0, false
		}
		m := math.Mod(x, y)
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return float32(m), true
	case Eq:
		return boolf(a == b), true
	case Neq:
		return boolf(a != b), true
	case Lt:
		return boolf(a < b), true
	case Gt:
		return boolf(a > b), true
	case Leq:
		return boolf(a <= b), true
	case Geq:
		return boolf(a >= b), true
	case Min:
		return min(a, b), true
	case Max:
		return max(a, b), true
	case Atan2:
		return float32(math.Atan2(x, y)), true
	case Hypot:
		return float32(math.Hypot(x, y)), true
	case Pow:
		return float32(math.Pow(x, y)), true
	case AbsDif:
		return float32(math.Abs(x - y)), true
	}
	return 0, false
}

// BinaryOp applies a binary operator to two elements.
type BinaryOp struct {
	lazy
	Op   BinaryOpID
	A, B GE
}

// NewBinaryOp registers op(a, b) without any folding.
func NewBinaryOp(b *builder.Builder, op BinaryOpID, x, y GE) *BinaryOp {
	if !op.Valid() {
		builder.Fail(builder.ErrArgument, "unknown binary operator %d", int(op))
	}
	e := &BinaryOp{Op: op, A: x, B: y}
	e.register(b, e)
	return e
}

// Binary returns op(x, y), folding constants and identities eagerly:
//
//	x*0 = 0*x = 0     x*1 = 1*x = x     x*-1 = -1*x = -x
//	x+0 = 0+x = x     x-0 = x           0-x = -x
//	x/1 = x           x/-1 = -x         x/c = x*(1/c)
//
// Folding never expands either operand.
func Binary(b *builder.Builder, op BinaryOpID, x, y GE) GE {
	cx, xc := constantOf(x)
	cy, yc := constantOf(y)
	if xc && yc {
		if v, ok := op.apply(cx, cy); ok {
			return Constant(v)
		}
	}
	switch op {
	case Times:
		switch {
		case xc && cx == 0:
			return x
		case yc && cy == 0:
			return y
		case xc && cx == 1:
			return y
		case yc && cy == 1:
			return x
		case xc && cx == -1:
			return Unary(b, Neg, y)
		case yc && cy == -1:
			return Unary(b, Neg, x)
		}
	case Plus:
		switch {
		case xc && cx == 0:
			return y
		case yc && cy == 0:
			return x
		}
	case Minus:
		switch {
		case yc && cy == 0:
			return x
		case xc && cx == 0:
			return Unary(b, Neg, y)
		}
	case Div:
		switch {
		case yc && cy == 1:
			return x
		case yc && cy == -1:
			return Unary(b, Neg, x)
		case yc && cy != 0:
			return Binary(b, Times, x, Constant(1/cy))
		}
	}
	return NewBinaryOp(b, op, x, y)
}

// Add returns x + y.
func Add(b *builder.Builder, x, y GE) GE { return Binary(b, Plus, x, y) }

// Sub returns x - y.
func Sub(b *builder.Builder, x, y GE) GE { return Binary(b, Minus, x, y) }

// Mul returns x * y.
func Mul(b *builder.Builder, x, y GE) GE { return Binary(b, Times, x, y) }

// Quot returns x / y.
func Quot(b *builder.Builder, x, y GE) GE { return Binary(b, Div, x, y) }

func (e *BinaryOp) Rate() rate.Rate { return rate.Max(e.A.Rate(), e.B.Rate()) }

func (e *BinaryOp) Lower(b *builder.Builder) ugen.InLike {
	args := []ugen.InLike{e.A.Expand(b), e.B.Expand(b)}
	return unwrap(args, func(ins []ugen.In) ugen.InLike {
		return makeBinary(b, e.Op, ins[0], ins[1])
	})
}

// makeBinary adds one BinaryOpUGen node, or folds two constants.
func makeBinary(b *builder.Builder, op BinaryOpID, x, y ugen.In) ugen.In {
	cx, xc := x.(ugen.Constant)
	cy, yc := y.(ugen.Constant)
	if xc && yc {
		if v, ok := op.apply(float32(cx), float32(cy)); ok {
			return ugen.Constant(v)
		}
	}
	u := ugen.New(opcode.BinaryOpUGen.Name, rate.Max(x.Rate(), y.Rate()), 1, []ugen.In{x, y}, opcode.BinaryOpUGen.Flags)
	u.SpecialIndex = int(op)
	b.AddUGen(u)
	return u.Output(0)
}
