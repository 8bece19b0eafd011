// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package ugen holds the flat intermediate representation produced by graph
// expansion: executable opcode nodes (UGens), the references between them,
// and the finalized Graph that is handed to the synthesis engine.
package ugen

import (
	"fmt"
	"strings"

	"github.com/vk/synthgraph/internal/rate"
)

// Flags is the set of capabilities attached to a node by its opcode
// declaration.
type Flags uint8

const (
	// SideEffect nodes are roots of liveness: they are kept even when
	// nothing reads their outputs.
	SideEffect Flags = 1 << iota
	// Individual nodes must never be merged with structurally equal ones.
	Individual
	// DoneFlag nodes report completion and may be observed by Done.
	DoneFlag
)

// Has reports whether every flag in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

func (f Flags) String() string {
	var parts []string
	if f.Has(SideEffect) {
		parts = append(parts, "side-effect")
	}
	if f.Has(Individual) {
		parts = append(parts, "individual")
	}
	if f.Has(DoneFlag) {
		parts = append(parts, "done-flag")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// UGen is one IR node under construction. Inputs reference other nodes by
// pointer; indices are only assigned when the graph is finalized.
type UGen struct {
	Name         string
	Rate         rate.Rate
	Inputs       []In
	Outputs      []rate.Rate
	SpecialIndex int
	Flags        Flags
}

// New builds a node with numOutputs outputs, all running at r.
func New(name string, r rate.Rate, numOutputs int, inputs []In, flags Flags) *UGen {
	outs := make([]rate.Rate, numOutputs)
	for i := range outs {
		outs[i] = r
	}
	return &UGen{Name: name, Rate: r, Inputs: inputs, Outputs: outs, Flags: flags}
}

// Output returns the reference to output slot i.
func (u *UGen) Output(i int) Output {
	if i < 0 || i >= len(u.Outputs) {
		panic(fmt.Sprintf("ugen: %s has no output %d", u.Name, i))
	}
	return Output{UGen: u, Index: i}
}

// Result is the expansion value of the node itself: its single output, or a
// group of all outputs (empty for nodes without outputs).
func (u *UGen) Result() InLike {
	if len(u.Outputs) == 1 {
		return u.Output(0)
	}
	elems := make([]InLike, len(u.Outputs))
	for i := range u.Outputs {
		elems[i] = u.Output(i)
	}
	return NewGroup(elems...)
}

func (u *UGen) String() string {
	var sb strings.Builder
	sb.WriteString(u.Name)
	sb.WriteByte('.')
	sb.WriteString(u.Rate.MethodName())
	if u.SpecialIndex != 0 {
		fmt.Fprintf(&sb, "#%d", u.SpecialIndex)
	}
	sb.WriteByte('(')
	for i, in := range u.Inputs {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch x := in.(type) {
		case Constant:
			fmt.Fprintf(&sb, "%g", float32(x))
		case Output:
			fmt.Fprintf(&sb, "%s[%d]", x.UGen.Name, x.Index)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
