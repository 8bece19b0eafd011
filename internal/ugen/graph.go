// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ugen

import (
	"fmt"

	"github.com/vk/synthgraph/internal/rate"
)

// Ref is a resolved input reference. Node is the index of the producing node
// in Graph.Nodes, or -1 for a constant carried in Value.
type Ref struct {
	Node  int
	Slot  int
	Value float32
}

// ConstantRef returns a reference to a literal value.
func ConstantRef(v float32) Ref { return Ref{Node: -1, Value: v} }

// IsConstant reports whether r is a literal.
func (r Ref) IsConstant() bool { return r.Node < 0 }

func (r Ref) String() string {
	if r.IsConstant() {
		return fmt.Sprintf("%g", r.Value)
	}
	return fmt.Sprintf("@%d[%d]", r.Node, r.Slot)
}

// Node is one finalized IR node. Inputs only reference nodes at lower
// indices.
type Node struct {
	Name         string
	Rate         rate.Rate
	SpecialIndex int
	Inputs       []Ref
	Outputs      []rate.Rate
	Flags        Flags
}

// ControlName names a contiguous range of the control vector.
type ControlName struct {
	Name  string
	Index int
	Count int
}

// Graph is the finalized, flat form of one build: the ordered node list and
// the flattened control-parameter vector with its named offsets.
type Graph struct {
	Nodes        []Node
	Controls     []float32
	ControlNames []ControlName
}

// Control returns the named control range.
func (g *Graph) Control(name string) (ControlName, bool) {
	for _, cn := range g.ControlNames {
		if cn.Name == name {
			return cn, true
		}
	}
	return ControlName{}, false
}

// CountByName returns how many nodes carry the given opcode name.
func (g *Graph) CountByName(name string) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Name == name {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of a finalized graph: every
// node input references an existing output of an earlier node, and control
// names stay within the control vector.
func (g *Graph) Validate() error {
	for i, n := range g.Nodes {
		for j, in := range n.Inputs {
			if in.IsConstant() {
				continue
			}
			if in.Node >= i {
				return fmt.Errorf("node %d (%s) input %d references node %d which is not earlier", i, n.Name, j, in.Node)
			}
			if in.Slot < 0 || in.Slot >= len(g.Nodes[in.Node].Outputs) {
				return fmt.Errorf("node %d (%s) input %d references missing output %d of node %d", i, n.Name, j, in.Slot, in.Node)
			}
		}
	}
	for _, cn := range g.ControlNames {
		if cn.Index < 0 || cn.Index+cn.Count > len(g.Controls) {
			return fmt.Errorf("control %q [%d, %d) is outside the control vector of %d", cn.Name, cn.Index, cn.Index+cn.Count, len(g.Controls))
		}
	}
	return nil
}
