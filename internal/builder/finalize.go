// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"fmt"
	"strings"

	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// Finalize expands every remaining element, prunes and indexes the node list
// and returns the resulting graph. The builder is closed afterwards, whether
// or not finalization succeeds.
func (b *Builder) Finalize() (g *ugen.Graph, err error) {
	if b == nil {
		return nil, &ConstructionError{Msg: "finalize", Err: ErrNoBuilder}
	}
	if b.phase == closed {
		return nil, &ConstructionError{Msg: "finalize", Err: ErrClosed}
	}
	defer b.discard()
	defer recoverInto(&err)

	b.logger.Debug("Finalize: Forcing unvisited elements.", "element_count", len(b.elems))
	forced := b.force()
	b.logger.Debug("Finalize: Expansion complete.", "forced", forced, "node_count", b.NumNodes())

	nodes := b.ordered()
	nodes = prune(nodes)
	b.logger.Debug("Finalize: Pruning complete.", "before", b.NumNodes(), "after", len(nodes))

	if b.merge {
		before := len(nodes)
		nodes = mergeDuplicates(nodes)
		b.logger.Debug("Finalize: Merge complete.", "before", before, "after", len(nodes))
	}

	g, err = index(nodes)
	if err != nil {
		return nil, err
	}
	g.Controls = append([]float32(nil), b.controls...)
	g.ControlNames = append([]ugen.ControlName(nil), b.controlNames...)
	b.logger.Debug("Finalize: Graph ready.", "node_count", len(g.Nodes), "control_slots", len(g.Controls))
	return g, nil
}

// force expands unvisited elements in registration order and runs finalize
// hooks until neither produces more work. It returns the number of elements
// it had to force.
func (b *Builder) force() int {
	forced := 0
	elem, hook := 0, 0
	for elem < len(b.elems) || hook < len(b.hooks) {
		for ; elem < len(b.elems); elem++ {
			h := Handle(elem)
			if !b.Visited(h) {
				forced++
				b.Expand(h)
			}
		}
		for ; hook < len(b.hooks) && elem == len(b.elems); hook++ {
			b.hooks[hook]()
		}
	}
	return forced
}

func (b *Builder) ordered() []*ugen.UGen {
	out := make([]*ugen.UGen, 0, b.NumNodes())
	for i := len(b.prepended) - 1; i >= 0; i-- {
		out = append(out, b.prepended[i])
	}
	return append(out, b.nodes...)
}

// Abort closes b and drops everything registered with it. Finalize on an
// aborted builder returns ErrClosed. Aborting a nil or closed builder does
// nothing.
func (b *Builder) Abort() {
	if b == nil || b.phase == closed {
		return
	}
	b.logger.Debug("Builder aborted.", "elements", len(b.elems))
	b.discard()
}

func (b *Builder) discard() {
	b.phase = closed
	b.elems = nil
	b.memo = nil
	b.active = nil
	b.shared = nil
	b.nodes = nil
	b.prepended = nil
	b.controls = nil
	b.controlNames = nil
	b.hooks = nil
}

// prune keeps side-effecting nodes and everything they transitively read.
func prune(nodes []*ugen.UGen) []*ugen.UGen {
	live := make(map[*ugen.UGen]bool, len(nodes))
	var stack []*ugen.UGen
	for _, u := range nodes {
		if u.Flags.Has(ugen.SideEffect) {
			live[u] = true
			stack = append(stack, u)
		}
	}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, in := range u.Inputs {
			if out, ok := in.(ugen.Output); ok && !live[out.UGen] {
				live[out.UGen] = true
				stack = append(stack, out.UGen)
			}
		}
	}
	kept := nodes[:0:0]
	for _, u := range nodes {
		if live[u] {
			kept = append(kept, u)
		}
	}
	return kept
}

// mergeDuplicates folds nodes that share opcode, rate, variant, flags and
// inputs into their first occurrence. Individual and side-effecting nodes
// are never merged.
func mergeDuplicates(nodes []*ugen.UGen) []*ugen.UGen {
	canon := make(map[string]*ugen.UGen)
	replaced := make(map[*ugen.UGen]*ugen.UGen)
	kept := nodes[:0:0]
	for _, u := range nodes {
		for i, in := range u.Inputs {
			if out, ok := in.(ugen.Output); ok {
				if r, ok := replaced[out.UGen]; ok {
					u.Inputs[i] = ugen.Output{UGen: r, Index: out.Index}
				}
			}
		}
		if u.Flags.Has(ugen.Individual) || u.Flags.Has(ugen.SideEffect) {
			kept = append(kept, u)
			continue
		}
		key := structuralKey(u)
		if first, ok := canon[key]; ok {
			replaced[u] = first
			continue
		}
		canon[key] = u
		kept = append(kept, u)
	}
	return kept
}

func structuralKey(u *ugen.UGen) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%d|%d|%d|%d", u.Name, u.Rate, u.SpecialIndex, u.Flags, len(u.Outputs))
	for _, in := range u.Inputs {
		switch x := in.(type) {
		case ugen.Constant:
			fmt.Fprintf(&sb, "|c%g", float32(x))
		case ugen.Output:
			fmt.Fprintf(&sb, "|n%p:%d", x.UGen, x.Index)
		}
	}
	return sb.String()
}

// index resolves node pointers to list positions and checks that every
// input references an earlier node.
func index(nodes []*ugen.UGen) (*ugen.Graph, error) {
	pos := make(map[*ugen.UGen]int, len(nodes))
	g := &ugen.Graph{Nodes: make([]ugen.Node, len(nodes))}
	for i, u := range nodes {
		refs := make([]ugen.Ref, len(u.Inputs))
		for j, in := range u.Inputs {
			switch x := in.(type) {
			case ugen.Constant:
				refs[j] = ugen.ConstantRef(float32(x))
			case ugen.Output:
				p, ok := pos[x.UGen]
				if !ok {
					return nil, &ConstructionError{
						Msg: fmt.Sprintf("node %d (%s) input %d references %s which does not precede it", i, u.Name, j, x.UGen.Name),
						Err: ErrCycle,
					}
				}
				refs[j] = ugen.Ref{Node: p, Slot: x.Index}
			}
		}
		g.Nodes[i] = ugen.Node{
			Name:         u.Name,
			Rate:         u.Rate,
			SpecialIndex: u.SpecialIndex,
			Inputs:       refs,
			Outputs:      append([]rate.Rate(nil), u.Outputs...),
			Flags:        u.Flags,
		}
		pos[u] = i
	}
	return g, nil
}
