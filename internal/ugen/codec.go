// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ugen

import (
	"fmt"
	"io"

	"github.com/vk/synthgraph/internal/codec"
)

// Namespace is the key namespace of the IR products.
const Namespace = "synthgraph.ugen"

const (
	keyGraph       = Namespace + ".Graph"
	keyNode        = Namespace + ".Node"
	keyRef         = Namespace + ".Ref"
	keyControlName = Namespace + ".ControlName"
)

func (g *Graph) TypeKey() string { return keyGraph }
func (g *Graph) Fields() []any {
	return []any{g.Nodes, g.Controls, g.ControlNames}
}

func (n Node) TypeKey() string { return keyNode }
func (n Node) Fields() []any {
	return []any{n.Name, n.Rate, n.SpecialIndex, n.Inputs, n.Outputs, int(n.Flags)}
}

func (r Ref) TypeKey() string { return keyRef }
func (r Ref) Fields() []any   { return []any{r.Node, r.Slot, r.Value} }

func (c ControlName) TypeKey() string { return keyControlName }
func (c ControlName) Fields() []any   { return []any{c.Name, c.Index, c.Count} }

// Readers returns the codec readers for the IR products.
func Readers() []codec.Reader {
	return []codec.Reader{
		{Key: keyGraph, Arity: 3, Factory: readGraph},
		{Key: keyNode, Arity: 6, Factory: readNode},
		{Key: keyRef, Arity: 3, Factory: readRef},
		{Key: keyControlName, Arity: 3, Factory: readControlName},
	}
}

func readGraph(in *codec.ProductReader) (any, error) {
	nodes := productsOf[Node](in, "node")
	controls := in.Float32s()
	names := productsOf[ControlName](in, "control name")
	return &Graph{Nodes: nodes, Controls: controls, ControlNames: names}, nil
}

func readNode(in *codec.ProductReader) (any, error) {
	n := Node{
		Name:         in.String(),
		Rate:         in.Rate(),
		SpecialIndex: in.Int(),
	}
	n.Inputs = productsOf[Ref](in, "ref")
	n.Outputs = in.Rates()
	n.Flags = Flags(in.Int())
	return n, nil
}

func readRef(in *codec.ProductReader) (any, error) {
	return Ref{Node: in.Int(), Slot: in.Int(), Value: in.Float32()}, nil
}

func readControlName(in *codec.ProductReader) (any, error) {
	return ControlName{Name: in.String(), Index: in.Int(), Count: in.Int()}, nil
}

func productsOf[T any](in *codec.ProductReader, what string) []T {
	vs := in.Vector()
	if in.Err() != nil {
		return nil
	}
	out := make([]T, 0, len(vs))
	for i, v := range vs {
		t, ok := v.(T)
		if !ok {
			in.Fail("%s %d: unexpected %T", what, i, v)
			return nil
		}
		out = append(out, t)
	}
	return out
}

// Encode writes g to w.
func Encode(w io.Writer, g *Graph) error {
	return codec.NewEncoder(w, codec.WithNamespace(Namespace)).Encode(g)
}

// Decode reads a graph written by Encode and checks its invariants.
func Decode(r io.Reader) (*Graph, error) {
	reg, err := codec.NewRegistry(Namespace, Readers()...)
	if err != nil {
		return nil, err
	}
	v, err := codec.NewDecoder(r, reg, codec.WithNamespace(Namespace)).Decode()
	if err != nil {
		return nil, err
	}
	g, ok := v.(*Graph)
	if !ok {
		return nil, fmt.Errorf("decoding graph: expected a graph, got %T", v)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	return g, nil
}
