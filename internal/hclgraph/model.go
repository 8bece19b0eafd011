// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hclgraph

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/synthgraph/internal/hclexpr"
)

// fileRoot decodes the top-level blocks of a definition file.
type fileRoot struct {
	Graphs []*Graph  `hcl:"graph,block"`
	Remain hcl.Body `hcl:",remain"`
}

// Graph is one decoded graph block.
type Graph struct {
	Name     string     `hcl:"name,label"`
	Controls []*Control `hcl:"control,block"`
	Outs     []*Out     `hcl:"out,block"`
	Remain   hcl.Body   `hcl:",remain"`

	// File is the definition file the block came from.
	File string

	signals hcl.Attributes
}

// Control declares a named parameter bank.
type Control struct {
	Name    string    `hcl:"name,label"`
	Rate    *string   `hcl:"rate,optional"`
	Values  []float64 `hcl:"values"`
	Trigger *bool     `hcl:"trigger,optional"`
}

// Out writes a signal to a bus.
type Out struct {
	Rate   *string        `hcl:"rate,optional"`
	Bus    hcl.Expression `hcl:"bus"`
	Signal hcl.Expression `hcl:"signal"`
}

var signalsSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "signals"}},
}

// decodeSignals extracts the attributes of the optional signals block.
func (g *Graph) decodeSignals() hcl.Diagnostics {
	if g.Remain == nil {
		return nil
	}
	content, diags := g.Remain.Content(signalsSchema)
	if diags.HasErrors() {
		return diags
	}
	block, blockDiags := hclexpr.FindUniqueBlock(content.Blocks, "signals")
	diags = append(diags, blockDiags...)
	if block == nil || diags.HasErrors() {
		return diags
	}
	attrs, attrDiags := block.Body.JustAttributes()
	g.signals = attrs
	return append(diags, attrDiags...)
}

// Signals returns the declared signal names in sorted order.
func (g *Graph) Signals() []string {
	names := make([]string, 0, len(g.signals))
	for name := range g.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
