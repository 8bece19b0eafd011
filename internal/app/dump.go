// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"io"

	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
	"gopkg.in/yaml.v3"
)

// YAMLExtension is the file extension of graph dumps.
const YAMLExtension = ".yaml"

type dumpDoc struct {
	Name     string        `yaml:"name"`
	Controls []dumpControl `yaml:"controls,omitempty"`
	Nodes    []dumpNode    `yaml:"nodes"`
}

type dumpControl struct {
	Name   string    `yaml:"name"`
	Index  int       `yaml:"index"`
	Values []float32 `yaml:"values,flow"`
}

type dumpNode struct {
	Index   int         `yaml:"index"`
	Name    string      `yaml:"name"`
	Rate    rate.Rate   `yaml:"rate"`
	Special int         `yaml:"special,omitempty"`
	Inputs  []string    `yaml:"inputs,flow,omitempty"`
	Outputs []rate.Rate `yaml:"outputs,flow,omitempty"`
	Flags   string      `yaml:"flags,omitempty"`
}

func newDumpDoc(name string, g *ugen.Graph) dumpDoc {
	doc := dumpDoc{Name: name, Nodes: make([]dumpNode, len(g.Nodes))}
	for _, cn := range g.ControlNames {
		doc.Controls = append(doc.Controls, dumpControl{
			Name:   cn.Name,
			Index:  cn.Index,
			Values: g.Controls[cn.Index : cn.Index+cn.Count],
		})
	}
	for i, n := range g.Nodes {
		dn := dumpNode{Index: i, Name: n.Name, Rate: n.Rate, Special: n.SpecialIndex, Outputs: n.Outputs}
		for _, in := range n.Inputs {
			dn.Inputs = append(dn.Inputs, in.String())
		}
		if n.Flags != 0 {
			dn.Flags = n.Flags.String()
		}
		doc.Nodes[i] = dn
	}
	return doc
}

// writeYAML writes a human-readable dump of g.
func writeYAML(w io.Writer, name string, g *ugen.Graph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDumpDoc(name, g)); err != nil {
		return err
	}
	return enc.Close()
}
