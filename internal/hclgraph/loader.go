// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/synthgraph/internal/ctxlog"
	"github.com/vk/synthgraph/internal/fsutil"
)

// Extension is the file extension of graph definition files.
const Extension = ".hcl"

// Loader reads graph definitions from files and directories.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new graph definition loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load parses every definition file found under paths. Graph names must be
// unique across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(Extension, paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	var graphs []*Graph
	for _, file := range files {
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		found, err := decodeFile(file, hclFile)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, found...)
	}
	if err := checkUnique(graphs); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "graphs", len(graphs))
	return graphs, nil
}

// Parse decodes the graphs of a single in-memory definition.
func (l *Loader) Parse(filename string, src []byte) ([]*Graph, error) {
	hclFile, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	graphs, err := decodeFile(filename, hclFile)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(graphs); err != nil {
		return nil, err
	}
	return graphs, nil
}

func decodeFile(filename string, f *hcl.File) ([]*Graph, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if root.Remain != nil {
		// Anything other than graph blocks at the top level is a mistake.
		if _, diags := root.Remain.Content(&hcl.BodySchema{}); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
		}
	}
	for _, g := range root.Graphs {
		g.File = filename
		if diags := g.decodeSignals(); diags.HasErrors() {
			return nil, fmt.Errorf("graph %q in %s: %w", g.Name, filename, diags)
		}
	}
	return root.Graphs, nil
}

func checkUnique(graphs []*Graph) error {
	seen := make(map[string]string, len(graphs))
	for _, g := range graphs {
		if prev, ok := seen[g.Name]; ok {
			return fmt.Errorf("graph %q defined in both %s and %s", g.Name, prev, g.File)
		}
		seen[g.Name] = g.File
	}
	return nil
}
