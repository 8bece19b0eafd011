// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/ctxlog"
	"github.com/vk/synthgraph/internal/hclgraph"
	"github.com/vk/synthgraph/internal/ugen"
	"golang.org/x/sync/errgroup"
)

// IRExtension is the file extension of compiled graphs.
const IRExtension = ".ugraph"

// compileAll loads every graph definition and compiles them concurrently.
// Each graph is built with its own builder.
func (a *App) compileAll(ctx context.Context) ([]Result, error) {
	graphs, err := a.loader.Load(ctx, a.config.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph definitions: %w", err)
	}
	if len(graphs) == 0 {
		a.logger.Warn("No graph definitions found.", "path", a.config.GraphPath)
		return nil, nil
	}
	a.logger.Info("Compiling graphs.", "count", len(graphs), "workers", a.config.Workers)

	results := make([]Result, len(graphs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i, def := range graphs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.compileOne(gctx, def)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *App) compileOne(ctx context.Context, def *hclgraph.Graph) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("graph", def.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	graph, err := builder.Build(ctx, func(b *builder.Builder) error {
		return def.Compile(ctx, b)
	}, builder.WithMergeDuplicates(a.config.MergeDuplicates))
	if err != nil {
		return Result{}, fmt.Errorf("failed to compile graph %q from %s: %w", def.Name, def.File, err)
	}

	files, err := a.writeGraph(def.Name, graph)
	if err != nil {
		return Result{}, err
	}
	logger.Info("Graph compiled.", "nodes", len(graph.Nodes), "controls", len(graph.Controls), "files", files)
	return Result{Name: def.Name, Nodes: len(graph.Nodes), Files: files}, nil
}

// writeGraph writes the configured output files for one graph.
func (a *App) writeGraph(name string, g *ugen.Graph) ([]string, error) {
	var files []string
	if a.config.writesBinary() {
		path := filepath.Join(a.config.OutputDir, name+IRExtension)
		if err := writeFile(path, func(f *os.File) error { return ugen.Encode(f, g) }); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if a.config.writesYAML() {
		path := filepath.Join(a.config.OutputDir, name+YAMLExtension)
		if err := writeFile(path, func(f *os.File) error { return writeYAML(f, name, g) }); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
