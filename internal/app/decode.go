// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/synthgraph/internal/fsutil"
	"github.com/vk/synthgraph/internal/ugen"
)

// decodeAll turns every compiled graph under the configured path into a
// YAML dump.
func (a *App) decodeAll(ctx context.Context) ([]Result, error) {
	files, err := fsutil.FindFilesByExtension(IRExtension, a.config.GraphPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		a.logger.Warn("No compiled graphs found.", "path", a.config.GraphPath)
		return nil, nil
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := a.decodeOne(file)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Graph decoded.", "graph", res.Name, "nodes", res.Nodes, "files", res.Files)
		results = append(results, res)
	}
	return results, nil
}

func (a *App) decodeOne(file string) (Result, error) {
	f, err := os.Open(file)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	g, err := ugen.Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode %s: %w", file, err)
	}

	name := strings.TrimSuffix(filepath.Base(file), IRExtension)
	path := filepath.Join(a.config.OutputDir, name+YAMLExtension)
	if err := writeFile(path, func(out *os.File) error { return writeYAML(out, name, g) }); err != nil {
		return Result{}, err
	}
	return Result{Name: name, Nodes: len(g.Nodes), Files: []string{path}}, nil
}
