// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/synthgraph/internal/ctxlog"
)

// Run executes the main application logic based on the configuration: it
// either compiles graph definitions or decodes compiled graphs.
func (a *App) Run(ctx context.Context) ([]Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "decode", a.config.Decode)

	if err := os.MkdirAll(a.config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		results []Result
		err     error
	)
	if a.config.Decode {
		results, err = a.decodeAll(ctx)
	} else {
		results, err = a.compileAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	a.logger.Debug("App.Run method finished.", "graphs", len(results))
	return results, nil
}
