// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"context"
	"fmt"

	"github.com/vk/synthgraph/internal/ctxlog"
	"github.com/vk/synthgraph/internal/ugen"
)

// Build runs fn against a fresh builder and finalizes it. The builder logs
// through the context logger unless an option overrides it. It is discarded
// when Build returns, on success or failure.
func Build(ctx context.Context, fn func(b *Builder) error, opts ...Option) (g *ugen.Graph, err error) {
	opts = append([]Option{WithLogger(ctxlog.FromContext(ctx))}, opts...)
	b := New(opts...)
	b.logger.Debug("Build: Starting graph construction.")

	if err := b.run(fn); err != nil {
		b.discard()
		b.logger.Debug("Build: Construction failed.", "error", err)
		return nil, err
	}
	return b.Finalize()
}

func (b *Builder) run(fn func(b *Builder) error) (err error) {
	defer recoverInto(&err)
	if err := fn(b); err != nil {
		return fmt.Errorf("building graph: %w", err)
	}
	return nil
}
