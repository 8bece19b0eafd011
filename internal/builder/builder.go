// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/vk/synthgraph/internal/ugen"
)

// Handle addresses a registered element in the builder's arena.
type Handle int

// Element is implemented by every element that registers with a builder.
// Lower performs the actual expansion; callers go through Builder.Expand so
// that it runs at most once per build.
type Element interface {
	Lower(b *Builder) ugen.InLike
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithMergeDuplicates enables merging of structurally identical pure nodes
// at finalization.
func WithMergeDuplicates(on bool) Option {
	return func(b *Builder) { b.merge = on }
}

type phase int

const (
	building phase = iota
	closed
)

// Builder is the single-writer context of one build. It is not safe for
// concurrent use; independent builds use independent builders.
type Builder struct {
	id     string
	logger *slog.Logger
	merge  bool
	phase  phase

	elems  []Element
	memo   map[Handle]ugen.InLike
	active map[Handle]bool
	shared map[any]any

	nodes     []*ugen.UGen
	prepended []*ugen.UGen

	controls     []float32
	controlNames []ugen.ControlName

	hooks []func()
}

// New returns an empty builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		id:     uuid.NewString(),
		logger: slog.Default(),
		memo:   make(map[Handle]ugen.InLike),
		active: make(map[Handle]bool),
		shared: make(map[any]any),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("build_id", b.id)
	return b
}

// ID returns the correlation id of this build.
func (b *Builder) ID() string { return b.id }

func (b *Builder) check() {
	if b == nil {
		Fail(ErrNoBuilder, "element constructed outside of a build")
	}
	if b.phase == closed {
		Fail(ErrClosed, "builder %s already finalized", b.id)
	}
}

// Register adds e to the arena and returns its handle.
func (b *Builder) Register(e Element) Handle {
	b.check()
	b.elems = append(b.elems, e)
	return Handle(len(b.elems) - 1)
}

// Element returns the element registered under h.
func (b *Builder) Element(h Handle) Element {
	if h < 0 || int(h) >= len(b.elems) {
		return nil
	}
	return b.elems[h]
}

// Elements returns every registered element in registration order.
func (b *Builder) Elements() []Element {
	out := make([]Element, len(b.elems))
	copy(out, b.elems)
	return out
}

// Visit returns the memoized result for h, calling thunk only the first
// time h is seen.
func (b *Builder) Visit(h Handle, thunk func() ugen.InLike) ugen.InLike {
	b.check()
	if res, ok := b.memo[h]; ok {
		return res
	}
	if b.active[h] {
		Fail(ErrCycle, "element %d depends on its own expansion", h)
	}
	b.active[h] = true
	defer delete(b.active, h)
	res := thunk()
	b.memo[h] = res
	return res
}

// Expand expands the element registered under h, at most once per build.
func (b *Builder) Expand(h Handle) ugen.InLike {
	e := b.Element(h)
	if e == nil {
		Fail(ErrArgument, "unknown element handle %d", h)
	}
	return b.Visit(h, func() ugen.InLike { return e.Lower(b) })
}

// Visited reports whether h has been expanded.
func (b *Builder) Visited(h Handle) bool {
	_, ok := b.memo[h]
	return ok
}

// Shared returns the per-build value stored under key, creating it with
// init on first use. It backs build-wide singletons such as allocators.
func Shared[T any](b *Builder, key any, init func() T) T {
	b.check()
	if v, ok := b.shared[key]; ok {
		return v.(T)
	}
	v := init()
	b.shared[key] = v
	return v
}

// AddUGen appends u to the node list.
func (b *Builder) AddUGen(u *ugen.UGen) {
	b.check()
	b.nodes = append(b.nodes, u)
}

// Prepend puts u in front of every other node. The most recently prepended
// node ends up first.
func (b *Builder) Prepend(u *ugen.UGen) {
	b.check()
	b.prepended = append(b.prepended, u)
}

// NumNodes returns the number of nodes added so far.
func (b *Builder) NumNodes() int { return len(b.nodes) + len(b.prepended) }

// AllocControls reserves len(values) contiguous control slots under name and
// returns their offset.
func (b *Builder) AllocControls(name string, values []float32) int {
	b.check()
	if name == "" {
		Fail(ErrArgument, "control bank needs a name")
	}
	if len(values) == 0 {
		Fail(ErrArgument, "control %q has no slots", name)
	}
	for _, cn := range b.controlNames {
		if cn.Name == name {
			Fail(ErrDuplicateControl, "control %q", name)
		}
	}
	offset := len(b.controls)
	b.controls = append(b.controls, values...)
	b.controlNames = append(b.controlNames, ugen.ControlName{Name: name, Index: offset, Count: len(values)})
	return offset
}

// NumControls returns the number of allocated control slots.
func (b *Builder) NumControls() int { return len(b.controls) }

// OnFinalize registers fn to run once every element has been expanded.
// Hooks run in registration order; a hook may register further hooks.
func (b *Builder) OnFinalize(fn func()) {
	b.check()
	b.hooks = append(b.hooks, fn)
}
