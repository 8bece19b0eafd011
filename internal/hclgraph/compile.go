// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/ctxlog"
	"github.com/vk/synthgraph/internal/dag"
	"github.com/vk/synthgraph/internal/element"
	"github.com/vk/synthgraph/internal/hclexpr"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Compile registers the elements of g with b: its controls, every signal
// in dependency order, and one Out element per out block. It is meant to be
// the callback of builder.Build.
func (g *Graph) Compile(ctx context.Context, b *builder.Builder) error {
	logger := ctxlog.FromContext(ctx).With("graph", g.Name)

	controls := make(map[string]cty.Value, len(g.Controls))
	for _, c := range g.Controls {
		e, err := c.declare(b)
		if err != nil {
			return fmt.Errorf("graph %q: control %q: %w", g.Name, c.Name, err)
		}
		controls[c.Name] = ElementVal(e)
	}

	funcs := Functions(b)
	order, err := g.evaluationOrder(funcs)
	if err != nil {
		return fmt.Errorf("graph %q: %w", g.Name, err)
	}

	signals := make(map[string]cty.Value, len(order))
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"control": cty.ObjectVal(controls)},
		Functions: funcs,
	}
	for _, name := range order {
		evalCtx.Variables["signal"] = cty.ObjectVal(signals)
		v, diags := g.signals[name].Expr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("graph %q: signal %q: %w", g.Name, name, diagError(diags))
		}
		signals[name] = v
	}
	evalCtx.Variables["signal"] = cty.ObjectVal(signals)

	for i, o := range g.Outs {
		if err := o.declare(b, evalCtx); err != nil {
			return fmt.Errorf("graph %q: out %d: %w", g.Name, i, err)
		}
	}
	if len(g.Outs) == 0 {
		logger.Warn("Graph has no out block; every node will be pruned.")
	}
	logger.Debug("Compiled graph definition.", "controls", len(controls), "signals", len(order), "outs", len(g.Outs))
	return nil
}

func (c *Control) declare(b *builder.Builder) (element.GE, error) {
	r := rate.Control
	if c.Rate != nil {
		var err error
		if r, err = rate.Parse(*c.Rate); err != nil {
			return nil, err
		}
	}
	values := make([]float32, len(c.Values))
	for i, v := range c.Values {
		values[i] = float32(v)
	}
	trig := c.Trigger != nil && *c.Trigger

	var e element.GE
	err := builder.Try(func() {
		if trig {
			e = element.NewTrigControl(b, c.Name, values...)
			return
		}
		e = element.NewControl(b, c.Name, r, values...)
	})
	return e, err
}

func (o *Out) declare(b *builder.Builder, evalCtx *hcl.EvalContext) error {
	r := rate.Audio
	if o.Rate != nil {
		var err error
		if r, err = rate.Parse(*o.Rate); err != nil {
			return err
		}
	}
	bus, err := evalElement(o.Bus, evalCtx)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	sig, err := evalElement(o.Signal, evalCtx)
	if err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	return builder.Try(func() { element.NewOp(b, opcode.Out, r, bus, sig) })
}

func evalElement(expr hcl.Expression, evalCtx *hcl.EvalContext) (element.GE, error) {
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}
	return ToElement(v)
}

// evaluationOrder sorts the signals so that every signal follows the
// signals it references. Unknown functions, undefined signals and
// reference cycles are errors.
func (g *Graph) evaluationOrder(funcs map[string]function.Function) ([]string, error) {
	deps := dag.New()
	for _, name := range g.Signals() {
		deps.AddNode(name)
	}
	for _, name := range g.Signals() {
		attr := g.signals[name]
		refs := hclexpr.NewContainer(attr.Expr)
		for _, fn := range refs.CalledFunctions() {
			if _, ok := funcs[fn]; !ok {
				return nil, fmt.Errorf("%s: signal %q calls unknown function %q", attr.Range, name, fn)
			}
		}
		for _, dep := range refs.Attributes("signal") {
			if _, ok := g.signals[dep]; !ok {
				return nil, fmt.Errorf("%s: signal %q references undefined signal %q", attr.Range, name, dep)
			}
			if err := deps.AddEdge(dep, name); err != nil {
				return nil, fmt.Errorf("%s: signal %q: %w", attr.Range, name, err)
			}
		}
	}
	order, err := deps.Sort()
	if err != nil {
		return nil, fmt.Errorf("signal references: %w", err)
	}
	return order, nil
}

// diagError returns the error a failing function call raised, so that
// construction errors stay visible to errors.Is and errors.As. Other
// diagnostics are returned as they are.
func diagError(diags hcl.Diagnostics) error {
	for _, d := range diags {
		extra, ok := hcl.DiagnosticExtra[hclsyntax.FunctionCallDiagExtra](d)
		if !ok || extra.FunctionCallError() == nil {
			continue
		}
		where := ""
		if d.Subject != nil {
			where = d.Subject.String() + ": "
		}
		return fmt.Errorf("%s%s(): %w", where, extra.CalledFunctionName(), extra.FunctionCallError())
	}
	return diags
}
