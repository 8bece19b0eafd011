// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hclgraph

import (
	"fmt"

	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/element"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

func signalParam(name string) function.Parameter {
	return function.Parameter{Name: name, Type: cty.DynamicPseudoType}
}

func stringParam(name string) function.Parameter {
	return function.Parameter{Name: name, Type: cty.String}
}

// elementFunc builds a function returning an element. Construction failures
// raised by impl come back as the call's error.
func elementFunc(params []function.Parameter, varParam *function.Parameter, impl func(args []cty.Value) (element.GE, error)) function.Function {
	return function.New(&function.Spec{
		Params:   params,
		VarParam: varParam,
		Type:     function.StaticReturnType(ElementType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			var e element.GE
			var implErr error
			if err := builder.Try(func() { e, implErr = impl(args) }); err != nil {
				return cty.NilVal, err
			}
			if implErr != nil {
				return cty.NilVal, implErr
			}
			return ElementVal(e), nil
		},
	})
}

func elementsOf(args []cty.Value) ([]element.GE, error) {
	out := make([]element.GE, len(args))
	for i, a := range args {
		e, err := ToElement(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = e
	}
	return out, nil
}

func binaryFunc(b *builder.Builder, op element.BinaryOpID) function.Function {
	return elementFunc([]function.Parameter{signalParam("a"), signalParam("b")}, nil,
		func(args []cty.Value) (element.GE, error) {
			in, err := elementsOf(args)
			if err != nil {
				return nil, err
			}
			return element.Binary(b, op, in[0], in[1]), nil
		})
}

func unaryFunc(b *builder.Builder, op element.UnaryOpID) function.Function {
	return elementFunc([]function.Parameter{signalParam("a")}, nil,
		func(args []cty.Value) (element.GE, error) {
			in, err := elementsOf(args)
			if err != nil {
				return nil, err
			}
			return element.Unary(b, op, in[0]), nil
		})
}

func singleFunc(fn func(src element.GE) element.GE) function.Function {
	return elementFunc([]function.Parameter{signalParam("signal")}, nil,
		func(args []cty.Value) (element.GE, error) {
			src, err := ToElement(args[0])
			if err != nil {
				return nil, err
			}
			return fn(src), nil
		})
}

// Functions returns the function library that creates elements in b.
func Functions(b *builder.Builder) map[string]function.Function {
	variadic := signalParam("args")
	return map[string]function.Function{
		"ugen": elementFunc([]function.Parameter{stringParam("name"), stringParam("rate")}, &variadic,
			func(args []cty.Value) (element.GE, error) {
				spec, ok := opcode.Lookup(args[0].AsString())
				if !ok {
					return nil, fmt.Errorf("unknown unit generator %q", args[0].AsString())
				}
				r, err := rate.Parse(args[1].AsString())
				if err != nil {
					return nil, err
				}
				in, err := elementsOf(args[2:])
				if err != nil {
					return nil, err
				}
				return element.NewOp(b, spec, r, in...), nil
			}),
		"binary": elementFunc([]function.Parameter{stringParam("op"), signalParam("a"), signalParam("b")}, nil,
			func(args []cty.Value) (element.GE, error) {
				op, ok := element.ParseBinaryOp(args[0].AsString())
				if !ok {
					return nil, fmt.Errorf("unknown binary operator %q", args[0].AsString())
				}
				in, err := elementsOf(args[1:])
				if err != nil {
					return nil, err
				}
				return element.Binary(b, op, in[0], in[1]), nil
			}),
		"unary": elementFunc([]function.Parameter{stringParam("op"), signalParam("a")}, nil,
			func(args []cty.Value) (element.GE, error) {
				op, ok := element.ParseUnaryOp(args[0].AsString())
				if !ok {
					return nil, fmt.Errorf("unknown unary operator %q", args[0].AsString())
				}
				in, err := elementsOf(args[1:])
				if err != nil {
					return nil, err
				}
				return element.Unary(b, op, in[0]), nil
			}),
		"add": binaryFunc(b, element.Plus),
		"sub": binaryFunc(b, element.Minus),
		"mul": binaryFunc(b, element.Times),
		"div": binaryFunc(b, element.Div),
		"min": binaryFunc(b, element.Min),
		"max": binaryFunc(b, element.Max),
		"pow": binaryFunc(b, element.Pow),
		"neg": unaryFunc(b, element.Neg),
		"abs": unaryFunc(b, element.Abs),
		"channel": elementFunc([]function.Parameter{signalParam("signal"), {Name: "index", Type: cty.Number}}, nil,
			func(args []cty.Value) (element.GE, error) {
				src, err := ToElement(args[0])
				if err != nil {
					return nil, err
				}
				i, err := toInt(args[1])
				if err != nil {
					return nil, err
				}
				return element.NewChannelProxy(b, src, i), nil
			}),
		"mix":     singleFunc(func(src element.GE) element.GE { return element.NewMix(b, src) }),
		"flatten": singleFunc(func(src element.GE) element.GE { return element.NewFlatten(b, src) }),
		"done":    singleFunc(func(src element.GE) element.GE { return element.NewDone(b, src) }),
		"localbuf": elementFunc([]function.Parameter{signalParam("channels"), signalParam("frames")}, nil,
			func(args []cty.Value) (element.GE, error) {
				in, err := elementsOf(args)
				if err != nil {
					return nil, err
				}
				return element.NewLocalBuf(b, in[0], in[1]), nil
			}),
	}
}
