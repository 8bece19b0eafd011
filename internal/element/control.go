// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package element

import (
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/opcode"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// ControlBank declares named, externally settable parameter slots. It
// expands to one parameter node with one output per slot.
type ControlBank struct {
	lazy
	Name    string
	R       rate.Rate
	Values  []float32
	Trigger bool
}

// NewControl registers a scalar, control or audio rate parameter bank
// initialized to values.
func NewControl(b *builder.Builder, name string, r rate.Rate, values ...float32) *ControlBank {
	switch r {
	case rate.Scalar, rate.Control, rate.Audio:
	default:
		builder.Fail(builder.ErrRate, "control %q cannot run at %s", name, r)
	}
	return newControl(b, name, r, values, false)
}

// NewAudioControl registers an audio-rate parameter bank.
func NewAudioControl(b *builder.Builder, name string, values ...float32) *ControlBank {
	return NewControl(b, name, rate.Audio, values...)
}

// NewTrigControl registers a control-rate trigger parameter bank.
func NewTrigControl(b *builder.Builder, name string, values ...float32) *ControlBank {
	return newControl(b, name, rate.Control, values, true)
}

func newControl(b *builder.Builder, name string, r rate.Rate, values []float32, trig bool) *ControlBank {
	if len(values) == 0 {
		builder.Fail(builder.ErrArgument, "control %q needs at least one value", name)
	}
	if trig && r != rate.Control {
		builder.Fail(builder.ErrRate, "trigger control %q must run at control rate", name)
	}
	c := &ControlBank{Name: name, R: r, Values: append([]float32(nil), values...), Trigger: trig}
	c.register(b, c)
	return c
}

func (c *ControlBank) Rate() rate.Rate { return c.R }

func (c *ControlBank) opName() string {
	switch {
	case c.Trigger:
		return opcode.TrigControlName
	case c.R == rate.Audio:
		return opcode.AudioControlName
	}
	return opcode.ControlName
}

// Lower allocates the slots and prepends the parameter node. The node's
// special index is the offset of the bank in the control vector.
func (c *ControlBank) Lower(b *builder.Builder) ugen.InLike {
	offset := b.AllocControls(c.Name, c.Values)
	u := ugen.New(c.opName(), c.R, len(c.Values), nil, 0)
	u.SpecialIndex = offset
	b.Prepend(u)
	return u.Result()
}
