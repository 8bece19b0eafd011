// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package opcode declares the opcodes the graph library knows how to build:
// their names, supported rates, inputs, outputs, capability flags and rate
// policy. The declarations are pure data consumed by the element package.
package opcode

import (
	"fmt"
	"sort"

	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

// Input declares one argument of an opcode.
type Input struct {
	Name string
	// Default is used when the argument is omitted. Nil makes the argument
	// mandatory.
	Default *float32
	// Variadic inputs must be last. Their channels are flattened into the
	// node's input list instead of being multichannel-expanded.
	Variadic bool
}

// Spec describes one opcode.
type Spec struct {
	Name string
	// Rates lists the rates the opcode can run at.
	Rates []rate.Rate
	// Inputs in declaration order.
	Inputs []Input
	// NumOutputs is the fixed number of outputs.
	NumOutputs int
	Flags      ugen.Flags
	// RateInputs are the argument indices whose maximum rate becomes the
	// node rate when no rate is given. Empty means every argument.
	RateInputs []int
	// MatchRate lists argument indices converted to the node rate with
	// continuous-signal converters. For a variadic last argument the index
	// covers every flattened channel.
	MatchRate []int
	// Trigger lists argument indices converted with trigger converters.
	Trigger []int
}

// Supports reports whether the opcode can run at r.
func (s *Spec) Supports(r rate.Rate) bool {
	for _, x := range s.Rates {
		if x == r {
			return true
		}
	}
	return false
}

// Variadic reports whether the last input is variadic.
func (s *Spec) Variadic() bool {
	return len(s.Inputs) > 0 && s.Inputs[len(s.Inputs)-1].Variadic
}

// Input returns the index of the named input, or -1.
func (s *Spec) Input(name string) int {
	for i, in := range s.Inputs {
		if in.Name == name {
			return i
		}
	}
	return -1
}

func def(v float32) *float32 { return &v }

func in(name string) Input { return Input{Name: name} }
func opt(name string, v float32) Input { return Input{Name: name, Default: def(v)} }
func variadic(name string) Input { return Input{Name: name, Variadic: true} }

var (
	audioControl = []rate.Rate{rate.Audio, rate.Control}
	anyConcrete  = []rate.Rate{rate.Scalar, rate.Control, rate.Audio, rate.Demand}
)

// Opcodes declared by this package.
var (
	SinOsc = &Spec{Name: "SinOsc", Rates: audioControl, NumOutputs: 1,
		Inputs: []Input{opt("freq", 440), opt("phase", 0)}}
	Saw = &Spec{Name: "Saw", Rates: audioControl, NumOutputs: 1,
		Inputs: []Input{opt("freq", 440)}}
	Impulse = &Spec{Name: "Impulse", Rates: audioControl, NumOutputs: 1,
		Inputs: []Input{opt("freq", 440), opt("phase", 0)}}
	WhiteNoise = &Spec{Name: "WhiteNoise", Rates: audioControl, NumOutputs: 1,
		Flags: ugen.Individual}
	LPF = &Spec{Name: "LPF", Rates: audioControl, NumOutputs: 1,
		Inputs:    []Input{in("in"), opt("freq", 440)},
		MatchRate: []int{0}}
	Decay = &Spec{Name: "Decay", Rates: audioControl, NumOutputs: 1,
		Inputs:  []Input{opt("in", 0), opt("time", 1)},
		Trigger: []int{0}}
	Latch = &Spec{Name: "Latch", Rates: audioControl, NumOutputs: 1,
		Inputs:    []Input{opt("in", 0), opt("trig", 0)},
		MatchRate: []int{0}, Trigger: []int{1}}
	Pan2 = &Spec{Name: "Pan2", Rates: audioControl, NumOutputs: 2,
		Inputs:    []Input{in("in"), opt("pos", 0), opt("level", 1)},
		MatchRate: []int{0}}
	Line = &Spec{Name: "Line", Rates: audioControl, NumOutputs: 1, Flags: ugen.DoneFlag,
		Inputs: []Input{opt("start", 0), opt("end", 1), opt("dur", 1), opt("doneAction", 0)}}
	Out = &Spec{Name: "Out", Rates: []rate.Rate{rate.Audio, rate.Control}, NumOutputs: 0, Flags: ugen.SideEffect,
		Inputs:    []Input{in("bus"), variadic("in")},
		MatchRate: []int{1}}
	FreeSelf = &Spec{Name: "FreeSelf", Rates: []rate.Rate{rate.Control}, NumOutputs: 1, Flags: ugen.SideEffect,
		Inputs:  []Input{in("trig")},
		Trigger: []int{0}}
	Done = &Spec{Name: "Done", Rates: []rate.Rate{rate.Control}, NumOutputs: 1,
		Inputs: []Input{in("src")}}
	Dseq = &Spec{Name: "Dseq", Rates: []rate.Rate{rate.Demand}, NumOutputs: 1,
		Inputs: []Input{opt("repeats", 1), variadic("seq")}}
	Demand = &Spec{Name: "Demand", Rates: audioControl, NumOutputs: 1,
		Inputs:     []Input{in("trig"), opt("reset", 0), in("demand")},
		RateInputs: []int{0},
		Trigger:    []int{0}}

	BinaryOpUGen = &Spec{Name: "BinaryOpUGen", Rates: anyConcrete, NumOutputs: 1,
		Inputs: []Input{in("a"), in("b")}}
	UnaryOpUGen = &Spec{Name: "UnaryOpUGen", Rates: anyConcrete, NumOutputs: 1,
		Inputs: []Input{in("a")}}

	// MaxLocalBufs is the allocator node for LocalBuf; the element package
	// creates it once per build and prepends it.
	MaxLocalBufs = &Spec{Name: "MaxLocalBufs", Rates: []rate.Rate{rate.Scalar}, NumOutputs: 0,
		Flags:  ugen.SideEffect,
		Inputs: []Input{in("count")}}
	LocalBuf = &Spec{Name: "LocalBuf", Rates: []rate.Rate{rate.Scalar}, NumOutputs: 1,
		Flags:  ugen.Individual,
		Inputs: []Input{opt("numChannels", 1), opt("numFrames", 1)}}
)

// Parameter banks and rate converters. The element package creates these
// nodes directly; they are not looked up by name.
const (
	ControlName      = "Control"
	AudioControlName = "AudioControl"
	TrigControlName  = "TrigControl"

	DCName  = "DC"
	K2AName = "K2A"
	A2KName = "A2K"
	T2AName = "T2A"
	T2KName = "T2K"
)

var catalog = map[string]*Spec{}

func init() {
	for _, s := range []*Spec{
		SinOsc, Saw, Impulse, WhiteNoise, LPF, Decay, Latch, Pan2, Line, Out,
		FreeSelf, Done, Dseq, Demand, BinaryOpUGen, UnaryOpUGen, MaxLocalBufs, LocalBuf,
	} {
		if _, dup := catalog[s.Name]; dup {
			panic(fmt.Sprintf("opcode %q declared twice", s.Name))
		}
		catalog[s.Name] = s
	}
}

// Lookup returns the declaration of the named opcode.
func Lookup(name string) (*Spec, bool) {
	s, ok := catalog[name]
	return s, ok
}

// Names returns every declared opcode name in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
