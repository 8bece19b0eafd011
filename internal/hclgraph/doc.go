// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

/*
Package hclgraph reads synth graph definitions written in HCL and compiles
them into graph elements.

A definition file holds any number of graph blocks:

	graph "tone" {
	  control "freq" {
	    rate   = "kr"
	    values = [440]
	  }

	  signals {
	    osc = ugen("SinOsc", "ar", control.freq)
	    amp = mul(signal.osc, 0.2)
	  }

	  out {
	    bus    = 0
	    signal = [signal.amp, signal.amp]
	  }
	}

Signals may reference each other in any order; they are evaluated in
dependency order and a reference cycle is an error. Elements travel through
HCL evaluation as capsule values, so arithmetic is spelled with the function
library (add, mul, ...) rather than HCL operators. Numbers become constants
and tuples become multichannel groups.
*/
package hclgraph
