// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

/*
Package builder holds the mutable context of a single graph build. Every
graph element registers with exactly one Builder and is expanded through it;
the Builder turns the expanded element tree into a flat, ordered ugen.Graph.

A build is a multi-phase process:

 1. Registration: element constructors call Register and receive a stable
    integer Handle into the builder's element arena.

 2. Expansion: Visit memoizes the expansion of each handle, so an element
    is expanded at most once no matter how many consumers reference it.
    Expansion appends IR nodes with AddUGen, or puts allocator-style nodes
    at the front with Prepend, and reserves control slots with
    AllocControls.

 3. Finalization: every registered but unvisited element is forced in
    registration order, finalize hooks run, nodes that no side-effecting
    root can reach are pruned, structurally identical pure nodes are
    optionally merged, and the remaining nodes are indexed and checked for
    acyclicity.

Construction failures deep inside expansion are raised by panicking with a
*ConstructionError. Build and Finalize recover exactly that type and return
it as an error; the builder is closed and its state discarded either way.
*/
package builder
