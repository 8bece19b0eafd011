// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package hclexpr collects HCL expressions and reports what they depend on:
// the variable traversals they read and the functions they call.
package hclexpr

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
)

// Container gathers expressions and caches their analysis. It is safe for
// concurrent use.
type Container struct {
	mu          sync.Mutex
	expressions []hcl.Expression
	analyzed    bool

	references      []hcl.Traversal
	calledFunctions []string
}

// NewContainer creates a new, empty expression container.
func NewContainer(exprs ...hcl.Expression) *Container {
	c := &Container{}
	c.Add(exprs...)
	return c
}

// Add adds expressions for analysis. Nil expressions are ignored.
func (c *Container) Add(exprs ...hcl.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, expr := range exprs {
		if expr != nil {
			c.expressions = append(c.expressions, expr)
			c.analyzed = false
		}
	}
}

func (c *Container) analyze() {
	if c.analyzed {
		return
	}
	c.references, c.calledFunctions = extractReferencesAndFunctions(c.expressions...)
	c.analyzed = true
}

// References returns every unique variable traversal, sorted by key.
func (c *Container) References() []hcl.Traversal {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyze()
	return c.references
}

// CalledFunctions returns every unique function name, sorted.
func (c *Container) CalledFunctions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyze()
	return c.calledFunctions
}

// Attributes returns the unique attribute names read under root, in sorted
// order. For `signal.osc * signal.env` and root "signal" it returns
// ["env", "osc"].
func (c *Container) Attributes(root string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, t := range c.References() {
		if t.RootName() != root || len(t) < 2 {
			continue
		}
		attr, ok := t[1].(hcl.TraverseAttr)
		if !ok || seen[attr.Name] {
			continue
		}
		seen[attr.Name] = true
		names = append(names, attr.Name)
	}
	return names
}
