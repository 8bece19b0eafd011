package hclexpr_test

import (
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/require"
	"github.com/vk/synthgraph/internal/hclexpr"
)

// parseExpr is a test helper to quickly get an hcl.Expression from a string.
func parseExpr(t *testing.T, exprStr string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(exprStr), "test.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), "Expression parsing failed: %s", diags.Error())
	return expr
}

func keys(refs []hcl.Traversal) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = hclexpr.TraversalKey(r)
	}
	return out
}

func TestContainer_AddAndExtract(t *testing.T) {
	c := hclexpr.NewContainer(
		parseExpr(t, `ugen("SinOsc", "ar", control.freq)`),
		parseExpr(t, `signal.osc * 0.5`),
		parseExpr(t, `mix([signal.osc, signal.noise])`),
		parseExpr(t, `signal.osc`), // Duplicate reference
	)

	require.Equal(t, []string{"mix", "ugen"}, c.CalledFunctions())
	require.Equal(t, []string{"control.freq", "signal.noise", "signal.osc"}, keys(c.References()))
	require.Equal(t, []string{"noise", "osc"}, c.Attributes("signal"))
	require.Equal(t, []string{"freq"}, c.Attributes("control"))
	require.Empty(t, c.Attributes("missing"))
}

func TestContainer_AddAfterExtract(t *testing.T) {
	c := hclexpr.NewContainer(parseExpr(t, `signal.first`))
	require.Len(t, c.References(), 1)

	c.Add(parseExpr(t, `signal.second`), parseExpr(t, `neg(1)`))

	require.Equal(t, []string{"neg"}, c.CalledFunctions())
	require.Equal(t, []string{"signal.first", "signal.second"}, keys(c.References()))
}

func TestContainer_ConcurrentAccess(t *testing.T) {
	c := hclexpr.NewContainer(
		parseExpr(t, `signal.a`),
		parseExpr(t, `signal.b`),
		parseExpr(t, `add(1, 2)`),
	)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				require.Len(t, c.References(), 2)
			} else {
				require.Len(t, c.CalledFunctions(), 1)
			}
		}()
	}
	wg.Wait()
}

func TestContainer_EdgeCases(t *testing.T) {
	t.Run("Empty Container", func(t *testing.T) {
		c := hclexpr.NewContainer()
		require.Empty(t, c.References())
		require.Empty(t, c.CalledFunctions())
	})

	t.Run("Adding Nil Expressions", func(t *testing.T) {
		c := hclexpr.NewContainer()
		c.Add(nil, parseExpr(t, `signal.a`), nil)
		require.Equal(t, []string{"signal.a"}, keys(c.References()))
	})
}

func TestFindUniqueBlock(t *testing.T) {
	blocks := hcl.Blocks{{Type: "signals"}, {Type: "out"}, {Type: "signals"}}

	found, diags := hclexpr.FindUniqueBlock(blocks, "signals")
	require.NotNil(t, found)
	require.True(t, diags.HasErrors())

	found, diags = hclexpr.FindUniqueBlock(blocks, "control")
	require.Nil(t, found)
	require.False(t, diags.HasErrors())
}
