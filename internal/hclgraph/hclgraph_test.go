package hclgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/element"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
	"github.com/zclconf/go-cty/cty"
)

const toneHCL = `
graph "tone" {
  control "freq" {
    rate   = "kr"
    values = [440]
  }

  signals {
    amp = mul(signal.osc, 0.2)
    osc = ugen("SinOsc", "ar", control.freq)
  }

  out {
    bus    = 0
    signal = [signal.amp, signal.amp]
  }
}
`

// parseOne is a test helper returning the single graph of src.
func parseOne(t *testing.T, src string) *Graph {
	t.Helper()
	graphs, err := NewLoader().Parse("test.hcl", []byte(src))
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	return graphs[0]
}

func compile(t *testing.T, g *Graph) (*ugen.Graph, error) {
	t.Helper()
	ctx := t.Context()
	return builder.Build(ctx, func(b *builder.Builder) error { return g.Compile(ctx, b) })
}

func nodeNames(g *ugen.Graph) []string {
	names := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		names[i] = n.Name
	}
	return names
}

func TestCompile_Tone(t *testing.T) {
	// --- Arrange ---
	g := parseOne(t, toneHCL)

	// --- Act ---
	out, err := compile(t, g)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"Control", "SinOsc", "BinaryOpUGen", "Out"}, nodeNames(out))
	assert.Equal(t, []float32{440}, out.Controls)

	outNode := out.Nodes[3]
	assert.Equal(t, rate.Audio, outNode.Rate)
	require.Len(t, outNode.Inputs, 3)
	assert.Equal(t, ugen.ConstantRef(0), outNode.Inputs[0])
	assert.Equal(t, ugen.Ref{Node: 2, Slot: 0}, outNode.Inputs[1])
	assert.Equal(t, outNode.Inputs[1], outNode.Inputs[2], "the shared signal expands once")
}

func TestCompile_ControlsAndFunctions(t *testing.T) {
	g := parseOne(t, `
graph "voice" {
  control "gate" {
    values  = [1]
    trigger = true
  }
  control "pan" {
    rate   = "ir"
    values = [0, 0.5]
  }

  signals {
    env   = ugen("Line", "kr", 1, 0, 2)
    noise = mul(ugen("WhiteNoise", "ar"), signal.env)
    voice = mix([signal.noise, neg(signal.noise)])
    free  = ugen("FreeSelf", "kr", done(signal.env))
  }

  out {
    bus    = control.pan
    signal = channel([signal.voice], 3)
  }
}
`)

	out, err := compile(t, g)

	require.NoError(t, err)
	gate, ok := out.Control("gate")
	require.True(t, ok)
	assert.Equal(t, 1, gate.Count)
	pan, ok := out.Control("pan")
	require.True(t, ok)
	assert.Equal(t, 2, pan.Count)
	assert.Equal(t, 1, out.CountByName("FreeSelf"))
	assert.Equal(t, 1, out.CountByName("Done"))
	assert.Equal(t, 1, out.CountByName("WhiteNoise"))
	assert.Equal(t, 2, out.CountByName("Out"), "the two-slot pan control fans out the Out node")
}

func TestCompile_FoldsConstants(t *testing.T) {
	g := parseOne(t, `
graph "folded" {
  signals {
    level = add(mul(2, 3), neg(1))
  }
  out {
    rate   = "kr"
    bus    = 0
    signal = signal.level
  }
}
`)

	out, err := compile(t, g)

	require.NoError(t, err)
	require.Equal(t, []string{"DC", "Out"}, nodeNames(out), "a control-rate Out lifts its scalar input")
	assert.Equal(t, []ugen.Ref{ugen.ConstantRef(5)}, out.Nodes[0].Inputs)
	assert.Equal(t, ugen.Ref{Node: 0, Slot: 0}, out.Nodes[1].Inputs[1])
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		signals string
		out     string
		wantErr string
		is      error
	}{
		{
			name:    "reference cycle",
			signals: `a = add(signal.b, 1)` + "\n" + `b = mul(signal.a, 2)`,
			out:     `signal.a`,
			wantErr: "signal references: cycle detected: a -> b -> a",
		},
		{
			name:    "self reference",
			signals: `a = add(signal.a, 1)`,
			out:     `signal.a`,
			wantErr: "self-referential edge not allowed: a -> a",
		},
		{
			name:    "undefined signal",
			signals: `a = add(signal.missing, 1)`,
			out:     `signal.a`,
			wantErr: `references undefined signal "missing"`,
		},
		{
			name:    "unknown function",
			signals: `a = reverb(1)`,
			out:     `signal.a`,
			wantErr: `calls unknown function "reverb"`,
		},
		{
			name:    "unknown unit generator",
			signals: `a = ugen("Reverb", "ar")`,
			out:     `signal.a`,
			wantErr: `unknown unit generator "Reverb"`,
		},
		{
			name:    "unsupported rate in a function call",
			signals: `a = ugen("SinOsc", "dr")`,
			out:     `signal.a`,
			is:      builder.ErrRate,
		},
		{
			name:    "demand signal to an audio bus",
			signals: `a = ugen("Dseq", "dr", 1, [1, 2])`,
			out:     `signal.a`,
			is:      builder.ErrRate,
		},
		{
			name:    "string signal",
			signals: `a = "loud"`,
			out:     `signal.a`,
			wantErr: "cannot use a value of type string as a signal",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			g := parseOne(t, "graph \"broken\" {\n  signals {\n"+tc.signals+"\n  }\n  out {\n    bus = 0\n    signal = "+tc.out+"\n  }\n}\n")

			// --- Act ---
			_, err := compile(t, g)

			// --- Assert ---
			require.Error(t, err)
			if tc.wantErr != "" {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestCompile_DuplicateControl(t *testing.T) {
	g := parseOne(t, `
graph "dup" {
  control "freq" { values = [1] }
  control "freq" { values = [2] }
  out {
    bus    = 0
    signal = ugen("SinOsc", "ar", control.freq)
  }
}
`)

	_, err := compile(t, g)

	assert.ErrorIs(t, err, builder.ErrDuplicateControl)
}

func TestLoader_Parse(t *testing.T) {
	t.Run("duplicate signals block", func(t *testing.T) {
		_, err := NewLoader().Parse("dup.hcl", []byte(`
graph "g" {
  signals { a = 1 }
  signals { b = 2 }
}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `Duplicate "signals" block`)
	})

	t.Run("duplicate graph names", func(t *testing.T) {
		_, err := NewLoader().Parse("dup.hcl", []byte(`
graph "g" {}
graph "g" {}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `graph "g" defined in both`)
	})

	t.Run("unexpected top-level attribute", func(t *testing.T) {
		_, err := NewLoader().Parse("bad.hcl", []byte(`volume = 11`))
		require.Error(t, err)
	})

	t.Run("signal names", func(t *testing.T) {
		g := parseOne(t, toneHCL)
		assert.Equal(t, []string{"amp", "osc"}, g.Signals())
		assert.Equal(t, "test.hcl", g.File)
	})
}

func TestLoader_Load(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tone.hcl"), []byte(toneHCL), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "more"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "more", "empty.hcl"), []byte(`graph "empty" {}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not a graph"), 0o644))

	// --- Act ---
	graphs, err := NewLoader().Load(t.Context(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	assert.Equal(t, "empty", graphs[0].Name)
	assert.Equal(t, "tone", graphs[1].Name)
	assert.Equal(t, filepath.Join(dir, "tone.hcl"), graphs[1].File)
}

func TestToElement(t *testing.T) {
	osc := element.Constant(3)

	testCases := []struct {
		name    string
		in      cty.Value
		want    element.GE
		wantErr bool
	}{
		{name: "number", in: cty.NumberFloatVal(0.5), want: element.Constant(0.5)},
		{name: "true", in: cty.True, want: element.Constant(1)},
		{name: "capsule", in: ElementVal(osc), want: osc},
		{
			name: "tuple",
			in:   cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.TupleVal([]cty.Value{cty.NumberIntVal(2)})}),
			want: element.Seq(element.Constant(1), element.Values(2)),
		},
		{name: "null", in: cty.NullVal(cty.Number), wantErr: true},
		{name: "unknown", in: cty.UnknownVal(cty.Number), wantErr: true},
		{name: "object", in: cty.EmptyObjectVal, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToElement(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
