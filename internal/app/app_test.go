package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synthgraph/internal/builder"
	"github.com/vk/synthgraph/internal/ugen"
	"gopkg.in/yaml.v3"
)

const definitions = `
graph "tone" {
  control "freq" {
    values = [440]
  }
  signals {
    osc = ugen("SinOsc", "ar", control.freq)
  }
  out {
    bus    = 0
    signal = mul(signal.osc, 0.1)
  }
}

graph "noise" {
  signals {
    n = ugen("WhiteNoise", "ar")
  }
  out {
    bus    = 0
    signal = [signal.n, signal.n]
  }
}
`

func writeDefinitions(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(src), 0o644))
	return dir
}

func TestApp_CompileWritesOutputs(t *testing.T) {
	// --- Arrange ---
	outDir := t.TempDir()
	testApp, logs := SetupAppTest(t, Config{
		GraphPath: writeDefinitions(t, definitions),
		OutputDir: outDir,
		Format:    FormatBoth,
		Workers:   2,
	})

	// --- Act ---
	results, err := testApp.Run(t.Context())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "tone", results[0].Name)
	assert.Equal(t, "noise", results[1].Name)
	assert.Equal(t, []string{
		filepath.Join(outDir, "noise.ugraph"),
		filepath.Join(outDir, "noise.yaml"),
	}, results[1].Files)

	f, err := os.Open(filepath.Join(outDir, "tone.ugraph"))
	require.NoError(t, err)
	defer f.Close()
	g, err := ugen.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 1, g.CountByName("SinOsc"))
	assert.Equal(t, 1, g.CountByName("Out"))
	assert.Equal(t, []float32{440}, g.Controls)

	raw, err := os.ReadFile(filepath.Join(outDir, "noise.yaml"))
	require.NoError(t, err)
	var doc dumpDoc
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, "noise", doc.Name)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, []string{"0", "@0[0]", "@0[0]"}, doc.Nodes[1].Inputs)

	assert.Contains(t, logs.String(), "Graph compiled.")
}

func TestApp_DecodeMatchesCompiledDump(t *testing.T) {
	// --- Arrange ---
	compiled := t.TempDir()
	compileApp, _ := SetupAppTest(t, Config{
		GraphPath: writeDefinitions(t, definitions),
		OutputDir: compiled,
		Format:    FormatBoth,
	})
	_, err := compileApp.Run(t.Context())
	require.NoError(t, err)

	decoded := t.TempDir()
	decodeApp, _ := SetupAppTest(t, Config{
		GraphPath: compiled,
		OutputDir: decoded,
		Decode:    true,
	})

	// --- Act ---
	results, err := decodeApp.Run(t.Context())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, name := range []string{"noise", "tone"} {
		want, err := os.ReadFile(filepath.Join(compiled, name+YAMLExtension))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(decoded, name+YAMLExtension))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}
}

func TestApp_CompileFailure(t *testing.T) {
	testApp, _ := SetupAppTest(t, Config{
		GraphPath: writeDefinitions(t, `
graph "bad" {
  out {
    bus    = 0
    signal = ugen("Dseq", "dr", 1, [1, 2])
  }
}
`),
		OutputDir: t.TempDir(),
	})

	_, err := testApp.Run(t.Context())

	require.Error(t, err)
	assert.ErrorIs(t, err, builder.ErrRate)
	assert.Contains(t, err.Error(), `failed to compile graph "bad"`)
}

func TestApp_NothingToDo(t *testing.T) {
	testApp, logs := SetupAppTest(t, Config{GraphPath: t.TempDir(), OutputDir: t.TempDir()})

	results, err := testApp.Run(t.Context())

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Contains(t, logs.String(), "No graph definitions found.")
}

func TestApp_DecodeRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.ugraph"), []byte("not a graph"), 0o644))
	testApp, _ := SetupAppTest(t, Config{GraphPath: dir, OutputDir: t.TempDir(), Decode: true})

	_, err := testApp.Run(t.Context())

	assert.ErrorContains(t, err, "failed to decode")
}
