package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
	"gopkg.in/yaml.v3"
)

func TestWriteYAML(t *testing.T) {
	// --- Arrange ---
	g := &ugen.Graph{
		Nodes: []ugen.Node{
			{Name: "Control", Rate: rate.Control, Outputs: []rate.Rate{rate.Control}},
			{Name: "Out", Rate: rate.Audio, Inputs: []ugen.Ref{ugen.ConstantRef(0), {Node: 0}}, Flags: ugen.SideEffect},
		},
		Controls:     []float32{440},
		ControlNames: []ugen.ControlName{{Name: "freq", Index: 0, Count: 1}},
	}
	var buf bytes.Buffer

	// --- Act ---
	err := writeYAML(&buf, "tone", g)

	// --- Assert ---
	require.NoError(t, err)
	var got dumpDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, dumpDoc{
		Name:     "tone",
		Controls: []dumpControl{{Name: "freq", Index: 0, Values: []float32{440}}},
		Nodes: []dumpNode{
			{Index: 0, Name: "Control", Rate: rate.Control, Outputs: []rate.Rate{rate.Control}},
			{Index: 1, Name: "Out", Rate: rate.Audio, Inputs: []string{"0", "@0[0]"}, Flags: "side-effect"},
		},
	}, got)
	assert.Contains(t, buf.String(), "rate: audio")
}
