package ugen

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synthgraph/internal/codec"
	"github.com/vk/synthgraph/internal/rate"
)

func TestNewGroup_NeverWrapsASingleGroup(t *testing.T) {
	inner := NewGroup(Constant(1), Constant(2))
	outer := NewGroup(inner)

	assert.Equal(t, 2, outer.Len())
	_, nested := outer.At(0).(Group)
	assert.False(t, nested, "a single nested group must be collapsed")
}

func TestUnbubble(t *testing.T) {
	single := NewGroup(Constant(3))
	assert.Equal(t, Constant(3), single.Unbubble())

	deep := NewGroup(NewGroup(Constant(1), Constant(2)), Constant(3))
	assert.Equal(t, deep, deep.Unbubble())

	empty := NewGroup()
	assert.Equal(t, 0, empty.Unbubble().(Group).Len())
}

func TestChannel_WrapsAround(t *testing.T) {
	g := NewGroup(Constant(0), Constant(1), Constant(2))

	assert.Equal(t, Constant(0), g.Channel(0))
	assert.Equal(t, Constant(2), g.Channel(2))
	assert.Equal(t, Constant(1), g.Channel(4))
	assert.Equal(t, Constant(7), Constant(7).Channel(5))
}

func TestOutputs_FlattensInOrder(t *testing.T) {
	u := New("Pan2", rate.Audio, 2, nil, 0)
	g := NewGroup(Constant(1), u.Result(), NewGroup(Constant(2), Constant(3)))

	outs := g.Outputs()
	require.Len(t, outs, 5)
	assert.Equal(t, Constant(1), outs[0])
	assert.Equal(t, u.Output(0), outs[1])
	assert.Equal(t, u.Output(1), outs[2])
	assert.Equal(t, Constant(3), outs[4])
	assert.Equal(t, rate.Audio, outs[2].Rate())
}

func TestResult(t *testing.T) {
	mono := New("SinOsc", rate.Audio, 1, nil, 0)
	assert.Equal(t, mono.Output(0), mono.Result())

	sink := New("Out", rate.Audio, 0, nil, SideEffect)
	assert.Equal(t, 0, sink.Result().(Group).Len())

	assert.Panics(t, func() { mono.Output(1) })
}

func TestFlags(t *testing.T) {
	f := SideEffect | DoneFlag
	assert.True(t, f.Has(SideEffect))
	assert.False(t, f.Has(Individual))
	assert.Equal(t, "side-effect|done-flag", f.String())
	assert.Equal(t, "none", Flags(0).String())
}

func sampleGraph() *Graph {
	return &Graph{
		Nodes: []Node{
			{Name: "Control", Rate: rate.Control, Outputs: []rate.Rate{rate.Control, rate.Control}},
			{Name: "SinOsc", Rate: rate.Audio, Inputs: []Ref{{Node: 0, Slot: 1}, ConstantRef(0)}, Outputs: []rate.Rate{rate.Audio}},
			{Name: "Out", Rate: rate.Audio, Inputs: []Ref{ConstantRef(0), {Node: 1}}, Flags: SideEffect},
		},
		Controls:     []float32{440, 0.5},
		ControlNames: []ControlName{{Name: "freq", Index: 0, Count: 1}, {Name: "amp", Index: 1, Count: 1}},
	}
}

func TestGraph_Validate(t *testing.T) {
	g := sampleGraph()
	require.NoError(t, g.Validate())

	g.Nodes[1].Inputs[0] = Ref{Node: 2}
	assert.Error(t, g.Validate(), "forward reference must be rejected")

	g = sampleGraph()
	g.Nodes[2].Inputs[1] = Ref{Node: 1, Slot: 3}
	assert.Error(t, g.Validate())

	g = sampleGraph()
	g.ControlNames[1].Count = 2
	assert.Error(t, g.Validate())
}

func TestGraph_Lookups(t *testing.T) {
	g := sampleGraph()
	cn, ok := g.Control("amp")
	require.True(t, ok)
	assert.Equal(t, 1, cn.Index)
	_, ok = g.Control("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, g.CountByName("SinOsc"))
}

func TestGraph_CodecRoundTrip(t *testing.T) {
	// --- Arrange ---
	reg, err := codec.NewRegistry(Namespace, Readers()...)
	require.NoError(t, err)
	g := sampleGraph()

	// --- Act ---
	var buf bytes.Buffer
	require.NoError(t, codec.NewEncoder(&buf, codec.WithNamespace(Namespace)).Encode(g))
	data := buf.Bytes()
	got, err := codec.NewDecoder(bytes.NewReader(data), reg).Decode()

	// --- Assert ---
	require.NoError(t, err)
	decoded, ok := got.(*Graph)
	require.True(t, ok)
	if diff := cmp.Diff(g, decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("decoded graph mismatch (-want +got):\n%s", diff)
	}

	var again bytes.Buffer
	require.NoError(t, codec.NewEncoder(&again, codec.WithNamespace(Namespace)).Encode(decoded))
	assert.Equal(t, data, again.Bytes())
}

func TestEncodeDecode(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	got, err := Decode(&buf)

	require.NoError(t, err)
	if diff := cmp.Diff(g, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("decoded graph mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_RejectsInvalidGraph(t *testing.T) {
	g := sampleGraph()
	g.ControlNames = append(g.ControlNames, ControlName{Name: "late", Index: len(g.Controls), Count: 1})
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	_, err := Decode(&buf)

	assert.ErrorContains(t, err, "outside the control vector")
}

func TestUGen_String(t *testing.T) {
	src := New("SinOsc", rate.Audio, 1, []In{Constant(440), Constant(0)}, 0)
	bin := New("BinaryOpUGen", rate.Audio, 1, []In{src.Output(0), Constant(0.5)}, 0)
	bin.SpecialIndex = 2
	assert.Equal(t, "BinaryOpUGen.ar#2(SinOsc[0], 0.5)", bin.String())
}
