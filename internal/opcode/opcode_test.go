package opcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synthgraph/internal/rate"
	"github.com/vk/synthgraph/internal/ugen"
)

func TestLookup(t *testing.T) {
	s, ok := Lookup("SinOsc")
	require.True(t, ok)
	assert.Same(t, SinOsc, s)

	_, ok = Lookup("NoSuchOsc")
	assert.False(t, ok)
}

func TestDeclarationsAreConsistent(t *testing.T) {
	for _, name := range Names() {
		s, _ := Lookup(name)
		t.Run(name, func(t *testing.T) {
			require.NotEmpty(t, s.Rates)
			for i, in := range s.Inputs {
				if in.Variadic {
					assert.Equal(t, len(s.Inputs)-1, i, "variadic input must be last")
				}
			}
			for _, idx := range append(append(append([]int{}, s.MatchRate...), s.Trigger...), s.RateInputs...) {
				assert.Less(t, idx, len(s.Inputs))
			}
		})
	}
}

func TestSpecHelpers(t *testing.T) {
	assert.True(t, Out.Variadic())
	assert.False(t, SinOsc.Variadic())
	assert.True(t, Out.Flags.Has(ugen.SideEffect))
	assert.True(t, SinOsc.Supports(rate.Audio))
	assert.False(t, SinOsc.Supports(rate.Demand))
	assert.Equal(t, 1, Pan2.Input("pos"))
	assert.Equal(t, -1, Pan2.Input("nope"))
	require.NotNil(t, SinOsc.Inputs[0].Default)
	assert.Equal(t, float32(440), *SinOsc.Inputs[0].Default)
}
