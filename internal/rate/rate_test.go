package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMax(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Rate
		expected Rate
	}{
		{"scalar and control", Scalar, Control, Control},
		{"audio and control", Audio, Control, Audio},
		{"same", Control, Control, Control},
		{"unknown absorbs left", Unknown, Audio, Unknown},
		{"unknown absorbs right", Scalar, Unknown, Unknown},
		{"demand dominates", Audio, Demand, Demand},
		{"unknown beats demand", Demand, Unknown, Unknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Max(tc.a, tc.b))
			assert.Equal(t, tc.expected, Max(tc.b, tc.a))
		})
	}
}

func TestMaxOfAndReduce(t *testing.T) {
	assert.Equal(t, Scalar, MaxOf())
	assert.Equal(t, Audio, MaxOf(Scalar, Audio, Control))
	assert.Equal(t, Unknown, MaxOf(Scalar, Unknown, Audio))

	assert.Equal(t, Unknown, Reduce())
	assert.Equal(t, Control, Reduce(Control, Control))
	assert.Equal(t, Unknown, Reduce(Control, Audio))
}

func TestCompare(t *testing.T) {
	c, ok := Compare(Scalar, Audio)
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(Audio, Control)
	require.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Compare(Demand, Audio)
	assert.False(t, ok, "demand is incomparable with concrete rates")

	_, ok = Compare(Unknown, Unknown)
	assert.False(t, ok)

	c, ok = Compare(Demand, Demand)
	require.True(t, ok)
	assert.Equal(t, 0, c)
}

func TestIDRoundTrip(t *testing.T) {
	for _, r := range []Rate{Unknown, Scalar, Control, Audio, Demand} {
		got, err := FromID(r.ID())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := FromID(9)
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	r, err := Parse("ar")
	require.NoError(t, err)
	assert.Equal(t, Audio, r)

	r, err = Parse("Control")
	require.NoError(t, err)
	assert.Equal(t, Control, r)

	_, err = Parse("fast")
	require.Error(t, err)
}
