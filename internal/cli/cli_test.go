package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synthgraph/internal/app"
)

func TestParse_Config(t *testing.T) {
	// --- Arrange ---
	args := []string{"-out", "build", "-format", "BOTH", "-workers", "4", "-merge", "-log-level", "DEBUG", "-log-format", "json", "graphs"}

	// --- Act ---
	cfg, shouldExit, err := Parse(args, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, &app.Config{
		GraphPath:       "graphs",
		OutputDir:       "build",
		Format:          app.FormatBoth,
		LogFormat:       "json",
		LogLevel:        "debug",
		Workers:         4,
		MergeDuplicates: true,
	}, cfg)
}

func TestParse_PathPrecedence(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "long flag wins", args: []string{"-graph", "a", "-g", "b", "c"}, want: "a"},
		{name: "shorthand over positional", args: []string{"-g", "b", "c"}, want: "b"},
		{name: "positional", args: []string{"c"}, want: "c"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, _, err := Parse(tc.args, &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.GraphPath)
		})
	}
}

func TestParse_Decode(t *testing.T) {
	cfg, _, err := Parse([]string{"-decode", "build"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.True(t, cfg.Decode)
	assert.Equal(t, "build", cfg.GraphPath)
}

func TestParse_ShouldExit(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}

		cfg, shouldExit, err := Parse(args, out)

		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"-nope"}, wantMsg: "flag provided but not defined: -nope"},
		{name: "log format", args: []string{"-log-format", "xml", "g"}, wantMsg: "invalid log-format"},
		{name: "log level", args: []string{"-log-level", "loud", "g"}, wantMsg: "invalid log-level"},
		{name: "output format", args: []string{"-format", "wav", "g"}, wantMsg: `invalid format "wav"`},
		{name: "negative workers", args: []string{"-workers", "-2", "g"}, wantMsg: "invalid workers -2"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
