package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		spec    string
		sep     string
		a, b    int
		wantErr bool
	}{
		{spec: "80x46", sep: "x", a: 80, b: 46},
		{spec: "1:0", sep: ":", a: 1, b: 0},
		{spec: "1:-1", sep: ":", a: 1, b: -1},
		{spec: "80", sep: "x", wantErr: true},
		{spec: "axb", sep: "x", wantErr: true},
		{spec: "", sep: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			a, b, err := parsePair(tt.spec, tt.sep)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.a, a)
			assert.Equal(t, tt.b, b)
		})
	}
}

func TestParseGrid(t *testing.T) {
	cols, rows, err := parseGrid("3x2")
	require.NoError(t, err)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 2, rows)

	cols, rows, err = parseGrid("2")
	require.NoError(t, err)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 2, rows)

	_, _, err = parseGrid("twoxtwo")
	assert.Error(t, err)
}

func TestParseScroll(t *testing.T) {
	on, delay, err := parseScroll("")
	require.NoError(t, err)
	assert.False(t, on)

	on, delay, err = parseScroll("60")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 60*time.Millisecond, delay)

	_, _, err = parseScroll("fast")
	assert.Error(t, err)
}
