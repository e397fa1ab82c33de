package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

const (
	red   color = "red"
	green color = "green"
)

func newColors() *Normalizer[color] {
	return NewNormalizer(map[string]color{"red": red, "Green": green}, red)
}

func TestNormalize(t *testing.T) {
	n := newColors()

	tests := []struct {
		input string
		want  color
	}{
		{"red", red},
		{"  GREEN ", green},
		{"green", green},
		{"blue", red},
		{"", red},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestParse(t *testing.T) {
	n := newColors()

	v, err := n.Parse(" Red")
	require.NoError(t, err)
	assert.Equal(t, red, v)

	v, err = n.Parse("")
	require.NoError(t, err)
	assert.Equal(t, red, v)

	_, err = n.Parse("blue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"blue"`)
	assert.Contains(t, err.Error(), "[green red]")
}

func TestKeysIsACopy(t *testing.T) {
	n := newColors()
	keys := n.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"green", "red"}, n.Keys())
}
