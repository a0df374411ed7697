package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVector(t *testing.T) {
	assert.Equal(t, "[0.1,0.2,0.3]", encodeVector([]float32{0.1, 0.2, 0.3}))
	assert.Equal(t, "[]", encodeVector(nil))
	assert.Equal(t, "[-1,0,1]", encodeVector([]float32{-1, 0, 1}))
}

func TestDecodeVector_RoundTrip(t *testing.T) {
	in := []float32{0.125, -3.5, 0, 42.75}

	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeVector_Empty(t *testing.T) {
	out, err := decodeVector("[]")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecodeVector_Malformed(t *testing.T) {
	_, err := decodeVector("0.1,0.2")
	assert.Error(t, err)

	_, err = decodeVector("[0.1,abc]")
	assert.Error(t, err)
}
