package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAdapter_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := NewHashAdapter(384)

	v1, err := a.Embed(ctx, "长期主义是反直觉的")
	require.NoError(t, err)
	v2, err := a.Embed(ctx, "长期主义是反直觉的")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 384)
}

func TestHashAdapter_DifferentTextsDiffer(t *testing.T) {
	ctx := context.Background()
	a := NewHashAdapter(384)

	v1, err := a.Embed(ctx, "复利思维")
	require.NoError(t, err)
	v2, err := a.Embed(ctx, "即时反馈")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestHashAdapter_Normalized(t *testing.T) {
	ctx := context.Background()
	a := NewHashAdapter(128)

	vec, err := a.Embed(ctx, "some text to embed")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHashAdapter_EmptyText(t *testing.T) {
	ctx := context.Background()
	a := NewHashAdapter(64)

	vec, err := a.Embed(ctx, "")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestHashAdapter_DefaultDimension(t *testing.T) {
	a := NewHashAdapter(0)
	assert.Equal(t, 384, a.Dimension())
}
