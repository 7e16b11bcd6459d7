package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	v := []float32{0.3, -1.2, 4, 0.25}
	neg := make([]float32, len(v))
	for i, x := range v {
		neg[i] = -x
	}
	require.InDelta(t, 1.0, Cosine(v, v), 1e-12)
	require.InDelta(t, -1.0, Cosine(v, neg), 1e-12)
	require.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}))
	require.Equal(t, 0.0, Cosine([]float32{0, 0, 0}, v))
	require.Equal(t, 0.0, Cosine(nil, v))
}

func TestCosineCommonPrefix(t *testing.T) {
	require.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{1, 2, 99, -7}), 1e-12)
}

func TestCosineSymmetric(t *testing.T) {
	a := []float32{0.1, 0.7, -0.2}
	b := []float32{0.5, -0.1, 0.9}
	require.Equal(t, Cosine(a, b), Cosine(b, a))
}
