package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMetadata(t *testing.T) {
	c := &StoredChunk{RawMetadata: []byte(`{"title":"Deck","source":"deck.pdf","embedding":[0.5,1]}`)}
	meta, err := c.DecodeMetadata()
	require.NoError(t, err)
	require.Equal(t, "Deck", meta.Title)
	require.Equal(t, []float32{0.5, 1}, meta.Embedding)
}

func TestDecodeMetadataColumnEmbedding(t *testing.T) {
	c := &StoredChunk{RawMetadata: []byte(`{"title":"Deck"}`), Embedding: []float32{1, 2}}
	meta, err := c.DecodeMetadata()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, meta.Embedding)
}

func TestDecodeMetadataMalformed(t *testing.T) {
	c := &StoredChunk{RawMetadata: []byte(`{"title":`)}
	_, err := c.DecodeMetadata()
	require.Error(t, err)
}
