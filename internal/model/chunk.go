package model

import "encoding/json"

const (
	SourceTypeManual = "manual"
	SourceTypeUpload = "upload"
	SourceTypeIngest = "ingest"
)

// ChunkMetadata is the JSON document stored next to every chunk. An empty
// Embedding means the chunk was stored without a vector.
type ChunkMetadata struct {
	Title     string    `json:"title,omitempty"`
	Source    string    `json:"source,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

type Chunk struct {
	ID         string        `json:"id"`
	ProjectID  string        `json:"project_id"`
	DocumentID string        `json:"document_id"`
	Content    string        `json:"content"`
	SourceType string        `json:"source_type"`
	ChunkIndex int           `json:"chunk_index"`
	Metadata   ChunkMetadata `json:"metadata"`
	Ctime      int64         `json:"ctime"`
}

// StoredChunk is a chunk as read back from a store, metadata still undecoded.
// Stores with a native vector column fill Embedding directly.
type StoredChunk struct {
	ID          string
	ProjectID   string
	DocumentID  string
	Content     string
	SourceType  string
	ChunkIndex  int
	RawMetadata []byte
	Embedding   []float32
	Ctime       int64
}

func (c *StoredChunk) DecodeMetadata() (ChunkMetadata, error) {
	var meta ChunkMetadata
	if len(c.RawMetadata) > 0 {
		if err := json.Unmarshal(c.RawMetadata, &meta); err != nil {
			return ChunkMetadata{}, err
		}
	}
	if len(meta.Embedding) == 0 && len(c.Embedding) > 0 {
		meta.Embedding = c.Embedding
	}
	return meta, nil
}
