package models

// Chunk represents a slice of document text with its position in the source
type Chunk struct {
	Content string
	Offset  int
	ChunkID int
}
