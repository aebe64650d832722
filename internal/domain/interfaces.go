package domain

import "context"

// Ingestor loads the recognized documents found directly under a role
// directory. Files that fail to load are skipped and reported; a skip never
// fails the whole load.
type Ingestor interface {
	Load(dir string) (docs []Document, skipped []SkipError, err error)
}

// Chunker splits a document into size-bounded, overlapping chunks.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator invokes a language model with a system instruction and a user
// prompt and returns the completion text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// Memory is a bounded per-key history of recent conversation turns.
type Memory interface {
	Append(key, query, answer string)
	History(key string) []Turn
	Clear(key string)
}
