package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Document is a single normalized input: either a whole free-text file or one
// row of a tabular file, flattened to text.
type Document struct {
	ID      string
	Source  string // origin file name
	Row     int    // 1-based row for tabular documents, 0 for whole-file
	Content string
}

// Chunk is a bounded slice of a document's text used for indexing. Consecutive
// chunks of the same document share an overlapping boundary region.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Index      int
	Text       string
	Source     string
	Row        int
}

// ScoredChunk is a retrieved chunk with its relevance score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Turn is one (query, answer) exchange kept in conversation memory.
type Turn struct {
	Query  string
	Answer string
}

// KnownRoles is the fixed set of organizational roles the portal recognises.
var KnownRoles = []string{"engineering", "marketing", "finance", "hr", "employee", "c-suite"}

// NormalizeRole trims and case-folds a role identifier.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// KnownRole reports whether the normalized role is part of the fixed role set.
func KnownRole(role string) bool {
	role = NormalizeRole(role)
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	// ErrIndexNotFound means no persisted index exists for the requested role.
	// Surfaced as a "not ready" condition, distinct from zero retrieval results.
	ErrIndexNotFound = errors.New("no index for role")

	// ErrEmptyRole means a role identifier was blank after normalization.
	ErrEmptyRole = errors.New("empty role")

	// ErrGeneration wraps a failed language-model invocation. No partial answer
	// is returned and no conversation turn is recorded.
	ErrGeneration = errors.New("answer generation failed")
)

// SkipError records a document that could not be loaded and was skipped.
// A skip never fails the surrounding load.
type SkipError struct {
	File string
	Err  error
}

func (e *SkipError) Error() string { return fmt.Sprintf("skipped %s: %v", e.File, e.Err) }

func (e *SkipError) Unwrap() error { return e.Err }
