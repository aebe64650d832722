package vectorstore

import (
	"encoding/json"
	"time"

	"finedge/internal/domain"
)

// RoleIndex is the self-contained persisted index for one role: embedded
// chunks plus whatever embedder state is needed to embed queries against it.
type RoleIndex struct {
	Role          string          `json:"role"`
	Embedder      string          `json:"embedder"`
	Dimension     int             `json:"dimension"`
	BuiltAt       time.Time       `json:"built_at"`
	Chunks        []domain.Chunk  `json:"chunks"`
	Vectors       [][]float64     `json:"vectors"`
	EmbedderState json.RawMessage `json:"embedder_state,omitempty"`
}

// Store persists one index per role, each loadable independently.
type Store interface {
	// Reset clears and recreates the store root. Run at the start of a full rebuild.
	Reset() error
	// Save replaces the role's index atomically; a concurrent Load sees either
	// the old index or the new one, never a partial write.
	Save(index *RoleIndex) error
	// Load reads a role's persisted index. Returns domain.ErrIndexNotFound if
	// the role has no index.
	Load(role string) (*RoleIndex, error)
	// Roles lists the roles that currently have a persisted index.
	Roles() ([]string, error)
}
