// Package file implements the role-partitioned flat-file vector store. Each
// role owns one directory under the store root holding a single index.json.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"finedge/internal/domain"
	"finedge/internal/vectorstore"
)

const indexFileName = "index.json"

// Storage stores one serialized index per role under a root directory.
type Storage struct {
	root string
}

func NewStorage(root string) *Storage { return &Storage{root: root} }

// Reset removes the store root and recreates it empty.
func (s *Storage) Reset() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("clear store root: %w", err)
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create store root: %w", err)
	}
	return nil
}

// Save writes the role's index into a temporary directory and renames it into
// place, so a reader never observes a partially written index.
func (s *Storage) Save(index *vectorstore.RoleIndex) error {
	if index.Role == "" {
		return errors.New("index has no role")
	}
	if len(index.Chunks) != len(index.Vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	for _, v := range index.Vectors {
		if len(v) != index.Dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create store root: %w", err)
	}
	tmp, err := os.MkdirTemp(s.root, "."+index.Role+"-")
	if err != nil {
		return fmt.Errorf("create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, indexFileName), data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	target := filepath.Join(s.root, index.Role)
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove old index: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("swap index into place: %w", err)
	}
	return nil
}

// Load reads a role's index. A missing index maps to domain.ErrIndexNotFound.
func (s *Storage) Load(role string) (*vectorstore.RoleIndex, error) {
	data, err := os.ReadFile(filepath.Join(s.root, role, indexFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, role)
		}
		return nil, fmt.Errorf("read index for %s: %w", role, err)
	}
	var index vectorstore.RoleIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decode index for %s: %w", role, err)
	}
	return &index, nil
}

// Roles lists roles that have a persisted index.
func (s *Storage) Roles() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var roles []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, entry.Name(), indexFileName)); err == nil {
			roles = append(roles, entry.Name())
		}
	}
	return roles, nil
}
