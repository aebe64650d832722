package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finedge/internal/domain"
	"finedge/internal/vectorstore"
)

func sampleIndex(role string) *vectorstore.RoleIndex {
	return &vectorstore.RoleIndex{
		Role:      role,
		Embedder:  "tfidf",
		Dimension: 2,
		BuiltAt:   time.Now().UTC(),
		Chunks: []domain.Chunk{
			{DocumentID: "d1", ChunkID: "d1:0", Text: "alpha"},
			{DocumentID: "d1", ChunkID: "d1:1", Text: "beta"},
		},
		Vectors: [][]float64{{1, 0}, {0, 1}},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := NewStorage(t.TempDir())

	want := sampleIndex("finance")
	want.EmbedderState = []byte(`{"terms":["alpha","beta"]}`)
	require.NoError(t, s.Save(want))

	got, err := s.Load("finance")
	require.NoError(t, err)
	assert.Equal(t, "finance", got.Role)
	assert.Equal(t, "tfidf", got.Embedder)
	assert.Equal(t, 2, got.Dimension)
	assert.Equal(t, want.Chunks, got.Chunks)
	assert.Equal(t, want.Vectors, got.Vectors)
	assert.JSONEq(t, string(want.EmbedderState), string(got.EmbedderState))
}

func TestLoad_MissingRole(t *testing.T) {
	s := NewStorage(t.TempDir())

	_, err := s.Load("marketing")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestSave_Validation(t *testing.T) {
	s := NewStorage(t.TempDir())

	noRole := sampleIndex("")
	assert.Error(t, s.Save(noRole))

	mismatch := sampleIndex("finance")
	mismatch.Vectors = mismatch.Vectors[:1]
	assert.Error(t, s.Save(mismatch))

	badDim := sampleIndex("finance")
	badDim.Vectors[0] = []float64{1, 0, 0}
	assert.Error(t, s.Save(badDim))
}

func TestSave_ReplacesExistingIndex(t *testing.T) {
	s := NewStorage(t.TempDir())

	first := sampleIndex("finance")
	require.NoError(t, s.Save(first))

	second := sampleIndex("finance")
	second.Chunks = second.Chunks[:1]
	second.Vectors = second.Vectors[:1]
	require.NoError(t, s.Save(second))

	got, err := s.Load("finance")
	require.NoError(t, err)
	assert.Len(t, got.Chunks, 1)
}

func TestSave_LeavesNoTempDirs(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root)
	require.NoError(t, s.Save(sampleIndex("finance")))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "finance", entries[0].Name())
}

func TestReset(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root)
	require.NoError(t, s.Save(sampleIndex("finance")))
	require.NoError(t, s.Save(sampleIndex("hr")))

	require.NoError(t, s.Reset())

	roles, err := s.Roles()
	require.NoError(t, err)
	assert.Empty(t, roles)
	_, err = s.Load("finance")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestRoles(t *testing.T) {
	root := t.TempDir()
	s := NewStorage(root)

	roles, err := s.Roles()
	require.NoError(t, err)
	assert.Empty(t, roles)

	require.NoError(t, s.Save(sampleIndex("finance")))
	require.NoError(t, s.Save(sampleIndex("engineering")))
	// A directory without an index file is not a role.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "junk"), 0o755))

	roles, err = s.Roles()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"finance", "engineering"}, roles)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ vectorstore.Store = (*Storage)(nil)
}
