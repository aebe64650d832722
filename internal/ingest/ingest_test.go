package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finedge/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_TextFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "handbook.txt", "Welcome to the company.\n")
	writeFile(t, dir, "notes.md", "# Notes\n\nSome notes.")

	loader := NewDirectoryLoader()
	docs, skipped, err := loader.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, docs, 2)

	bySource := make(map[string]domain.Document)
	for _, d := range docs {
		bySource[d.Source] = d
	}
	assert.Equal(t, "Welcome to the company.", bySource["handbook.txt"].Content)
	assert.NotEmpty(t, bySource["handbook.txt"].ID)
	assert.Contains(t, bySource["notes.md"].Content, "Some notes.")
}

func TestLoad_CSVOneDocumentPerRow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "salaries.csv", "name,salary\nAlice,95000\nBob,87000\n")

	loader := NewDirectoryLoader()
	docs, skipped, err := loader.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, docs, 2)

	assert.Equal(t, 1, docs[0].Row)
	assert.Contains(t, docs[0].Content, "name: Alice")
	assert.Contains(t, docs[0].Content, "salary: 95000")
	assert.Equal(t, 2, docs[1].Row)
	assert.Contains(t, docs[1].Content, "name: Bob")
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
}

func TestLoad_HeaderOnlyCSVYieldsNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.csv", "name,salary\n")

	loader := NewDirectoryLoader()
	docs, skipped, err := loader.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Empty(t, docs)
}

func TestLoad_UnknownExtensionsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "image.png", "not really an image")
	writeFile(t, dir, "data.json", `{"k":"v"}`)
	writeFile(t, dir, "real.txt", "content")

	loader := NewDirectoryLoader()
	docs, skipped, err := loader.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, docs, 1)
	assert.Equal(t, "real.txt", docs[0].Source)
}

func TestLoad_CorruptFileSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.xlsx", "this is not a spreadsheet")
	writeFile(t, dir, "good.txt", "still loads")

	loader := NewDirectoryLoader()
	docs, skipped, err := loader.Load(dir)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken.xlsx", skipped[0].File)
	assert.Error(t, skipped[0].Err)
	require.Len(t, docs, 1)
	assert.Equal(t, "good.txt", docs[0].Source)
}

func TestLoad_MissingDirectoryFails(t *testing.T) {
	loader := NewDirectoryLoader()
	_, _, err := loader.Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoad_SubdirectoriesIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, dir, filepath.Join("nested", "inner.txt"), "hidden")
	writeFile(t, dir, "top.txt", "visible")

	loader := NewDirectoryLoader()
	docs, _, err := loader.Load(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "top.txt", docs[0].Source)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ domain.Ingestor = (*DirectoryLoader)(nil)
}
