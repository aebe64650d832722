// Package ingest loads role documents from a directory, normalizing free-text
// and tabular files into the uniform document representation.
package ingest

import (
	"crypto/sha1"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"finedge/internal/domain"
)

// DirectoryLoader loads all recognized files found directly under a role
// directory (non-recursive). Free-text files become one document each;
// tabular files become one document per data row.
type DirectoryLoader struct{}

func NewDirectoryLoader() *DirectoryLoader { return &DirectoryLoader{} }

// Load reads the recognized documents under dir. Unrecognized extensions are
// skipped silently. A file that fails to load is skipped with a warning and
// reported in skipped; a single bad file never aborts the load. A missing or
// unreadable directory is an error.
func (l *DirectoryLoader) Load(dir string) (docs []domain.Document, skipped []domain.SkipError, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read role directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		var loaded []domain.Document
		var loadErr error
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			loaded, loadErr = loadText(path)
		case ".csv":
			loaded, loadErr = loadCSV(path)
		case ".xlsx":
			loaded, loadErr = loadXLSX(path)
		default:
			continue
		}
		if loadErr != nil {
			slog.Warn("skipping unreadable document", "file", entry.Name(), "error", loadErr)
			skipped = append(skipped, domain.SkipError{File: entry.Name(), Err: loadErr})
			continue
		}
		docs = append(docs, loaded...)
	}
	return docs, skipped, nil
}

func loadText(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil
	}
	return []domain.Document{{
		ID:      hashString(path),
		Source:  filepath.Base(path),
		Content: content,
	}}, nil
}

func loadCSV(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rowsToDocuments(filepath.Base(path), records), nil
}

func loadXLSX(path string) ([]domain.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rowsToDocuments(filepath.Base(path), rows), nil
}

// rowsToDocuments flattens each data row into "header: value" lines, one
// document per row. The first row is treated as the header.
func rowsToDocuments(source string, rows [][]string) []domain.Document {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	docs := make([]domain.Document, 0, len(rows)-1)
	for i, row := range rows[1:] {
		var b strings.Builder
		for j, value := range row {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			if j < len(header) && strings.TrimSpace(header[j]) != "" {
				b.WriteString(strings.TrimSpace(header[j]))
				b.WriteString(": ")
			}
			b.WriteString(value)
		}
		if b.Len() == 0 {
			continue
		}
		docs = append(docs, domain.Document{
			ID:      uuid.NewString(),
			Source:  source,
			Row:     i + 1,
			Content: b.String(),
		})
	}
	return docs
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
