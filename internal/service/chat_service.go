// Package service orchestrates the role-partitioned pipeline: rebuilding the
// per-role indexes from the documents root, and answering role-scoped queries
// with retrieved context and recent conversation history.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finedge/internal/domain"
	"finedge/internal/embedding"
	"finedge/internal/prompt"
	"finedge/internal/retriever"
	"finedge/internal/vectorstore"
)

// RoleStatus reports the outcome of one role's index rebuild.
type RoleStatus struct {
	Role    string   `json:"role"`
	Chunks  int      `json:"chunks"`
	Skipped []string `json:"skipped,omitempty"`
	Empty   bool     `json:"empty,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Deps are the injected collaborators of the chat service.
type Deps struct {
	DocumentsRoot string
	Ingestor      domain.Ingestor
	Chunker       domain.Chunker
	// NewEmbedder returns the embedder used to build one role's index. Local
	// embedders are prepared per role, so every call must return a fresh
	// instance; remote clients may return a shared one.
	NewEmbedder func() domain.Embedder
	Store       vectorstore.Store
	Retriever   *retriever.Retriever
	Generator   domain.Generator
	Memory      domain.Memory
	TopK        int
}

// ChatService is the application core behind the portal's two operations.
type ChatService struct {
	docsRoot    string
	ingestor    domain.Ingestor
	chunker     domain.Chunker
	newEmbedder func() domain.Embedder
	store       vectorstore.Store
	retriever   *retriever.Retriever
	generator   domain.Generator
	memory      domain.Memory
	topK        int
}

func New(deps Deps) *ChatService {
	topK := deps.TopK
	if topK <= 0 {
		topK = retriever.DefaultTopK
	}
	return &ChatService{
		docsRoot:    deps.DocumentsRoot,
		ingestor:    deps.Ingestor,
		chunker:     deps.Chunker,
		newEmbedder: deps.NewEmbedder,
		store:       deps.Store,
		retriever:   deps.Retriever,
		generator:   deps.Generator,
		memory:      deps.Memory,
		topK:        topK,
	}
}

// RebuildAllIndexes wipes the index store and rebuilds one index per role
// subdirectory under the documents root. Per-role failures are isolated into
// the returned status map; only a failure to list the documents root or to
// recreate the store root aborts the whole rebuild.
func (s *ChatService) RebuildAllIndexes(ctx context.Context) (map[string]RoleStatus, error) {
	roleDirs, err := filepath.Glob(filepath.Join(s.docsRoot, "*"))
	if err != nil {
		return nil, fmt.Errorf("list documents root: %w", err)
	}
	if err := s.store.Reset(); err != nil {
		return nil, err
	}

	statuses := make(map[string]RoleStatus)
	for _, dir := range roleDirs {
		if !isDir(dir) {
			continue
		}
		role := domain.NormalizeRole(filepath.Base(dir))
		status := s.rebuildRole(ctx, role, dir)
		statuses[role] = status
		switch {
		case status.Error != "":
			slog.Warn("role index rebuild failed", "role", role, "error", status.Error)
		case status.Empty:
			slog.Info("role has no content, excluded from index set", "role", role)
		default:
			slog.Info("role index rebuilt", "role", role, "chunks", status.Chunks, "skipped", len(status.Skipped))
		}
	}
	return statuses, nil
}

func (s *ChatService) rebuildRole(ctx context.Context, role, dir string) RoleStatus {
	status := RoleStatus{Role: role}

	docs, skipped, err := s.ingestor.Load(dir)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	for _, skip := range skipped {
		status.Skipped = append(status.Skipped, skip.File)
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		cs, err := s.chunker.Chunk(doc)
		if err != nil {
			status.Error = fmt.Sprintf("chunk %s: %v", doc.Source, err)
			return status
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		status.Empty = true
		return status
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embedder := s.newEmbedder()
	if err := embedder.Prepare(ctx, texts); err != nil {
		status.Error = fmt.Sprintf("prepare embedder: %v", err)
		return status
	}
	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		vec, err := embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			status.Error = fmt.Sprintf("embed chunk %s: %v", chunks[i].ChunkID, err)
			return status
		}
		vectors[i] = vec
	}

	index := &vectorstore.RoleIndex{
		Role:      role,
		Embedder:  embedder.Name(),
		Dimension: embedder.Dimension(),
		BuiltAt:   nowUTC(),
		Chunks:    chunks,
		Vectors:   vectors,
	}
	if stateful, ok := embedder.(embedding.Stateful); ok {
		state, err := stateful.MarshalState()
		if err != nil {
			status.Error = fmt.Sprintf("marshal embedder state: %v", err)
			return status
		}
		index.EmbedderState = state
	}
	if err := s.store.Save(index); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Chunks = len(chunks)
	return status
}

// Answer runs one query through retrieval and generation for the role.
// Greeting-only input gets the fixed greeting; no retrieved context
// short-circuits to the fixed no-context response without touching the
// model or memory. A failed generation surfaces domain.ErrGeneration and
// records nothing.
func (s *ChatService) Answer(ctx context.Context, role, query string) (string, error) {
	role = domain.NormalizeRole(role)
	if role == "" {
		return "", domain.ErrEmptyRole
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("empty query")
	}

	chunks, err := s.retriever.Retrieve(ctx, role, query, s.topK)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return "", err
		}
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	// A bare greeting gets the fixed reply without consulting the model:
	// retrieval cannot surface context for it, so the template's greeting
	// rule would otherwise never be reached.
	if prompt.IsGreeting(query) {
		answer := prompt.Greeting(role)
		s.memory.Append(role, query, answer)
		return answer, nil
	}
	if len(chunks) == 0 {
		return prompt.NoContextResponse, nil
	}

	data := prompt.Data{
		Role:    role,
		Query:   query,
		Context: prompt.ContextBlock(chunks),
		History: s.memory.History(role),
	}
	if err := data.Validate(); err != nil {
		return "", err
	}

	answer, err := s.generator.Generate(ctx, prompt.System(role), data.User())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	s.memory.Append(role, query, answer)
	return answer, nil
}

// IndexedRoles lists the roles that currently have a queryable index.
func (s *ChatService) IndexedRoles() ([]string, error) {
	return s.store.Roles()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func nowUTC() time.Time { return time.Now().UTC() }
