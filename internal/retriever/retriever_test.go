package retriever

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finedge/internal/domain"
	"finedge/internal/embedding/tfidf"
	"finedge/internal/vectorstore"
	"finedge/internal/vectorstore/file"
)

// stubEmbedder returns canned vectors for queries.
type stubEmbedder struct {
	name    string
	dim     int
	vectors map[string][]float64
}

func (s *stubEmbedder) Name() string                                 { return s.name }
func (s *stubEmbedder) Prepare(context.Context, []string) error      { return nil }
func (s *stubEmbedder) Dimension() int                               { return s.dim }
func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return s.vectors[text], nil
}

func saveIndex(t *testing.T, store vectorstore.Store, role, embedderName string, texts []string, vectors [][]float64, state []byte) {
	t.Helper()
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{DocumentID: "d", ChunkID: "d:" + text, Index: i, Text: text}
	}
	require.NoError(t, store.Save(&vectorstore.RoleIndex{
		Role:          role,
		Embedder:      embedderName,
		Dimension:     len(vectors[0]),
		BuiltAt:       time.Now().UTC(),
		Chunks:        chunks,
		Vectors:       vectors,
		EmbedderState: state,
	}))
}

func TestRetrieve_MissingIndex(t *testing.T) {
	store := file.NewStorage(t.TempDir())
	r := New(store, StateAwareFactory(nil), 0, DefaultLambda)

	_, err := r.Retrieve(context.Background(), "marketing", "anything", 5)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestRetrieve_TFIDFRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := file.NewStorage(t.TempDir())

	texts := []string{
		"The engineering handbook covers deployment pipelines and rollback procedures.",
		"Quarterly revenue grew twelve percent driven by subscription renewals.",
		"The office closes early on the last friday of every month.",
	}
	emb := tfidf.NewEmbedder()
	require.NoError(t, emb.Prepare(ctx, texts))
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := emb.Embed(ctx, text)
		require.NoError(t, err)
		vectors[i] = v
	}
	state, err := emb.MarshalState()
	require.NoError(t, err)
	saveIndex(t, store, "finance", "tfidf", texts, vectors, state)

	// The configured embedder is nil on purpose: a tfidf index restores
	// its own vocabulary from the persisted state.
	r := New(store, StateAwareFactory(nil), 0, DefaultLambda)
	results, err := r.Retrieve(ctx, "finance", "how much did revenue grow this quarter", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Chunk.Text, "revenue grew twelve percent")
	assert.Greater(t, results[0].Score, 0.0)
}

func TestRetrieve_NormalizesRole(t *testing.T) {
	ctx := context.Background()
	store := file.NewStorage(t.TempDir())

	texts := []string{"Payroll questions go to the people operations team."}
	emb := tfidf.NewEmbedder()
	require.NoError(t, emb.Prepare(ctx, texts))
	v, err := emb.Embed(ctx, texts[0])
	require.NoError(t, err)
	state, err := emb.MarshalState()
	require.NoError(t, err)
	saveIndex(t, store, "hr", "tfidf", texts, [][]float64{v}, state)

	r := New(store, StateAwareFactory(nil), 0, DefaultLambda)
	results, err := r.Retrieve(ctx, "  HR ", "payroll questions", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestRetrieve_MMRPrefersDiversity(t *testing.T) {
	ctx := context.Background()
	store := file.NewStorage(t.TempDir())

	// Two near-duplicates and one distinct but still relevant chunk.
	texts := []string{"dupA", "dupB", "distinct"}
	vectors := [][]float64{
		{1, 0},
		{1, 0.01},
		{0.2, 1},
	}
	saveIndex(t, store, "finance", "stub", texts, vectors, nil)

	query := "q"
	stub := &stubEmbedder{name: "stub", dim: 2, vectors: map[string][]float64{query: {1, 0.2}}}
	r := New(store, StateAwareFactory(stub), 0, DefaultLambda)

	results, err := r.Retrieve(ctx, "finance", query, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	got := []string{results[0].Chunk.Text, results[1].Chunk.Text}
	assert.Contains(t, got, "distinct", "the second pick should trade similarity for diversity")
}

func TestRetrieve_NonPositiveScoresFiltered(t *testing.T) {
	ctx := context.Background()
	store := file.NewStorage(t.TempDir())

	texts := []string{"relevant", "opposite"}
	vectors := [][]float64{
		{1, 0},
		{-1, 0},
	}
	saveIndex(t, store, "finance", "stub", texts, vectors, nil)

	query := "q"
	stub := &stubEmbedder{name: "stub", dim: 2, vectors: map[string][]float64{query: {1, 0}}}
	r := New(store, StateAwareFactory(stub), 0, DefaultLambda)

	results, err := r.Retrieve(ctx, "finance", query, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "relevant", results[0].Chunk.Text)
}

func TestStateAwareFactory_EmbedderMismatch(t *testing.T) {
	store := file.NewStorage(t.TempDir())
	saveIndex(t, store, "finance", "other", []string{"x"}, [][]float64{{1}}, nil)

	stub := &stubEmbedder{name: "stub", dim: 1, vectors: map[string][]float64{"q": {1}}}
	r := New(store, StateAwareFactory(stub), 0, DefaultLambda)

	_, err := r.Retrieve(context.Background(), "finance", "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "built with embedder")
}
