// Package retriever loads a role's persisted index and selects the chunks
// most relevant to a query, trading pure similarity against diversity.
package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"

	"finedge/internal/domain"
	"finedge/internal/embedding/tfidf"
	"finedge/internal/vectorstore"
)

// Defaults for top-K selection and the relevance/diversity trade-off.
const (
	DefaultTopK   = 8
	DefaultLambda = 0.55
)

// EmbedderFactory returns the embedder to use for queries against the given
// index, restoring embedder state persisted with the index when present.
type EmbedderFactory func(index *vectorstore.RoleIndex) (domain.Embedder, error)

// StateAwareFactory resolves the query embedder for an index: a TF-IDF index
// carries its own vocabulary state and is restored from it; any other index
// must match the configured embedder it was built with.
func StateAwareFactory(configured domain.Embedder) EmbedderFactory {
	return func(index *vectorstore.RoleIndex) (domain.Embedder, error) {
		if index.Embedder == "tfidf" && len(index.EmbedderState) > 0 {
			e := tfidf.NewEmbedder()
			if err := e.UnmarshalState(index.EmbedderState); err != nil {
				return nil, fmt.Errorf("restore tfidf state: %w", err)
			}
			return e, nil
		}
		if configured == nil || configured.Name() != index.Embedder {
			name := "none"
			if configured != nil {
				name = configured.Name()
			}
			return nil, fmt.Errorf("index for %s built with embedder %q, configured %q", index.Role, index.Embedder, name)
		}
		return configured, nil
	}
}

// Retriever performs role-scoped similarity search with maximal-marginal-
// relevance selection over the fetched candidates.
type Retriever struct {
	store       vectorstore.Store
	embedderFor EmbedderFactory
	fetchK      int
	lambda      float64
}

// New creates a retriever. fetchK bounds the candidate pool fed into MMR;
// lambda in [0,1] weighs relevance (1) against diversity (0).
func New(store vectorstore.Store, embedderFor EmbedderFactory, fetchK int, lambda float64) *Retriever {
	if lambda <= 0 || lambda > 1 {
		lambda = DefaultLambda
	}
	return &Retriever{store: store, embedderFor: embedderFor, fetchK: fetchK, lambda: lambda}
}

// Retrieve returns up to k chunks for the normalized role, most relevant
// first. A role with no persisted index yields domain.ErrIndexNotFound; an
// empty result is valid and means nothing relevant was found.
func (r *Retriever) Retrieve(ctx context.Context, role, query string, k int) ([]domain.ScoredChunk, error) {
	role = domain.NormalizeRole(role)
	index, err := r.store.Load(role)
	if err != nil {
		return nil, err
	}
	embedder, err := r.embedderFor(index)
	if err != nil {
		return nil, fmt.Errorf("resolve embedder: %w", err)
	}
	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	fetchK := r.fetchK
	if fetchK < k {
		fetchK = 3 * k
	}

	candidates := topByCosine(index, queryVec, fetchK)
	selected := r.selectMMR(index, queryVec, candidates, k)

	results := make([]domain.ScoredChunk, 0, len(selected))
	for _, i := range selected {
		score := cosine(queryVec, index.Vectors[i])
		if score <= 0 {
			continue
		}
		results = append(results, domain.ScoredChunk{Chunk: index.Chunks[i], Score: score})
	}
	return results, nil
}

// topByCosine returns the indices of the fetchK most similar vectors.
func topByCosine(index *vectorstore.RoleIndex, queryVec []float64, fetchK int) []int {
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(index.Vectors))
	for i, v := range index.Vectors {
		scores[i] = scored{i, cosine(queryVec, v)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if fetchK > len(scores) {
		fetchK = len(scores)
	}
	out := make([]int, fetchK)
	for i := 0; i < fetchK; i++ {
		out[i] = scores[i].idx
	}
	return out
}

// selectMMR greedily picks k candidates, each step maximizing
// lambda*sim(query, c) - (1-lambda)*max(sim(c, already selected)).
func (r *Retriever) selectMMR(index *vectorstore.RoleIndex, queryVec []float64, candidates []int, k int) []int {
	if k > len(candidates) {
		k = len(candidates)
	}
	var selected []int
	remaining := append([]int(nil), candidates...)
	for len(selected) < k && len(remaining) > 0 {
		bestPos := -1
		bestScore := math.Inf(-1)
		for pos, c := range remaining {
			relevance := cosine(queryVec, index.Vectors[c])
			redundancy := 0.0
			for _, s := range selected {
				if sim := cosine(index.Vectors[c], index.Vectors[s]); sim > redundancy {
					redundancy = sim
				}
			}
			score := r.lambda*relevance - (1-r.lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}
		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	dot, na, nb := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
