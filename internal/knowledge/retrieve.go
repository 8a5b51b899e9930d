package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Retrieve embeds the query and returns the top k snippets from the
// article's pool ranked by cosine similarity, best first. Ties keep
// insertion order. When a vector store is configured the search runs there;
// otherwise the relational pool is scanned.
func (s *Store) Retrieve(ctx context.Context, query string, articleID uint, k int) ([]Snippet, error) {
	if k <= 0 || s.embed == nil {
		return []Snippet{}, nil
	}

	queryVec, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if s.vector != nil {
		return s.vector.Query(ctx, queryVec, articleID, k)
	}

	pool, err := s.pool(articleID)
	if err != nil {
		return nil, err
	}
	return rankByCosine(pool, queryVec, k), nil
}

type scoredSnippet struct {
	snippet Snippet
	score   float64
}

func rankByCosine(pool []Snippet, queryVec []float64, k int) []Snippet {
	scored := make([]scoredSnippet, 0, len(pool))
	for _, snip := range pool {
		if len(snip.Embedding) == 0 {
			continue
		}
		scored = append(scored, scoredSnippet{
			snippet: snip,
			score:   cosineSimilarity(queryVec, snip.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if k > len(scored) {
		k = len(scored)
	}
	out := make([]Snippet, 0, k)
	for _, sc := range scored[:k] {
		out = append(out, sc.snippet)
	}
	return out
}

// cosineSimilarity returns 0 for mismatched or zero vectors rather than
// erroring; a malformed snippet simply ranks last.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na := math.Sqrt(floats.Dot(a, a))
	nb := math.Sqrt(floats.Dot(b, b))
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
