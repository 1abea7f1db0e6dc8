package knowledge

import (
	"context"
	"fmt"
	"math"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	kvector "github.com/kshard/vector"

	"github.com/veridraft/veridraft/internal/model"
)

// NoMatchResult is the sentinel returned when the store is empty or no
// fragment clears the similarity floor
const NoMatchResult = "No relevant information found in the source documents."

const (
	// maxDistance is the similarity floor: fragments further away than this
	// are treated as no match, and it is also the distance at which the
	// closed-form score reaches zero
	maxDistance = 1.5

	// revisionThreshold is the score below which a claim needs revision
	revisionThreshold = 0.8

	// minEfSearch is the minimum HNSW search breadth
	minEfSearch = 100
)

// Fragment is an immutable corpus text span with a position-derived identity
type Fragment struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Store holds a fixed corpus of text fragments and answers nearest-match
// queries by semantic similarity. Load must complete before the first query;
// after load the store is read-only, so concurrent queries need no locking.
type Store struct {
	embedder  Embedder
	index     *hnsw.HNSW[vector.VF32]
	distance  func([]float32, []float32) float32
	fragments []Fragment
	vectors   [][]float32
	topK      int
}

// NewStore creates an empty store backed by an in-process HNSW index over
// a cosine surface. topK controls how many fragments the vector_search tool
// returns.
func NewStore(embedder Embedder, topK int) *Store {
	if topK <= 0 {
		topK = 2
	}

	surface := kvector.Cosine()

	return &Store{
		embedder: embedder,
		index:    hnsw.New[vector.VF32](vector.SurfaceVF32(surface)),
		distance: surface.Distance,
		topK:     topK,
	}
}

// Load embeds and indexes the corpus fragments, assigning each a
// position-derived identity. No-op on empty input. Not safe to call
// concurrently with queries.
func (s *Store) Load(ctx context.Context, fragments []string) error {
	if len(fragments) == 0 {
		return nil
	}

	for i, text := range fragments {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed fragment %d: %w", i, err)
		}

		id := len(s.fragments)
		s.index.Insert(vector.VF32{Key: uint32(id), Vec: vec})
		s.fragments = append(s.fragments, Fragment{ID: id, Text: text})
		s.vectors = append(s.vectors, vec)
	}

	return nil
}

// Size returns the number of indexed fragments
func (s *Store) Size() int {
	return len(s.fragments)
}

// Query returns up to topK fragments most similar to text, most-similar
// first. An empty result means no match; that is not an error.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]Fragment, error) {
	if len(s.fragments) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ef := topK * 2
	if ef < minEfSearch {
		ef = minEfSearch
	}
	neighbors := s.index.Search(vector.VF32{Vec: queryVec}, topK, ef)

	matches := make([]Fragment, 0, len(neighbors))
	for _, n := range neighbors {
		if float64(s.distance(queryVec, s.vectors[n.Key])) > maxDistance {
			continue
		}
		matches = append(matches, s.fragments[n.Key])
	}

	return matches, nil
}

// QueryWithDistance returns the single best-matching fragment along with its
// raw similarity distance. A nil fragment means no match.
func (s *Store) QueryWithDistance(ctx context.Context, text string) (*Fragment, float64, error) {
	if len(s.fragments) == 0 {
		return nil, 0, nil
	}

	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, 0, fmt.Errorf("embed query: %w", err)
	}

	neighbors := s.index.Search(vector.VF32{Vec: queryVec}, 1, minEfSearch)
	if len(neighbors) == 0 {
		return nil, 0, nil
	}

	best := neighbors[0]
	dist := float64(s.distance(queryVec, s.vectors[best.Key]))
	frag := s.fragments[best.Key]

	return &frag, dist, nil
}

// ScoreByDistance is the direct, non-LLM verification path: map the distance
// to the closest fragment onto a faithfulness score. Deterministic for
// identical store contents and identical claim text.
func (s *Store) ScoreByDistance(ctx context.Context, claim string) (model.Verdict, error) {
	frag, dist, err := s.QueryWithDistance(ctx, claim)
	if err != nil {
		return model.Verdict{}, err
	}
	if frag == nil {
		return model.FallbackVerdict("No context found in vector knowledge base."), nil
	}

	score := 1.0 - dist/maxDistance
	score = math.Max(0.0, math.Min(1.0, score))
	score = math.Round(score*100) / 100

	return model.Verdict{
		FaithfulnessScore: score,
		RequiresRevision:  score < revisionThreshold,
		Rationale:         fmt.Sprintf("Vector distance: %.3f. Closest match: %q", dist, frag.Text),
	}, nil
}
