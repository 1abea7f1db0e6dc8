package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"
)

// fakeEmbedder returns fixed vectors for known texts and a deterministic
// hash-derived unit vector otherwise
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	// fourth component is zero so the vector length satisfies the SIMD
	// alignment requirement of kshard/vector without changing any distance
	v := []float32{
		float32(seed%101) + 1,
		float32(seed%211) + 1,
		float32(seed%307) + 1,
		0,
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i := range v {
		v[i] /= norm
	}
	return v, nil
}

func newTestStore(t *testing.T, fragments []string, vectors map[string][]float32) *Store {
	t.Helper()
	store := NewStore(&fakeEmbedder{vectors: vectors}, 2)
	if err := store.Load(context.Background(), fragments); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return store
}

func TestStore_EmptyQueries(t *testing.T) {
	store := newTestStore(t, nil, nil)
	ctx := context.Background()

	matches, err := store.Query(ctx, "anything at all", 2)
	if err != nil {
		t.Fatalf("Query on empty store failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}

	frag, _, err := store.QueryWithDistance(ctx, "anything at all")
	if err != nil {
		t.Fatalf("QueryWithDistance on empty store failed: %v", err)
	}
	if frag != nil {
		t.Errorf("expected nil fragment, got %v", frag)
	}

	result, err := store.SearchText(ctx, "anything at all")
	if err != nil {
		t.Fatalf("SearchText on empty store failed: %v", err)
	}
	if result != NoMatchResult {
		t.Errorf("got %q, want no-match sentinel", result)
	}

	verdict, err := store.ScoreByDistance(ctx, "anything at all")
	if err != nil {
		t.Fatalf("ScoreByDistance on empty store failed: %v", err)
	}
	if !verdict.RequiresRevision || verdict.FaithfulnessScore != 0.0 {
		t.Errorf("expected zero-score revision verdict, got %+v", verdict)
	}
}

func TestStore_QueryOrdering(t *testing.T) {
	vectors := map[string][]float32{
		"exact":      {1, 0, 0, 0},
		"close":      {0.95, 0.3122, 0, 0}, // unit-ish vector near "exact"
		"orthogonal": {0, 1, 0, 0},
		"opposite":   {-1, 0, 0, 0},
		"the query":  {1, 0, 0, 0},
	}
	store := newTestStore(t, []string{"exact", "close", "orthogonal", "opposite"}, vectors)

	matches, err := store.Query(context.Background(), "the query", 4)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(matches) < 2 {
		t.Fatalf("expected at least 2 matches, got %v", matches)
	}
	if matches[0].Text != "exact" {
		t.Errorf("best match = %q, want %q", matches[0].Text, "exact")
	}
	if matches[1].Text != "close" {
		t.Errorf("second match = %q, want %q", matches[1].Text, "close")
	}
	for _, m := range matches {
		if m.Text == "opposite" {
			t.Errorf("fragment beyond the similarity floor should have been dropped: %v", matches)
		}
	}
}

func TestStore_FragmentIdentity(t *testing.T) {
	store := newTestStore(t, []string{"first fragment", "second fragment"}, nil)

	if store.Size() != 2 {
		t.Fatalf("Size = %d, want 2", store.Size())
	}
	frag, _, err := store.QueryWithDistance(context.Background(), "first fragment")
	if err != nil {
		t.Fatalf("QueryWithDistance failed: %v", err)
	}
	if frag == nil || frag.Text != "first fragment" {
		t.Fatalf("expected exact fragment back, got %v", frag)
	}
	if frag.ID != 0 {
		t.Errorf("fragment ID = %d, want position-derived 0", frag.ID)
	}
}

func TestStore_ScoreByDistance(t *testing.T) {
	vectors := map[string][]float32{
		"Tommy Atkins is the dominant export variety.": {0, 1, 0, 0},
		"unrelated claim entirely":                     {1, 0, 0, 0},
	}
	store := newTestStore(t, []string{"Tommy Atkins is the dominant export variety."}, vectors)
	ctx := context.Background()

	// Identical claim: distance 0, full score
	verdict, err := store.ScoreByDistance(ctx, "Tommy Atkins is the dominant export variety.")
	if err != nil {
		t.Fatalf("ScoreByDistance failed: %v", err)
	}
	if verdict.FaithfulnessScore != 1.0 {
		t.Errorf("score = %v, want 1.0", verdict.FaithfulnessScore)
	}
	if verdict.RequiresRevision {
		t.Error("exact match should not require revision")
	}
	if !strings.Contains(verdict.Rationale, "Vector distance") {
		t.Errorf("rationale missing distance: %q", verdict.Rationale)
	}

	// Orthogonal claim: distance 1.0, score 1 - 1/1.5 = 0.33
	verdict, err = store.ScoreByDistance(ctx, "unrelated claim entirely")
	if err != nil {
		t.Fatalf("ScoreByDistance failed: %v", err)
	}
	if verdict.FaithfulnessScore != 0.33 {
		t.Errorf("score = %v, want 0.33", verdict.FaithfulnessScore)
	}
	if !verdict.RequiresRevision {
		t.Error("orthogonal claim should require revision")
	}
}

func TestStore_ScoreByDistanceDeterministic(t *testing.T) {
	fragments := []string{"the corpus fragment one", "the corpus fragment two"}
	store := newTestStore(t, fragments, nil)
	ctx := context.Background()

	first, err := store.ScoreByDistance(ctx, "some claim to check")
	if err != nil {
		t.Fatalf("ScoreByDistance failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := store.ScoreByDistance(ctx, "some claim to check")
		if err != nil {
			t.Fatalf("ScoreByDistance failed on repeat %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("verdict changed between identical queries: %+v vs %+v", first, again)
		}
	}
}

func TestStore_ExecuteTool(t *testing.T) {
	store := newTestStore(t, []string{"mango exports grew", "harvest data here"}, nil)
	ctx := context.Background()

	t.Run("valid call", func(t *testing.T) {
		result, err := store.ExecuteTool(ctx, ToolVectorSearch, `{"query": "mango exports grew"}`)
		if err != nil {
			t.Fatalf("ExecuteTool failed: %v", err)
		}
		if !strings.Contains(result, "mango exports grew") {
			t.Errorf("result missing best match: %q", result)
		}
		if len(strings.Split(result, "\n")) != 2 {
			t.Errorf("expected top-2 newline-joined matches, got %q", result)
		}
	})

	t.Run("malformed arguments", func(t *testing.T) {
		if _, err := store.ExecuteTool(ctx, ToolVectorSearch, `{"query": `); err == nil {
			t.Error("expected error for malformed arguments")
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		if _, err := store.ExecuteTool(ctx, "drop_tables", `{}`); err == nil {
			t.Error("expected error for unknown tool")
		}
	})
}

func TestStore_ToolSchema(t *testing.T) {
	store := NewStore(&fakeEmbedder{}, 2)

	tools := store.Tools()
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Function.Name != ToolVectorSearch {
		t.Errorf("tool name = %q, want %q", tools[0].Function.Name, ToolVectorSearch)
	}
}
