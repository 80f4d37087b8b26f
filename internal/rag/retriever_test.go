package rag

import (
	"context"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"

	"chroniccare/internal/models"
)

// fakeEmbedder returns a fixed vector and counts model calls.
type fakeEmbedder struct {
	vec   []float32
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vec, nil
}

func newTestRetriever(t *testing.T, embedder Embedder, chunks []Chunk, vectors [][]float32) *Retriever {
	t.Helper()

	ix := NewIndex(len(vectors[0]))
	for _, vec := range vectors {
		if err := ix.Add(vec); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	cache, err := lru.New[string, []float32](32)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	return &Retriever{index: ix, chunks: chunks, embedder: embedder, cache: cache}
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	chunks := []Chunk{
		{Text: "fasting glucose targets", Section: "Targets", Source: "ADA Standards of Care"},
		{Text: "fiber and glycemic index guidance", Section: "Nutrition", Source: "ADA Standards of Care"},
		{Text: "exercise recommendations", Section: "Activity", Source: "ADA Standards of Care"},
	}
	embedder := &fakeEmbedder{vec: []float32{0, 1, 0}}
	r := newTestRetriever(t, embedder, chunks, [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})

	results, err := r.Retrieve(context.Background(), "nutrition", 2)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Section != "Nutrition" {
		t.Errorf("expected nutrition chunk first, got %q", results[0].Section)
	}
	if results[0].SimilarityScore <= results[1].SimilarityScore {
		t.Errorf("results not ranked: %f then %f", results[0].SimilarityScore, results[1].SimilarityScore)
	}
}

func TestQueryEmbeddingCache(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	r := newTestRetriever(t, embedder, []Chunk{{Text: "a"}}, [][]float32{{1, 0}})

	for i := 0; i < 3; i++ {
		if _, err := r.Retrieve(context.Background(), "same query", 1); err != nil {
			t.Fatalf("retrieve %d failed: %v", i, err)
		}
	}
	if embedder.calls != 1 {
		t.Fatalf("expected a single embedding call for a repeated query, got %d", embedder.calls)
	}

	if _, err := r.Retrieve(context.Background(), "different query", 1); err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if embedder.calls != 2 {
		t.Fatalf("expected new query to reach the embedder, got %d calls", embedder.calls)
	}
}

func TestExtractGuidelines(t *testing.T) {
	chunks := []Chunk{
		{Text: "adults need 25-30g of fiber daily", Section: "Nutrition", Source: "ADA Standards of Care"},
		{Text: "prefer low glycemic index foods", Section: "Nutrition", Source: "Dietary Reference Intakes"},
	}
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	r := newTestRetriever(t, embedder, chunks, [][]float32{{1, 0}, {0, 1}})

	guidelines, err := r.ExtractGuidelines(context.Background(), models.UserProfile{}, models.HealthData{})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if guidelines.GlycemicTargets.Fasting != "80-130 mg/dL" {
		t.Errorf("unexpected fasting target: %q", guidelines.GlycemicTargets.Fasting)
	}
	if guidelines.SafetyThresholds.RedFlagHigh.Value != 250 {
		t.Errorf("unexpected red flag value: %d", guidelines.SafetyThresholds.RedFlagHigh.Value)
	}

	// Sources appear once each, sorted, regardless of how many queries hit them.
	want := []string{"ADA Standards of Care", "Dietary Reference Intakes"}
	if len(guidelines.Citations) != len(want) {
		t.Fatalf("expected %d citations, got %v", len(want), guidelines.Citations)
	}
	for i, citation := range want {
		if guidelines.Citations[i] != citation {
			t.Errorf("citation %d = %q, want %q", i, guidelines.Citations[i], citation)
		}
	}

	// Both keyword triggers fire: the diet query retrieves both chunks.
	recs := guidelines.DietGuidelines.Recommendations
	if len(recs) != 2 {
		t.Fatalf("expected 2 keyword recommendations, got %v", recs)
	}
	hasFiber, hasGI := false, false
	for _, rec := range recs {
		switch rec {
		case "Increase fiber intake from whole grains and vegetables":
			hasFiber = true
		case "Choose low glycemic index carbohydrates":
			hasGI = true
		}
	}
	if !hasFiber || !hasGI {
		t.Errorf("missing keyword recommendation in %v", recs)
	}
}
