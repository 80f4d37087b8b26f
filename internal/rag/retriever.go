package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"chroniccare/internal/models"
)

// Embedder produces the query embedding. The same model that built the
// index must serve queries; LoadIndex returns its name for the caller to
// verify or configure.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// The four fixed retrieval queries. These never vary per request, which
// is why caching their embeddings pays off.
var guidelineQueries = map[string]string{
	"glycemic_targets":    "diabetes glucose targets fasting postprandial HbA1c thresholds",
	"diet_guidelines":     "diabetes nutrition diet carbohydrate fiber glycemic index foods",
	"activity_guidelines": "diabetes physical activity exercise aerobic resistance training",
	"safety_thresholds":   "diabetes glucose red flag emergency hypoglycemia hyperglycemia",
}

const defaultTopK = 3

// RetrievedChunk is a chunk with its similarity score attached.
type RetrievedChunk struct {
	Chunk
	SimilarityScore float32 `json:"similarity_score"`
}

/* ====================================================================
                Fixed-schema guideline bundle
==================================================================== */

// The numeric content below is hardcoded ADA constants. Retrieval output
// feeds only the citation list and a couple of keyword-triggered
// advisory strings; it never changes a number a planner branches on.

type DietGuidelines struct {
	Carbs           string   `json:"carbs"`
	Fiber           string   `json:"fiber"`
	Avoid           []string `json:"avoid"`
	Emphasize       []string `json:"emphasize"`
	Recommendations []string `json:"recommendations"`
}

type ActivityGuidelines struct {
	Aerobic     string   `json:"aerobic"`
	Strength    string   `json:"strength"`
	Frequency   string   `json:"frequency"`
	Progression string   `json:"progression"`
	Safety      []string `json:"safety"`
}

type GlucoseRange struct {
	TargetMin int    `json:"target_min,omitempty"`
	TargetMax int    `json:"target_max,omitempty"`
	Target    int    `json:"target,omitempty"`
	Value     int    `json:"value,omitempty"`
	Action    string `json:"action,omitempty"`
	Unit      string `json:"unit"`
}

type SafetyThresholds struct {
	FastingGlucose  GlucoseRange `json:"fasting_glucose"`
	PostMealGlucose GlucoseRange `json:"post_meal_glucose"`
	RedFlagHigh     GlucoseRange `json:"red_flag_high"`
	RedFlagLow      GlucoseRange `json:"red_flag_low"`
}

type GlycemicTargets struct {
	Fasting    string `json:"fasting"`
	PostMeal   string `json:"post_meal"`
	HbA1c      string `json:"hba1c"`
	Population string `json:"population"`
}

// Guidelines is the fixed-shape bundle the planners consume.
type Guidelines struct {
	DietGuidelines     DietGuidelines     `json:"diet_guidelines"`
	ActivityGuidelines ActivityGuidelines `json:"activity_guidelines"`
	SafetyThresholds   SafetyThresholds   `json:"safety_thresholds"`
	GlycemicTargets    GlycemicTargets    `json:"glycemic_targets"`
	Citations          []string           `json:"citations"`
}

/* ====================================================================
                        Retriever
==================================================================== */

// Retriever answers semantic queries against a loaded guideline index.
// Read-only after construction.
type Retriever struct {
	index    *Index
	chunks   []Chunk
	embedder Embedder

	// Query embeddings keyed by query text. Small, but saves one model
	// forward pass per category per request.
	cache *lru.Cache[string, []float32]
}

// NewRetriever loads the index directory and wires the embedder.
func NewRetriever(indexDir string, embedder Embedder) (*Retriever, error) {
	index, chunks, embedModel, err := LoadIndex(indexDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load guideline index: %w", err)
	}

	cache, err := lru.New[string, []float32](32)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("chunks", len(chunks)).
		Str("embed_model", embedModel).
		Msg("Guideline index loaded")

	return &Retriever{
		index:    index,
		chunks:   chunks,
		embedder: embedder,
		cache:    cache,
	}, nil
}

// Retrieve returns the top-k chunks most similar to the query.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]RetrievedChunk, error) {
	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.index.Search(vec, topK)
	if err != nil {
		return nil, err
	}

	results := make([]RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, RetrievedChunk{
			Chunk:           r.chunks[hit.Position],
			SimilarityScore: hit.Score,
		})
	}
	return results, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := r.cache.Get(query); ok {
		return vec, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	r.cache.Add(query, vec)
	return vec, nil
}

// ExtractGuidelines runs the four fixed queries and maps the results
// into the fixed guideline schema. Profile and health are accepted for
// interface stability; the queries themselves do not vary by patient.
func (r *Retriever) ExtractGuidelines(ctx context.Context, _ models.UserProfile, _ models.HealthData) (Guidelines, error) {
	retrieved := make(map[string][]RetrievedChunk, len(guidelineQueries))
	for category, query := range guidelineQueries {
		results, err := r.Retrieve(ctx, query, defaultTopK)
		if err != nil {
			return Guidelines{}, fmt.Errorf("retrieval for %s failed: %w", category, err)
		}
		retrieved[category] = results
	}

	return Guidelines{
		DietGuidelines:     extractDietGuidelines(retrieved["diet_guidelines"]),
		ActivityGuidelines: extractActivityGuidelines(),
		SafetyThresholds:   extractSafetyThresholds(),
		GlycemicTargets:    extractGlycemicTargets(),
		Citations:          extractCitations(retrieved),
	}, nil
}

func extractDietGuidelines(chunks []RetrievedChunk) DietGuidelines {
	info := DietGuidelines{
		Carbs: "Emphasize low glycemic index foods",
		Fiber: "Minimum 25-30g per day",
		Avoid: []string{"refined carbohydrates", "sugary beverages", "added sugars"},
		Emphasize: []string{
			"non-starchy vegetables",
			"whole grains",
			"legumes",
			"lean proteins",
			"healthy fats",
		},
		Recommendations: []string{},
	}

	// The only place retrieved text influences output: presence of a
	// keyword toggles an advisory sentence.
	for _, chunk := range chunks {
		text := strings.ToLower(chunk.Text)
		if strings.Contains(text, "fiber") {
			info.Recommendations = append(info.Recommendations, "Increase fiber intake from whole grains and vegetables")
		}
		if strings.Contains(text, "glycemic index") {
			info.Recommendations = append(info.Recommendations, "Choose low glycemic index carbohydrates")
		}
	}

	return info
}

func extractActivityGuidelines() ActivityGuidelines {
	return ActivityGuidelines{
		Aerobic:     "150 minutes per week of moderate-intensity activity",
		Strength:    "2-3 sessions per week on non-consecutive days",
		Frequency:   "At least 3 days per week with no more than 2 consecutive days without activity",
		Progression: "Start slowly if sedentary and progress gradually",
		Safety: []string{
			"Check glucose before and after exercise",
			"Carry fast-acting carbohydrate",
			"Stay hydrated",
		},
	}
}

func extractSafetyThresholds() SafetyThresholds {
	return SafetyThresholds{
		FastingGlucose:  GlucoseRange{TargetMin: 80, TargetMax: 130, Unit: "mg/dL"},
		PostMealGlucose: GlucoseRange{Target: 180, Unit: "mg/dL"},
		RedFlagHigh:     GlucoseRange{Value: 250, Action: "Contact healthcare provider immediately", Unit: "mg/dL"},
		RedFlagLow:      GlucoseRange{Value: 70, Action: "Risk of hypoglycemia - contact healthcare provider", Unit: "mg/dL"},
	}
}

func extractGlycemicTargets() GlycemicTargets {
	return GlycemicTargets{
		Fasting:    "80-130 mg/dL",
		PostMeal:   "<180 mg/dL",
		HbA1c:      "<7.0%",
		Population: "Most nonpregnant adults with diabetes",
	}
}

// extractCitations collects the distinct chunk sources across all
// categories, sorted for stable output.
func extractCitations(retrieved map[string][]RetrievedChunk) []string {
	seen := map[string]bool{}
	for _, results := range retrieved {
		for _, chunk := range results {
			if chunk.Source != "" {
				seen[chunk.Source] = true
			}
		}
	}

	citations := make([]string, 0, len(seen))
	for source := range seen {
		citations = append(citations, source)
	}
	sort.Strings(citations)
	return citations
}
