package rag

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// On-disk layout: three files in one directory, loaded together as a
// unit. A missing file is a setup failure, not something to retry.
const (
	indexFile  = "index.json"
	chunksFile = "chunks.json"
	configFile = "config.json"
)

// Index is a flat vector index over the guideline chunks. Vectors are
// L2-normalized on insert, so inner product equals cosine similarity.
// Read-only after construction; safe to share across requests.
type Index struct {
	dim     int
	vectors [][]float32
}

// SearchResult pairs a chunk position with its similarity score.
type SearchResult struct {
	Position int
	Score    float32
}

func NewIndex(dim int) *Index {
	return &Index{dim: dim}
}

func (ix *Index) Len() int { return len(ix.vectors) }
func (ix *Index) Dim() int { return ix.dim }

// Add normalizes and appends one vector.
func (ix *Index) Add(vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), ix.dim)
	}
	ix.vectors = append(ix.vectors, normalize(vec))
	return nil
}

// Search returns the top-k most similar vectors by inner product over
// normalized vectors, highest score first.
func (ix *Index) Search(query []float32, k int) ([]SearchResult, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.dim)
	}
	q := normalize(query)

	results := make([]SearchResult, 0, len(ix.vectors))
	for pos, vec := range ix.vectors {
		var score float32
		for i := range vec {
			score += vec[i] * q[i]
		}
		results = append(results, SearchResult{Position: pos, Score: score})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return append([]float32{}, vec...)
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

/* ====================================================================
                        Persistence
==================================================================== */

type indexFileData struct {
	Dim     int         `json:"dim"`
	Vectors [][]float32 `json:"vectors"`
}

type indexConfig struct {
	EmbedModel string `json:"embed_model"`
}

// SaveIndex writes the three index files into dir, creating it if needed.
func SaveIndex(dir string, ix *Index, chunks []Chunk, embedModel string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, indexFile), indexFileData{Dim: ix.dim, Vectors: ix.vectors}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, chunksFile), chunks); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, configFile), indexConfig{EmbedModel: embedModel})
}

// LoadIndex reads the three index files back. All three must be present
// and consistent.
func LoadIndex(dir string) (*Index, []Chunk, string, error) {
	var data indexFileData
	if err := readJSON(filepath.Join(dir, indexFile), &data); err != nil {
		return nil, nil, "", err
	}

	var chunks []Chunk
	if err := readJSON(filepath.Join(dir, chunksFile), &chunks); err != nil {
		return nil, nil, "", err
	}

	var cfg indexConfig
	if err := readJSON(filepath.Join(dir, configFile), &cfg); err != nil {
		return nil, nil, "", err
	}

	if len(data.Vectors) != len(chunks) {
		return nil, nil, "", fmt.Errorf("index has %d vectors but %d chunks", len(data.Vectors), len(chunks))
	}

	ix := &Index{dim: data.Dim, vectors: data.Vectors}
	return ix, chunks, cfg.EmbedModel, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
