// Package rag holds the guideline retrieval pipeline: chunking of the
// source document, the on-disk vector index, and the retriever that maps
// semantic search results into the fixed guideline schema.
package rag

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// defaultSource is stamped on every chunk; it surfaces later as the
// citation string on generated plans.
const defaultSource = "ADA Standards of Care"

// Chunk is the unit of indexing: a word-window slice of one guideline
// section, with enough metadata to cite it.
type Chunk struct {
	Text     string `json:"text"`
	Section  string `json:"section"`
	Source   string `json:"source"`
	ChunkID  int    `json:"chunk_id"`
	GlobalID int    `json:"global_id"`
}

// Chunker splits a sectioned guideline document into overlapping
// word-window chunks.
type Chunker struct {
	ChunkSize int // words per chunk
	Overlap   int // words shared between consecutive chunks
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 300
	}
	// Invalid overlap falls back to one sixth of the window, which gives
	// the standard 50 for the default 300-word chunks.
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 6
	}
	return &Chunker{ChunkSize: chunkSize, Overlap: overlap}
}

type section struct {
	Title   string
	Content string
}

var sectionMarker = regexp.MustCompile(`SECTION \d+:`)

// extractSections splits the document on "SECTION N:" markers. Each
// section runs from its marker to the start of the next one; the first
// line after the marker is the section title. Slicing between marker
// positions keeps every section, including adjacent ones.
func extractSections(content string) []section {
	marks := sectionMarker.FindAllStringIndex(content, -1)

	var sections []section
	for i, mark := range marks {
		end := len(content)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		body := strings.TrimSpace(content[mark[1]:end])
		if body == "" {
			continue
		}
		title := strings.TrimSpace(strings.SplitN(body, "\n", 2)[0])
		sections = append(sections, section{Title: title, Content: body})
	}
	return sections
}

func (c *Chunker) chunkSection(sec section) []Chunk {
	words := strings.Fields(sec.Content)

	var chunks []Chunk
	step := c.ChunkSize - c.Overlap
	for start := 0; start < len(words); start += step {
		end := start + c.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Text:    strings.Join(words[start:end], " "),
			Section: sec.Title,
			Source:  defaultSource,
			ChunkID: len(chunks),
		})
	}
	return chunks
}

// IngestFile loads a guideline document and returns its chunks with
// global IDs assigned.
func (c *Chunker) IngestFile(path string) ([]Chunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guideline document: %w", err)
	}
	return c.Ingest(string(content)), nil
}

// Ingest chunks an already-loaded document.
func (c *Chunker) Ingest(content string) []Chunk {
	var all []Chunk
	for _, sec := range extractSections(content) {
		all = append(all, c.chunkSection(sec)...)
	}
	for i := range all {
		all[i].GlobalID = i
	}
	return all
}
