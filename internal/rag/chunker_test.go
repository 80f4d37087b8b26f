package rag

import (
	"strings"
	"testing"
)

const testDocument = `SECTION 1: Glycemic Targets
Fasting glucose should be 80-130 mg/dL for most nonpregnant adults.
SECTION 2: Nutrition Therapy
Emphasize fiber and low glycemic index carbohydrates in every meal.`

func TestExtractSections(t *testing.T) {
	sections := extractSections(testDocument)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Title != "Glycemic Targets" {
		t.Errorf("unexpected first title: %q", sections[0].Title)
	}
	if sections[1].Title != "Nutrition Therapy" {
		t.Errorf("unexpected second title: %q", sections[1].Title)
	}
	if !strings.Contains(sections[0].Content, "80-130") {
		t.Errorf("section body lost: %q", sections[0].Content)
	}
}

func TestExtractSectionsKeepsConsecutiveSections(t *testing.T) {
	doc := `SECTION 1: Targets
Fasting 80-130 mg/dL.
SECTION 2: Nutrition
Fiber 25-30g daily.
SECTION 3: Activity
150 minutes per week.`

	sections := extractSections(doc)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	want := []string{"Targets", "Nutrition", "Activity"}
	for i, title := range want {
		if sections[i].Title != title {
			t.Errorf("section %d title = %q, want %q", i, sections[i].Title, title)
		}
	}

	// Each short section produces one chunk; a dropped section would
	// shrink the index for every document ingested.
	chunks := NewChunker(300, 50).Ingest(doc)
	if len(chunks) != 3 {
		t.Fatalf("expected one chunk per section, got %d", len(chunks))
	}
	if chunks[1].Section != "Nutrition" {
		t.Errorf("middle section lost: %+v", chunks[1])
	}
}

func TestChunkerWordWindows(t *testing.T) {
	words := make([]string, 20)
	for i := range words {
		words[i] = "w"
	}
	doc := "SECTION 1: Overlap Test\n" + strings.Join(words, " ")

	// Title line counts toward the word total, so the section holds 22 words.
	chunks := NewChunker(10, 3).Ingest(doc)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks with step 7 over 22 words, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkID != i {
			t.Errorf("chunk %d has ChunkID %d", i, chunk.ChunkID)
		}
		if chunk.GlobalID != i {
			t.Errorf("chunk %d has GlobalID %d", i, chunk.GlobalID)
		}
		if chunk.Section != "Overlap Test" {
			t.Errorf("chunk %d has section %q", i, chunk.Section)
		}
		if chunk.Source != "ADA Standards of Care" {
			t.Errorf("chunk %d has source %q", i, chunk.Source)
		}
	}

	first := strings.Fields(chunks[0].Text)
	second := strings.Fields(chunks[1].Text)
	if len(first) != 10 {
		t.Fatalf("expected 10-word window, got %d", len(first))
	}
	// With overlap 3 the second window starts 7 words in.
	if first[7] != second[0] {
		t.Errorf("windows do not overlap: %q vs %q", first[7], second[0])
	}
}

func TestChunkerGlobalIDsSpanSections(t *testing.T) {
	chunks := NewChunker(300, 50).Ingest(testDocument)
	if len(chunks) != 2 {
		t.Fatalf("expected one chunk per short section, got %d", len(chunks))
	}
	if chunks[0].GlobalID != 0 || chunks[1].GlobalID != 1 {
		t.Errorf("global IDs not sequential: %d, %d", chunks[0].GlobalID, chunks[1].GlobalID)
	}
	// ChunkID restarts per section.
	if chunks[1].ChunkID != 0 {
		t.Errorf("expected per-section chunk ID to restart, got %d", chunks[1].ChunkID)
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	if c.ChunkSize != 300 || c.Overlap != 50 {
		t.Fatalf("expected defaults 300/50, got %d/%d", c.ChunkSize, c.Overlap)
	}
	c = NewChunker(12, 12)
	if c.Overlap != 2 {
		t.Fatalf("overlap >= chunk size must fall back below the window, got %d", c.Overlap)
	}
}
