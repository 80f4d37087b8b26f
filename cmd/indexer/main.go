// Command indexer builds the guideline vector index from a source text
// file segmented by "SECTION N:" markers. It chunks each section, embeds
// every chunk through the local Ollama server, and writes the index
// files the API loads at startup.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"chroniccare/internal/ollama"
	"chroniccare/internal/rag"
)

func main() {
	var (
		guidelinePath = flag.String("guidelines", "data/ada_guidelines.txt", "path to guideline text file")
		outDir        = flag.String("out", "data/guideline_index", "output directory for index files")
		chunkSize     = flag.Int("chunk-size", 300, "chunk size in words")
		overlap       = flag.Int("overlap", 50, "chunk overlap in words")
		ollamaURL     = flag.String("ollama-url", "", "Ollama server URL (default from OLLAMA_URL)")
		embedModel    = flag.String("embed-model", "", "embedding model (default from OLLAMA_EMBED_MODEL)")
	)
	flag.Parse()

	client := ollama.New(*ollamaURL, "", *embedModel)

	chunker := rag.NewChunker(*chunkSize, *overlap)
	chunks, err := chunker.IngestFile(*guidelinePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *guidelinePath).Msg("could not read guideline file")
	}
	if len(chunks) == 0 {
		log.Fatal().Str("path", *guidelinePath).Msg("no chunks produced; check SECTION markers")
	}
	log.Info().Int("chunks", len(chunks)).Msg("Guideline text chunked")

	ctx := context.Background()
	start := time.Now()

	var index *rag.Index
	for i, chunk := range chunks {
		vec, err := client.Embed(ctx, chunk.Text)
		if err != nil {
			log.Fatal().Err(err).Int("chunk", i).Msg("embedding failed")
		}
		if index == nil {
			index = rag.NewIndex(len(vec))
		}
		if err := index.Add(vec); err != nil {
			log.Fatal().Err(err).Int("chunk", i).Msg("could not add vector to index")
		}
	}
	log.Info().
		Int("vectors", index.Len()).
		Int("dim", index.Dim()).
		Dur("elapsed", time.Since(start)).
		Msg("Embeddings complete")

	if err := rag.SaveIndex(*outDir, index, chunks, client.EmbedModel); err != nil {
		log.Fatal().Err(err).Str("dir", *outDir).Msg("could not write index")
	}
	log.Info().Str("dir", *outDir).Msg("Guideline index written")
}
