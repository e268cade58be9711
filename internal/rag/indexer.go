package rag

import (
	"context"
	"fmt"

	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"
	"rpgm-translator/internal/textutil"
	"rpgm-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

// BatchEmbedder embeds several texts per call.
type BatchEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// MemoryStore persists translation memory records.
type MemoryStore interface {
	Store(ctx context.Context, records []MemoryRecord) error
}

// RowLinker links an indexed row to the glossary terms it uses.
type RowLinker interface {
	LinkRow(ctx context.Context, file, source string) error
}

// Indexer loads every translated row of the corpus into translation memory.
type Indexer struct {
	fs        fsio.FS
	walker    *corpus.Walker
	embedder  BatchEmbedder
	store     MemoryStore
	graph     RowLinker
	workers   int
	batchSize int
}

// NewIndexer creates an indexer.
func NewIndexer(fsys fsio.FS, walker *corpus.Walker, embedder BatchEmbedder, store MemoryStore, workers, batchSize int) *Indexer {
	return &Indexer{
		fs:        fsys,
		walker:    walker,
		embedder:  embedder,
		store:     store,
		workers:   workers,
		batchSize: batchSize,
	}
}

// SetGraph links each indexed row in the glossary graph as well.
func (ix *Indexer) SetGraph(rl RowLinker) {
	ix.graph = rl
}

// Collect gathers every non-comment row that has a translation. A row is
// keyed by its file and source, so repeated sources within a file collapse
// into one record.
func (ix *Indexer) Collect() ([]MemoryRecord, error) {
	files, err := ix.walker.Files("")
	if err != nil {
		return nil, err
	}

	var records []MemoryRecord
	seen := make(map[string]bool)

	for _, f := range files {
		content, err := ix.fs.ReadTextFile(f.Path)
		if err != nil {
			log.Error().Err(err).Str("file", f.Name).Msg("Failed to read file for indexing")
			continue
		}

		name := corpus.TabName(f.Name)
		for _, line := range textutil.SplitLines(content) {
			parsed, ok := row.Parse(line)
			if !ok || row.IsComment(parsed.Source()) {
				continue
			}
			translation, _ := parsed.Translation()
			if translation == "" || parsed.Source() == "" {
				continue
			}

			hash := textutil.Hash(name, parsed.Source())
			if seen[hash] {
				continue
			}
			seen[hash] = true

			records = append(records, MemoryRecord{
				Hash:        hash,
				File:        name,
				Source:      parsed.Source(),
				Translation: translation,
			})
		}
	}

	return records, nil
}

// Index embeds and stores every collected row. It returns the number of
// rows stored.
func (ix *Indexer) Index(ctx context.Context) (int, error) {
	records, err := ix.Collect()
	if err != nil {
		return 0, fmt.Errorf("collect rows: %w", err)
	}
	if len(records) == 0 {
		log.Info().Msg("No translated rows to index")
		return 0, nil
	}

	batches := worker.Batch(records, ix.batchSize)
	log.Info().Int("rows", len(records)).Int("batches", len(batches)).Msg("Indexing translation memory")

	pool := worker.NewPool("index", ix.workers, ix.indexBatch)
	tasks := pool.Execute(ctx, batches)

	stored := 0
	for _, t := range tasks {
		if t.Err == nil {
			stored += t.Result
		}
	}

	log.Info().Int("stored", stored).Int("rows", len(records)).Msg("Indexing complete")
	return stored, worker.Errors(tasks)
}

func (ix *Indexer) indexBatch(ctx context.Context, batch []MemoryRecord) (int, error) {
	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.Source
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("got %d embeddings for %d rows", len(vectors), len(batch))
	}

	records := make([]MemoryRecord, len(batch))
	for i, r := range batch {
		r.Vector = vectors[i]
		records[i] = r
	}

	if err := ix.store.Store(ctx, records); err != nil {
		return 0, err
	}

	if ix.graph != nil {
		for _, r := range records {
			if err := ix.graph.LinkRow(ctx, r.File, r.Source); err != nil {
				log.Warn().Err(err).Str("file", r.File).Msg("Failed to link row in glossary graph")
			}
		}
	}

	return len(records), nil
}
