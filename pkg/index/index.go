package index

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"flanergide/pkg/logger"
)

// Hit is one semantic match from the index. Score is cosine similarity
// in [-1, 1] (equivalently 1 minus cosine distance).
type Hit struct {
	ID       string
	Content  string
	Metadata map[string]string
	Score    float64
}

// Index wraps a persistent chromem-go collection holding one document per
// event: content is the rendered event text, metadata carries kind,
// device and timestamp as strings.
type Index struct {
	db  *chromem.DB
	col *chromem.Collection
}

const collectionName = "events"

// Open opens (or creates) the persistent index at path using the given
// embedding function for both documents and queries.
func Open(path string, embed chromem.EmbeddingFunc) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", path, err)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}
	logger.Info("index_opened", "path", path, "documents", col.Count())
	return &Index{db: db, col: col}, nil
}

// Add indexes one document. The id must be unique; re-adding an id
// replaces the previous document.
func (ix *Index) Add(ctx context.Context, id, content string, metadata map[string]string) error {
	doc := chromem.Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}
	if err := ix.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query runs a semantic search for the text. The where map is an exact
// metadata match filter (may be nil). n is clamped to the collection
// size; chromem rejects nResults greater than the matching document
// count, so retry downward until it accepts.
func (ix *Index) Query(ctx context.Context, text string, n int, where map[string]string) ([]Hit, error) {
	if ix.col.Count() == 0 {
		return nil, nil
	}
	if n < 1 {
		n = 1
	}
	if c := ix.col.Count(); n > c {
		n = c
	}
	var results []chromem.Result
	for limit := n; limit >= 1; limit-- {
		var err error
		results, err = ix.col.Query(ctx, text, limit, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("index query: %w", err)
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    float64(r.Similarity),
		})
	}
	return hits, nil
}

// Delete removes a document by id. Deleting an absent id is a no-op.
func (ix *Index) Delete(ctx context.Context, id string) error {
	if err := ix.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	return ix.col.Count()
}

// isInsufficientDocsError reports whether the query failed because
// nResults exceeded the matching document count.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "nResults must be") || strings.Contains(s, "number of documents")
}
