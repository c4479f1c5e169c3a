package memory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"flanergide/pkg/index"
	"flanergide/pkg/logger"
	"flanergide/pkg/models"
	"flanergide/pkg/store"
)

// ErrMissingKind is returned when an event arrives without a kind.
var ErrMissingKind = errors.New("event kind is required")

const (
	maxPageSize = 100
	maxSearchK  = 100
)

// Indexer is the embedding index surface the service needs. *index.Index
// satisfies it.
type Indexer interface {
	Add(ctx context.Context, id, content string, metadata map[string]string) error
	Query(ctx context.Context, text string, n int, where map[string]string) ([]index.Hit, error)
	Delete(ctx context.Context, id string) error
}

// Service is the semantic event store. The pebble record is authoritative
// for payloads and ordering; the embedding index answers similarity
// queries over the rendered event text.
type Service struct {
	ix Indexer
}

func NewService(ix Indexer) *Service {
	return &Service{ix: ix}
}

// Insert validates, persists and indexes a new event. The returned event
// carries the server-assigned id; on any failure no id is returned and no
// partial write survives.
func (s *Service) Insert(ctx context.Context, kind string, data map[string]any, device string, ts int64) (models.Event, error) {
	if kind == "" {
		return models.Event{}, ErrMissingKind
	}
	if ts <= 0 {
		ts = time.Now().Unix()
	}
	ev := models.Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: ts,
		Device:    device,
		Data:      data,
	}
	if err := store.SaveEvent(ev); err != nil {
		return models.Event{}, fmt.Errorf("save event: %w", err)
	}
	meta := map[string]string{
		"kind": kind,
		"ts":   strconv.FormatInt(ts, 10),
	}
	if device != "" {
		meta["device"] = device
	}
	if err := s.ix.Add(ctx, ev.ID, Render(kind, data), meta); err != nil {
		// roll back the record so a failed insert leaves nothing behind
		if derr := store.DeleteEvent(ev.ID); derr != nil && !errors.Is(derr, store.ErrNotFound) {
			logger.Error("event_rollback_failed", "id", ev.ID, "err", derr)
		}
		return models.Event{}, fmt.Errorf("index event: %w", err)
	}
	logger.Info("event_stored", "id", ev.ID, "kind", kind, "ts", ts)
	return ev, nil
}

// Search runs a semantic query. k is clamped to [1, 100] and to the index
// size. The kind filter is pushed down to the index; the timestamp range
// is applied afterwards, which is linear in k and fine for a personal
// corpus.
func (s *Service) Search(ctx context.Context, query string, k int, filter models.SearchFilter) ([]models.SearchHit, error) {
	if k < 1 {
		k = 1
	}
	if k > maxSearchK {
		k = maxSearchK
	}
	var where map[string]string
	if filter.Kind != "" {
		where = map[string]string{"kind": filter.Kind}
	}
	hits, err := s.ix.Query(ctx, query, k, where)
	if err != nil {
		return nil, err
	}
	out := make([]models.SearchHit, 0, len(hits))
	for _, h := range hits {
		ev, err := store.GetEvent(h.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Warn("indexed_event_missing_record", "id", h.ID)
				continue
			}
			return nil, err
		}
		if filter.Start > 0 && ev.Timestamp < filter.Start {
			continue
		}
		if filter.End > 0 && ev.Timestamp > filter.End {
			continue
		}
		out = append(out, models.SearchHit{Event: ev, Score: h.Score})
	}
	return out, nil
}

// Recent returns a newest-first page of events. Limit is clamped to
// [1, 100], a negative offset becomes 0, and Total always reflects the
// full filtered set so pagination past the end yields an empty page with
// a correct total.
func (s *Service) Recent(ctx context.Context, limit, offset int, kind string) (models.Page, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	var all []models.Event
	err := store.ListEvents(func(ev models.Event) bool {
		if kind != "" && ev.Kind != kind {
			return true
		}
		all = append(all, ev)
		return true
	})
	if err != nil {
		return models.Page{}, err
	}
	page := models.Page{Total: len(all), Limit: limit, Offset: offset, Events: []models.Event{}}
	if offset < len(all) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		page.Events = all[offset:end]
	}
	return page, nil
}

// Delete removes an event from both the record and the index. It returns
// false when the id does not exist.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if err := store.DeleteEvent(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := s.ix.Delete(ctx, id); err != nil {
		// the record is gone; a stale index entry only fades relevance
		// and must not turn a completed delete into a client error
		logger.Warn("deindex_event_failed", "id", id, "err", err)
	}
	return true, nil
}
