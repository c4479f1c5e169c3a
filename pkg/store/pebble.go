package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"flanergide/pkg/logger"
	"flanergide/pkg/models"

	"github.com/cockroachdb/pebble"
)

var (
	db     *pebble.DB
	dbPath string
)

// ErrNotFound is returned when a lookup key has no record.
var ErrNotFound = errors.New("not found")

const (
	eventPrefix  = "event:"
	idPrefix     = "eventid:"
	cursorPrefix = "cursor:"
)

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_event_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("event_db_open_failed", "path", path, "err", err)
		return err
	}
	dbPath = path
	logger.Info("event_db_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("event_db_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// eventKey builds the sortable primary key for an event.
// Format: event:<unix_seconds_padded>-<id>. The id suffix keeps keys
// unique across restarts even when timestamps collide at second
// granularity.
func eventKey(ts int64, id string) string {
	return fmt.Sprintf("%s%020d-%s", eventPrefix, ts, id)
}

// SaveEvent persists the event record under a timestamp-sorted key and an
// id index entry pointing back at it. Reverse iteration over the event
// prefix therefore yields newest-first ordering.
func SaveEvent(ev models.Event) error {
	if db == nil {
		return fmt.Errorf("event db not opened; call store.Open first")
	}
	if ev.ID == "" {
		return fmt.Errorf("event id is empty")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	key := eventKey(ev.Timestamp, ev.ID)
	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("save_event_failed", "key", key, "err", err)
		return err
	}
	if err := db.Set([]byte(idPrefix+ev.ID), []byte(key), pebble.Sync); err != nil {
		logger.Error("save_event_index_failed", "id", ev.ID, "err", err)
		return err
	}
	logger.Debug("event_saved", "key", key, "id", ev.ID, "kind", ev.Kind)
	return nil
}

// GetEvent returns the stored event for an id, or ErrNotFound.
func GetEvent(id string) (models.Event, error) {
	var ev models.Event
	if db == nil {
		return ev, fmt.Errorf("event db not opened; call store.Open first")
	}
	key, err := lookupKey(id)
	if err != nil {
		return ev, err
	}
	v, closer, err := db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ev, ErrNotFound
		}
		return ev, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &ev); err != nil {
		return ev, fmt.Errorf("invalid stored event: %w", err)
	}
	return ev, nil
}

// DeleteEvent removes the event record and its id index entry. It returns
// ErrNotFound when the id is unknown.
func DeleteEvent(id string) error {
	if db == nil {
		return fmt.Errorf("event db not opened; call store.Open first")
	}
	key, err := lookupKey(id)
	if err != nil {
		return err
	}
	if err := db.Delete(key, pebble.Sync); err != nil {
		logger.Error("delete_event_failed", "id", id, "err", err)
		return err
	}
	if err := db.Delete([]byte(idPrefix+id), pebble.Sync); err != nil {
		logger.Error("delete_event_index_failed", "id", id, "err", err)
		return err
	}
	logger.Info("event_deleted", "id", id)
	return nil
}

func lookupKey(id string) ([]byte, error) {
	v, closer, err := db.Get([]byte(idPrefix + id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

// ListEvents walks events newest-first and calls fn for each until fn
// returns false or the prefix is exhausted.
func ListEvents(fn func(ev models.Event) bool) error {
	if db == nil {
		return fmt.Errorf("event db not opened; call store.Open first")
	}
	prefix := []byte(eventPrefix)
	// upper bound is the prefix with the last byte incremented
	upper := []byte(eventPrefix)
	upper[len(upper)-1]++
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.Last(); iter.Valid(); iter.Prev() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var ev models.Event
		if err := json.Unmarshal(iter.Value(), &ev); err != nil {
			logger.Warn("skip_invalid_event_record", "key", string(iter.Key()), "err", err)
			continue
		}
		if !fn(ev) {
			break
		}
	}
	return iter.Error()
}

// CountEvents returns the total number of stored event records.
func CountEvents() (int, error) {
	n := 0
	err := ListEvents(func(models.Event) bool {
		n++
		return true
	})
	return n, err
}

// GetCursor returns a small named integer value, 0 when unset. Cursors
// survive restarts (commentary prompt rotation lives here).
func GetCursor(name string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("event db not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte(cursorPrefix + name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	defer closer.Close()
	var n int64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, fmt.Errorf("invalid cursor value: %w", err)
	}
	return n, nil
}

// SetCursor persists a small named integer value.
func SetCursor(name string, n int64) error {
	if db == nil {
		return fmt.Errorf("event db not opened; call store.Open first")
	}
	b, _ := json.Marshal(n)
	if err := db.Set([]byte(cursorPrefix+name), b, pebble.Sync); err != nil {
		logger.Error("set_cursor_failed", "name", name, "err", err)
		return err
	}
	return nil
}
