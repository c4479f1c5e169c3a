package syncer

import (
	"context"
	"time"

	"flanergide/pkg/journal"
	"flanergide/pkg/logger"
	"flanergide/pkg/memory"
	"flanergide/pkg/models"
	"flanergide/pkg/state"
)

const pullWindow = 50

// Coordinator implements single-device pull/push over the event store
// and state cache. The sync cursor lives on the device; pull is read-only
// and safe to retry. Push is not idempotent: ids are server-assigned, so
// the device must drop acknowledged items before retrying a partial
// batch.
type Coordinator struct {
	events  *memory.Service
	state   *state.Manager
	journal *journal.Journal
}

func New(ev *memory.Service, st *state.Manager, j *journal.Journal) *Coordinator {
	return &Coordinator{events: ev, state: st, journal: j}
}

// Pull returns the current state snapshot plus recent events newer than
// the device cursor. The window fetches the 50 most recent events and
// filters client-side against since, so a device further than 50 events
// behind catches up over multiple pulls.
func (c *Coordinator) Pull(ctx context.Context, since int64) (models.PullResult, error) {
	page, err := c.events.Recent(ctx, pullWindow, 0, "")
	if err != nil {
		return models.PullResult{}, err
	}
	fresh := make([]models.Event, 0, len(page.Events))
	for _, ev := range page.Events {
		if ev.Timestamp > since {
			fresh = append(fresh, ev)
		}
	}
	res := models.PullResult{
		State:  c.state.Snapshot(),
		Events: fresh,
		Context: models.SyncContext{
			LastSync:       since,
			NewEventsCount: len(fresh),
			ServerTime:     time.Now().Unix(),
		},
	}
	logger.Info("sync_pull", "since", since, "new_events", len(fresh))
	return res, nil
}

// Push stores a device batch one event at a time. A failed item records
// its error (truncated to 100 chars) and the rest of the batch still
// lands.
func (c *Coordinator) Push(ctx context.Context, batch []models.IncomingEvent) (models.PushResult, error) {
	res := models.PushResult{
		Received: len(batch),
		Results:  make([]models.PushItemResult, 0, len(batch)),
	}
	for i, in := range batch {
		ev, err := c.events.Insert(ctx, in.Kind, in.Data, in.Device, in.Timestamp)
		if err != nil {
			res.Failed++
			res.Results = append(res.Results, models.PushItemResult{
				EventIndex: i,
				Success:    false,
				Error:      truncateErr(err),
			})
			continue
		}
		res.Stored++
		res.Results = append(res.Results, models.PushItemResult{
			EventIndex: i,
			ID:         ev.ID,
			Success:    true,
		})
	}
	logger.Info("sync_push", "received", res.Received, "stored", res.Stored, "failed", res.Failed)
	return res, nil
}

// Logs indexes uploaded device log lines: each entry becomes a
// captured_text event (millisecond device clocks become unix seconds at
// the store boundary) and a journal line for daily summaries.
func (c *Coordinator) Logs(ctx context.Context, device string, entries []models.LogEntry) (int, error) {
	indexed := 0
	for _, e := range entries {
		if e.Text == "" {
			continue
		}
		t := time.UnixMilli(e.TimestampMs)
		if e.TimestampMs <= 0 {
			t = time.Now()
		}
		if _, err := c.events.Insert(ctx, "captured_text", map[string]any{
			"text":   e.Text,
			"source": e.Source,
		}, device, t.Unix()); err != nil {
			logger.Warn("log_entry_index_failed", "source", e.Source, "err", err)
			continue
		}
		if err := c.journal.Append(t, e.Source, e.Text); err != nil {
			logger.Warn("log_entry_journal_failed", "source", e.Source, "err", err)
		}
		indexed++
	}
	logger.Info("logs_uploaded", "received", len(entries), "indexed", indexed)
	return indexed, nil
}

func truncateErr(err error) string {
	s := err.Error()
	if len(s) > 100 {
		return s[:100]
	}
	return s
}
