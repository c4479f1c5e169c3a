package models

// IncomingEvent is one device-originated event in a push batch. Ids are
// always assigned server-side; any id sent by the device is ignored.
type IncomingEvent struct {
	Kind      string         `json:"kind"`
	Timestamp int64          `json:"timestamp,omitempty"`
	Device    string         `json:"device,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// PushItemResult reports the outcome of one pushed event.
type PushItemResult struct {
	EventIndex int    `json:"event_index"`
	ID         string `json:"id,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// PushResult summarizes a push batch. A partial failure still stores the
// rest of the batch.
type PushResult struct {
	Received int              `json:"received"`
	Stored   int              `json:"stored"`
	Failed   int              `json:"failed"`
	Results  []PushItemResult `json:"results"`
}

// SyncContext accompanies every pull so the device can advance its cursor.
type SyncContext struct {
	LastSync       int64 `json:"last_sync"`
	NewEventsCount int   `json:"new_events_count"`
	ServerTime     int64 `json:"server_time"`
}

// PullResult is the full pull payload: current state plus events newer
// than the device cursor.
type PullResult struct {
	State   StateSnapshot `json:"state"`
	Events  []Event       `json:"events"`
	Context SyncContext   `json:"context"`
}

// LogEntry is one captured device log line. TimestampMs is the device's
// millisecond clock.
type LogEntry struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Source      string `json:"source"`
	Text        string `json:"text"`
}
