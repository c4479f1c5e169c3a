package models

// Event is a single remembered life event. Timestamp is unix seconds;
// millisecond device timestamps are converted at the sync edge.
type Event struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Timestamp int64          `json:"timestamp"`
	Device    string         `json:"device,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// SearchHit is an event with its similarity score. Score is cosine
// similarity in [-1, 1] and may be negative for dissimilar pairs.
type SearchHit struct {
	Event
	Score float64 `json:"score"`
}

// SearchFilter narrows a semantic search. Kind is an exact match; Start
// and End are inclusive unix-second bounds (zero means unbounded).
type SearchFilter struct {
	Kind  string `json:"kind,omitempty"`
	Start int64  `json:"start,omitempty"`
	End   int64  `json:"end,omitempty"`
}

// Page is one window of a newest-first event listing. Total is the size
// of the full filtered set, not the window.
type Page struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
