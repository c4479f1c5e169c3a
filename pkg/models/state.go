package models

// MoodState is the persisted avatar mood. Context is an optional free-text
// note on why the mood changed.
type MoodState struct {
	Mood      string `json:"mood"`
	Context   string `json:"context,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// CachedPost is one blog post held in the state cache.
type CachedPost struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Summary     string `json:"summary"`
	PublishedAt int64  `json:"published_at"`
	ScrapedAt   int64  `json:"scraped_at"`
}

// ScrapedPost is a freshly fetched post before summarization.
type ScrapedPost struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Body        string `json:"body"`
	PublishedAt int64  `json:"published_at"`
}

// StateSnapshot is the combined view returned by state reads and sync pull.
type StateSnapshot struct {
	Mood              string       `json:"mood"`
	MoodContext       string       `json:"mood_context,omitempty"`
	MoodUpdatedAt     int64        `json:"mood_updated_at"`
	Thoughts          string       `json:"thoughts"`
	ThoughtsUpdatedAt int64        `json:"thoughts_updated_at"`
	BlogPosts         []CachedPost `json:"blog_posts"`
}
