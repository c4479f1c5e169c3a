package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"flanergide/pkg/logger"
	"flanergide/pkg/models"
)

// ErrInvalidMood is returned for moods outside the allowed set; the mood
// file is left untouched.
var ErrInvalidMood = errors.New("invalid mood")

// ValidMoods is the closed set of avatar moods.
var ValidMoods = map[string]struct{}{
	"happy":   {},
	"sad":     {},
	"focused": {},
	"tired":   {},
	"anxious": {},
	"neutral": {},
}

const (
	moodFile     = "mood.json"
	thoughtsFile = "thoughts.txt"
	blogFile     = "blog_cache.json"

	maxCachedPosts = 50
	thoughtsTopN   = 5
)

// Summarizer condenses one scraped post body. Only truly-new posts are
// ever summarized.
type Summarizer func(ctx context.Context, post models.ScrapedPost) (string, error)

// Manager owns the state directory. Each file has its own lock: mood
// writes never wait on a blog merge and vice versa. The blog lock covers
// both the cache and the thoughts digest derived from it.
type Manager struct {
	dir string

	moodMu sync.Mutex
	blogMu sync.Mutex
}

func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Manager{dir: dir}, nil
}

func (m *Manager) path(name string) string { return filepath.Join(m.dir, name) }

// Mood returns the persisted mood, defaulting to neutral when the file is
// missing or unreadable.
func (m *Manager) Mood() models.MoodState {
	m.moodMu.Lock()
	defer m.moodMu.Unlock()
	return m.readMood()
}

func (m *Manager) readMood() models.MoodState {
	b, err := os.ReadFile(m.path(moodFile))
	if err != nil {
		return models.MoodState{Mood: "neutral"}
	}
	var ms models.MoodState
	if err := json.Unmarshal(b, &ms); err != nil || ms.Mood == "" {
		return models.MoodState{Mood: "neutral"}
	}
	return ms
}

// SetMood validates and persists a new mood atomically. The optional
// context note travels with the mood and is overwritten on every change.
func (m *Manager) SetMood(mood, moodContext string) error {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if _, ok := ValidMoods[mood]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMood, mood)
	}
	m.moodMu.Lock()
	defer m.moodMu.Unlock()
	ms := models.MoodState{Mood: mood, Context: strings.TrimSpace(moodContext), UpdatedAt: time.Now().Unix()}
	b, err := json.Marshal(ms)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(m.path(moodFile), b); err != nil {
		return fmt.Errorf("write mood: %w", err)
	}
	logger.Info("mood_updated", "mood", mood)
	return nil
}

// Thoughts returns the current markdown digest, empty when absent.
func (m *Manager) Thoughts() string {
	m.blogMu.Lock()
	defer m.blogMu.Unlock()
	return m.readThoughts()
}

func (m *Manager) readThoughts() string {
	b, err := os.ReadFile(m.path(thoughtsFile))
	if err != nil {
		return ""
	}
	return string(b)
}

// Posts returns the cached blog posts, empty when the cache is absent.
func (m *Manager) Posts() []models.CachedPost {
	m.blogMu.Lock()
	defer m.blogMu.Unlock()
	return m.readPosts()
}

func (m *Manager) readPosts() []models.CachedPost {
	b, err := os.ReadFile(m.path(blogFile))
	if err != nil {
		return nil
	}
	var posts []models.CachedPost
	if err := json.Unmarshal(b, &posts); err != nil {
		logger.Warn("blog_cache_unreadable", "err", err)
		return nil
	}
	return posts
}

// MergeAndCache merges freshly fetched posts into the cache under the
// blog lock for the whole load/compute/write cycle. Posts already cached
// (matched by URL) are kept as-is; only truly-new posts are summarized.
// The result is sorted by scrape time, newest first, capped at 50, and
// the thoughts digest is rebuilt from the top 5. Re-merging the same
// posts changes nothing and never invokes the summarizer.
func (m *Manager) MergeAndCache(ctx context.Context, fetched []models.ScrapedPost, summarize Summarizer) (int, error) {
	m.blogMu.Lock()
	defer m.blogMu.Unlock()

	cached := m.readPosts()
	known := make(map[string]struct{}, len(cached))
	for _, p := range cached {
		known[p.URL] = struct{}{}
	}

	now := time.Now().Unix()
	added := 0
	for _, p := range fetched {
		if p.URL == "" {
			continue
		}
		if _, ok := known[p.URL]; ok {
			continue
		}
		summary, err := summarize(ctx, p)
		if err != nil {
			logger.Warn("post_summarize_failed", "url", p.URL, "err", err)
			summary = truncate(p.Body, 500)
		}
		cached = append(cached, models.CachedPost{
			Title:       p.Title,
			URL:         p.URL,
			Summary:     summary,
			PublishedAt: p.PublishedAt,
			ScrapedAt:   now,
		})
		known[p.URL] = struct{}{}
		added++
	}
	if added == 0 {
		return 0, nil
	}

	sort.SliceStable(cached, func(i, j int) bool {
		if cached[i].ScrapedAt != cached[j].ScrapedAt {
			return cached[i].ScrapedAt > cached[j].ScrapedAt
		}
		return cached[i].PublishedAt > cached[j].PublishedAt
	})
	if len(cached) > maxCachedPosts {
		cached = cached[:maxCachedPosts]
	}

	b, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := writeFileAtomic(m.path(blogFile), b); err != nil {
		return 0, fmt.Errorf("write blog cache: %w", err)
	}
	if err := writeFileAtomic(m.path(thoughtsFile), []byte(renderThoughts(cached))); err != nil {
		return 0, fmt.Errorf("write thoughts: %w", err)
	}
	logger.Info("blog_cache_merged", "new_posts", added, "cached", len(cached))
	return added, nil
}

// renderThoughts builds the markdown digest from the top cached posts.
func renderThoughts(posts []models.CachedPost) string {
	n := thoughtsTopN
	if len(posts) < n {
		n = len(posts)
	}
	blocks := make([]string, 0, n)
	for _, p := range posts[:n] {
		blocks = append(blocks, fmt.Sprintf("**%s**\n%s\n[Read more](%s)", p.Title, p.Summary, p.URL))
	}
	return strings.Join(blocks, "\n\n")
}

// Snapshot is the combined read used by sync pull and the state endpoint.
func (m *Manager) Snapshot() models.StateSnapshot {
	mood := m.Mood()
	m.blogMu.Lock()
	thoughts := m.readThoughts()
	posts := m.readPosts()
	var thoughtsAt int64
	if fi, err := os.Stat(m.path(thoughtsFile)); err == nil {
		thoughtsAt = fi.ModTime().Unix()
	}
	m.blogMu.Unlock()
	if posts == nil {
		posts = []models.CachedPost{}
	}
	return models.StateSnapshot{
		Mood:              mood.Mood,
		MoodContext:       mood.Context,
		MoodUpdatedAt:     mood.UpdatedAt,
		Thoughts:          thoughts,
		ThoughtsUpdatedAt: thoughtsAt,
		BlogPosts:         posts,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
