package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"flanergide/pkg/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func passthroughSummarizer(_ context.Context, p models.ScrapedPost) (string, error) {
	return "summary of " + p.Title, nil
}

func TestMoodDefaultsToNeutral(t *testing.T) {
	m := newTestManager(t)
	require.Equal(t, "neutral", m.Mood().Mood)
}

func TestSetMoodRoundTrip(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.SetMood("  Focused ", "deep in a refactor"))
	ms := m.Mood()
	require.Equal(t, "focused", ms.Mood)
	require.Equal(t, "deep in a refactor", ms.Context)
	require.NotZero(t, ms.UpdatedAt)

	// context is replaced, not accumulated
	require.NoError(t, m.SetMood("tired", ""))
	ms = m.Mood()
	require.Equal(t, "tired", ms.Mood)
	require.Empty(t, ms.Context)
}

func TestSetMoodRejectsUnknown(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SetMood("happy", ""))

	err := m.SetMood("ecstatic", "still buzzing")
	require.ErrorIs(t, err, ErrInvalidMood)

	// the previous mood survives a rejected write
	require.Equal(t, "happy", m.Mood().Mood)
}

func TestMergeAndCacheSummarizesNewPosts(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	posts := []models.ScrapedPost{
		{Title: "First", URL: "https://b.example/1", Body: "body one", PublishedAt: 100},
		{Title: "Second", URL: "https://b.example/2", Body: "body two", PublishedAt: 200},
	}
	added, err := m.MergeAndCache(ctx, posts, passthroughSummarizer)
	require.NoError(t, err)
	require.Equal(t, 2, added)

	cached := m.Posts()
	require.Len(t, cached, 2)
	require.Equal(t, "summary of First", findPost(t, cached, "https://b.example/1").Summary)

	thoughts := m.Thoughts()
	require.Contains(t, thoughts, "**First**")
	require.Contains(t, thoughts, "[Read more](https://b.example/2)")
}

func TestMergeAndCacheIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	posts := []models.ScrapedPost{{Title: "Only", URL: "https://b.example/only", Body: "b"}}
	_, err := m.MergeAndCache(ctx, posts, passthroughSummarizer)
	require.NoError(t, err)

	calls := 0
	added, err := m.MergeAndCache(ctx, posts, func(context.Context, models.ScrapedPost) (string, error) {
		calls++
		return "", nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, added)
	require.Equal(t, 0, calls)
	require.Len(t, m.Posts(), 1)
}

func TestMergeAndCacheSummarizerFailureFallsBack(t *testing.T) {
	m := newTestManager(t)

	long := strings.Repeat("x", 600)
	posts := []models.ScrapedPost{{Title: "Broken", URL: "https://b.example/broken", Body: long}}
	added, err := m.MergeAndCache(context.Background(), posts, func(context.Context, models.ScrapedPost) (string, error) {
		return "", fmt.Errorf("model offline")
	})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	got := m.Posts()[0].Summary
	require.Equal(t, strings.Repeat("x", 500)+"...", got)
}

func TestMergeAndCacheCap(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var posts []models.ScrapedPost
	for i := 0; i < 60; i++ {
		posts = append(posts, models.ScrapedPost{
			Title:       fmt.Sprintf("p%d", i),
			URL:         fmt.Sprintf("https://b.example/%d", i),
			PublishedAt: int64(i),
		})
	}
	added, err := m.MergeAndCache(ctx, posts, passthroughSummarizer)
	require.NoError(t, err)
	require.Equal(t, 60, added)

	cached := m.Posts()
	require.Len(t, cached, 50)
	// same scrape time, so order falls back to published time, newest first
	require.Equal(t, "p59", cached[0].Title)
}

func TestMergeSkipsEmptyURL(t *testing.T) {
	m := newTestManager(t)

	added, err := m.MergeAndCache(context.Background(), []models.ScrapedPost{{Title: "no url"}}, passthroughSummarizer)
	require.NoError(t, err)
	require.Equal(t, 0, added)
}

func TestSnapshot(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SetMood("tired", "long week"))
	_, err := m.MergeAndCache(context.Background(), []models.ScrapedPost{
		{Title: "A", URL: "https://b.example/a", Body: "b"},
	}, passthroughSummarizer)
	require.NoError(t, err)

	snap := m.Snapshot()
	require.Equal(t, "tired", snap.Mood)
	require.Equal(t, "long week", snap.MoodContext)
	require.Len(t, snap.BlogPosts, 1)
	require.Equal(t, "https://b.example/a", snap.BlogPosts[0].URL)
	require.Contains(t, snap.Thoughts, "**A**")
	require.NotZero(t, snap.ThoughtsUpdatedAt)
}

func TestSnapshotEmptyState(t *testing.T) {
	m := newTestManager(t)

	snap := m.Snapshot()
	require.Equal(t, "neutral", snap.Mood)
	require.NotNil(t, snap.BlogPosts)
	require.Empty(t, snap.BlogPosts)
	require.Zero(t, snap.ThoughtsUpdatedAt)
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, writeFileAtomic(path, []byte("hello")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileAtomicInterruptedKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, writeFileAtomic(path, []byte(`{"v":1}`)))

	// a writer that died between temp write and rename leaves only a
	// stray temp file; the target is never touched
	stray := filepath.Join(dir, ".tmp-out.json-crashed")
	require.NoError(t, os.WriteFile(stray, []byte(`{"v":`), 0o600))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, 1, got["v"])

	// the next successful write replaces the target in full
	require.NoError(t, writeFileAtomic(path, []byte(`{"v":2}`)))
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, 2, got["v"])
}

func TestWriteFileAtomicRenameFailureCleansTemp(t *testing.T) {
	dir := t.TempDir()

	// a non-empty directory at the target path makes the rename fail
	target := filepath.Join(dir, "out.json")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0o600))

	err := writeFileAtomic(target, []byte("data"))
	require.Error(t, err)

	// the temp file is removed and the existing contents survive
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	b, err := os.ReadFile(filepath.Join(target, "keep"))
	require.NoError(t, err)
	require.Equal(t, "x", string(b))
}

func findPost(t *testing.T, posts []models.CachedPost, url string) models.CachedPost {
	t.Helper()
	for _, p := range posts {
		if p.URL == url {
			return p
		}
	}
	t.Fatalf("post %s not cached", url)
	return models.CachedPost{}
}
