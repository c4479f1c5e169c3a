package gather

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flanergide/pkg/journal"
	"flanergide/pkg/models"
	"flanergide/pkg/state"
)

func newTestGatherer(t *testing.T) (*Gatherer, *journal.Journal, *state.Manager) {
	t.Helper()
	j, err := journal.New(t.TempDir())
	require.NoError(t, err)
	m, err := state.NewManager(t.TempDir())
	require.NoError(t, err)
	return New(j, m), j, m
}

func TestLogsEmptyWindow(t *testing.T) {
	g, _, _ := newTestGatherer(t)

	text, lines := g.Logs(3)
	require.Equal(t, "No log data for the last 3 day(s).", text)
	require.Equal(t, 0, lines)
}

func TestLogsSectionsAndLineCount(t *testing.T) {
	g, j, _ := newTestGatherer(t)
	now := time.Now()

	require.NoError(t, j.Append(now, "app", "one"))
	require.NoError(t, j.Append(now, "app", "two"))
	require.NoError(t, j.Append(now.AddDate(0, 0, -1), "app", "three"))

	text, lines := g.Logs(2)
	require.Equal(t, 3, lines)
	require.Contains(t, text, "=== "+now.Format("2006-01-02")+" ===")
	require.Contains(t, text, "=== "+now.AddDate(0, 0, -1).Format("2006-01-02")+" ===")
	require.Contains(t, text, "[app] one")
}

func TestBlogsEmpty(t *testing.T) {
	g, _, _ := newTestGatherer(t)

	text, n := g.Blogs(1)
	require.Equal(t, "No blog posts in the last 1 week(s).", text)
	require.Equal(t, 0, n)
}

func TestBlogsWindowFilter(t *testing.T) {
	g, _, m := newTestGatherer(t)

	recent := time.Now().AddDate(0, 0, -2).Unix()
	old := time.Now().AddDate(0, 0, -30).Unix()
	_, err := m.MergeAndCache(context.Background(), []models.ScrapedPost{
		{Title: "Fresh", URL: "https://b.example/fresh", Body: "b", PublishedAt: recent},
		{Title: "Stale", URL: "https://b.example/stale", Body: "b", PublishedAt: old},
	}, func(_ context.Context, p models.ScrapedPost) (string, error) {
		return "sum " + p.Title, nil
	})
	require.NoError(t, err)

	text, n := g.Blogs(1)
	require.Equal(t, 1, n)
	require.Contains(t, text, "Title: Fresh")
	require.Contains(t, text, "sum Fresh")
	require.NotContains(t, text, "Stale")
}

func TestBlogsSeparator(t *testing.T) {
	g, _, m := newTestGatherer(t)

	now := time.Now().Unix()
	_, err := m.MergeAndCache(context.Background(), []models.ScrapedPost{
		{Title: "A", URL: "https://b.example/a", PublishedAt: now},
		{Title: "B", URL: "https://b.example/b", PublishedAt: now},
	}, func(context.Context, models.ScrapedPost) (string, error) { return "s", nil })
	require.NoError(t, err)

	text, n := g.Blogs(1)
	require.Equal(t, 2, n)
	require.Contains(t, text, "------------------------------------------------------------")
}
