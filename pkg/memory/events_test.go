package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"flanergide/pkg/index"
	"flanergide/pkg/models"
	"flanergide/pkg/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	require.NoError(t, store.Open(t.TempDir()))
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	ix, err := index.Open(t.TempDir(), index.NewLocalEmbedding())
	require.NoError(t, err)
	return NewService(ix)
}

func TestInsertAndSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Insert(ctx, "captured_text", map[string]any{"text": "morning espresso at the kitchen table"}, "desk", 1000)
	require.NoError(t, err)
	_, err = svc.Insert(ctx, "captured_text", map[string]any{"text": "debugging the scheduler until midnight"}, "desk", 2000)
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "espresso kitchen", 2, models.SearchFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "morning espresso at the kitchen table", hits[0].Data["text"])
	require.Greater(t, hits[0].Score, 0.0)
}

func TestInsertRequiresKind(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Insert(context.Background(), "", map[string]any{"text": "x"}, "", 0)
	require.ErrorIs(t, err, ErrMissingKind)

	n, err := store.CountEvents()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestSearchKindFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Insert(ctx, "captured_text", map[string]any{"text": "played chess in the park"}, "", 1000)
	require.NoError(t, err)
	_, err = svc.Insert(ctx, "minigame_complete", map[string]any{"game": "chess", "score": 12}, "", 2000)
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "chess", 5, models.SearchFilter{Kind: "minigame_complete"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "minigame_complete", hits[0].Kind)
}

func TestSearchTimeRange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Insert(ctx, "captured_text", map[string]any{"text": "rainy walk"}, "", 1000)
	require.NoError(t, err)
	_, err = svc.Insert(ctx, "captured_text", map[string]any{"text": "rainy commute"}, "", 5000)
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "rainy", 5, models.SearchFilter{Start: 2000})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, int64(5000), hits[0].Timestamp)
}

func TestRecentPagination(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 50; i++ {
		require.NoError(t, store.SaveEvent(models.Event{
			ID:        fmt.Sprintf("ev-%02d", i),
			Kind:      "user_interaction",
			Timestamp: int64(1000 + i),
		}))
	}

	page, err := svc.Recent(context.Background(), 10, 45, "")
	require.NoError(t, err)
	require.Equal(t, 50, page.Total)
	require.Len(t, page.Events, 5)
	// newest-first ordering means offset 45 lands on the oldest five
	require.Equal(t, int64(1004), page.Events[0].Timestamp)

	page, err = svc.Recent(context.Background(), 10, 90, "")
	require.NoError(t, err)
	require.Equal(t, 50, page.Total)
	require.Empty(t, page.Events)
}

func TestRecentKindFilter(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, store.SaveEvent(models.Event{ID: "a", Kind: "app_usage", Timestamp: 1}))
	require.NoError(t, store.SaveEvent(models.Event{ID: "b", Kind: "notification", Timestamp: 2}))

	page, err := svc.Recent(context.Background(), 10, 0, "notification")
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "notification", page.Events[0].Kind)
}

func TestDeleteAbsent(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.Delete(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteRemovesFromSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ev, err := svc.Insert(ctx, "captured_text", map[string]any{"text": "forget this line"}, "", 1000)
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, ev.ID)
	require.NoError(t, err)
	require.True(t, ok)

	hits, err := svc.Search(ctx, "forget", 5, models.SearchFilter{})
	require.NoError(t, err)
	require.Empty(t, hits)
}

// brokenDeleteIndex delegates to a real index but fails every Delete.
type brokenDeleteIndex struct {
	*index.Index
}

func (b brokenDeleteIndex) Delete(context.Context, string) error {
	return fmt.Errorf("index unavailable")
}

func TestDeleteSucceedsWhenDeindexFails(t *testing.T) {
	require.NoError(t, store.Open(t.TempDir()))
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	ix, err := index.Open(t.TempDir(), index.NewLocalEmbedding())
	require.NoError(t, err)
	svc := NewService(brokenDeleteIndex{ix})
	ctx := context.Background()

	ev, err := svc.Insert(ctx, "captured_text", map[string]any{"text": "gone"}, "", 1000)
	require.NoError(t, err)

	// the record is removed; the stale index entry is only logged
	ok, err := svc.Delete(ctx, ev.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = store.GetEvent(ev.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
