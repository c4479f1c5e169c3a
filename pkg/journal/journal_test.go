package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(t.TempDir())
	require.NoError(t, err)
	return j
}

func TestAppendAndDay(t *testing.T) {
	j := newTestJournal(t)
	ts := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)

	require.NoError(t, j.Append(ts, "device", "woke up"))
	require.NoError(t, j.Append(ts.Add(time.Minute), "app", "opened notes"))

	content, ok := j.Day("2026-08-30")
	require.True(t, ok)
	require.Equal(t, "[09:15:00] [device] woke up\n[09:16:00] [app] opened notes\n", content)
}

func TestAppendFlattensNewlines(t *testing.T) {
	j := newTestJournal(t)
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(ts, "app", "line one\nline two"))

	content, ok := j.Day("2026-08-30")
	require.True(t, ok)
	require.Equal(t, "[10:00:00] [app] line one line two\n", content)
}

func TestDayMissing(t *testing.T) {
	j := newTestJournal(t)
	_, ok := j.Day("1999-01-01")
	require.False(t, ok)
}

func TestWindowOldestFirst(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now()

	require.NoError(t, j.Append(now, "a", "today"))
	require.NoError(t, j.Append(now.AddDate(0, 0, -1), "a", "yesterday"))
	// outside a 2-day window
	require.NoError(t, j.Append(now.AddDate(0, 0, -5), "a", "last week"))

	slices := j.Window(2)
	require.Len(t, slices, 2)
	require.Equal(t, now.AddDate(0, 0, -1).Format("2006-01-02"), slices[0].Date)
	require.Equal(t, now.Format("2006-01-02"), slices[1].Date)
}

func TestWriteWeekly(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now()

	require.NoError(t, j.Append(now, "a", "entry today"))
	require.NoError(t, j.Append(now.AddDate(0, 0, -2), "a", "entry earlier"))

	weekDir, content, err := j.WriteWeekly()
	require.NoError(t, err)

	start := now.AddDate(0, 0, -6).Format("2006-01-02")
	end := now.Format("2006-01-02")
	require.Equal(t, filepath.Join(j.Dir(), start+"_to_"+end), weekDir)

	require.Contains(t, content, "Date: "+end)
	require.Contains(t, content, "entry earlier")
	require.Contains(t, content, "============================================================")

	onDisk, ok := j.Day(end)
	require.True(t, ok)
	require.Contains(t, content, onDisk)
}
