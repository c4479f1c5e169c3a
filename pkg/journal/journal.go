package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"flanergide/pkg/logger"
)

const (
	dayLogName    = "daily.log"
	weekLogName   = "weekly.log"
	dateLayout    = "2006-01-02"
	lineSeparator = "============================================================"
)

// DaySlice is one day's worth of journal content.
type DaySlice struct {
	Date    string
	Content string
}

// Journal accumulates device log lines into per-day files under the
// analysis directory: <dir>/<YYYY-MM-DD>/daily.log.
type Journal struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create analysis dir: %w", err)
	}
	return &Journal{dir: dir}, nil
}

// Dir returns the analysis directory root.
func (j *Journal) Dir() string { return j.dir }

// DayDir returns the directory holding one day's artifacts, creating it
// when needed.
func (j *Journal) DayDir(date string) (string, error) {
	d := filepath.Join(j.dir, date)
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("create day dir: %w", err)
	}
	return d, nil
}

// Append writes one log line to the day file for t's date:
// [HH:MM:SS] [source] text
func (j *Journal) Append(t time.Time, source, text string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	date := t.Format(dateLayout)
	dayDir, err := j.DayDir(date)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dayDir, dayLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open day log: %w", err)
	}
	defer f.Close()
	line := fmt.Sprintf("[%s] [%s] %s\n", t.Format("15:04:05"), source, strings.ReplaceAll(text, "\n", " "))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append day log: %w", err)
	}
	return nil
}

// Day returns the contents of one day's log; ok is false when the day has
// no log file.
func (j *Journal) Day(date string) (string, bool) {
	b, err := os.ReadFile(filepath.Join(j.dir, date, dayLogName))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Window returns the days in the last n calendar days (today included)
// that have log content, oldest first.
func (j *Journal) Window(days int) []DaySlice {
	if days < 1 {
		days = 1
	}
	var out []DaySlice
	now := time.Now()
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(dateLayout)
		if content, ok := j.Day(date); ok {
			out = append(out, DaySlice{Date: date, Content: content})
		}
	}
	return out
}

// WriteWeekly assembles the last seven days into
// <dir>/<start>_to_<end>/weekly.log with a dated separator per day, and
// returns the week directory and the assembled content.
func (j *Journal) WriteWeekly() (string, string, error) {
	now := time.Now()
	end := now.Format(dateLayout)
	start := now.AddDate(0, 0, -6).Format(dateLayout)
	weekDir := filepath.Join(j.dir, fmt.Sprintf("%s_to_%s", start, end))
	if err := os.MkdirAll(weekDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create week dir: %w", err)
	}

	var b strings.Builder
	for _, day := range j.Window(7) {
		b.WriteString(lineSeparator + "\n")
		b.WriteString("Date: " + day.Date + "\n")
		b.WriteString(lineSeparator + "\n")
		b.WriteString(day.Content)
		if !strings.HasSuffix(day.Content, "\n") {
			b.WriteString("\n")
		}
	}
	content := b.String()
	if err := os.WriteFile(filepath.Join(weekDir, weekLogName), []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("write weekly log: %w", err)
	}
	logger.Info("weekly_log_written", "dir", weekDir, "bytes", len(content))
	return weekDir, content, nil
}
