package gather

import (
	"fmt"
	"strings"
	"time"

	"flanergide/pkg/journal"
	"flanergide/pkg/state"
)

const blockSeparator = "------------------------------------------------------------"

// Gatherer assembles windowed plain text for summarization prompts.
type Gatherer struct {
	journal *journal.Journal
	state   *state.Manager
}

func New(j *journal.Journal, m *state.Manager) *Gatherer {
	return &Gatherer{journal: j, state: m}
}

// Logs collects the last n days of journal content as dated sections and
// returns the text plus the count of non-empty content lines. When the
// window holds nothing the text is a "no data" sentinel and the count 0.
func (g *Gatherer) Logs(days int) (string, int) {
	slices := g.journal.Window(days)
	if len(slices) == 0 {
		return fmt.Sprintf("No log data for the last %d day(s).", days), 0
	}
	var b strings.Builder
	lines := 0
	for _, day := range slices {
		fmt.Fprintf(&b, "=== %s ===\n", day.Date)
		b.WriteString(day.Content)
		if !strings.HasSuffix(day.Content, "\n") {
			b.WriteString("\n")
		}
		for _, ln := range strings.Split(day.Content, "\n") {
			if strings.TrimSpace(ln) != "" {
				lines++
			}
		}
	}
	return b.String(), lines
}

// Blogs collects cached posts published within the last n weeks, newest
// first, as title/url/published/summary blocks separated by a dashed
// rule. Returns the text and the number of posts included.
func (g *Gatherer) Blogs(weeks int) (string, int) {
	if weeks < 1 {
		weeks = 1
	}
	cutoff := time.Now().AddDate(0, 0, -7*weeks).Unix()
	var blocks []string
	for _, p := range g.state.Posts() {
		if p.PublishedAt < cutoff {
			continue
		}
		blocks = append(blocks, fmt.Sprintf(
			"Title: %s\nURL: %s\nPublished: %s\n\n%s",
			p.Title, p.URL,
			time.Unix(p.PublishedAt, 0).UTC().Format("2006-01-02"),
			p.Summary,
		))
	}
	if len(blocks) == 0 {
		return fmt.Sprintf("No blog posts in the last %d week(s).", weeks), 0
	}
	return strings.Join(blocks, "\n"+blockSeparator+"\n"), len(blocks)
}
