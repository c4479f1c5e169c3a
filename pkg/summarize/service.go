package summarize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flanergide/pkg/gather"
	"flanergide/pkg/journal"
	"flanergide/pkg/logger"
)

const summaryFileName = "summary.md"

// Service turns gathered journal and blog text into saved markdown
// summaries under the analysis directory.
type Service struct {
	gatherer *gather.Gatherer
	journal  *journal.Journal
	gen      Generator
}

func NewService(g *gather.Gatherer, j *journal.Journal, gen Generator) *Service {
	return &Service{gatherer: g, journal: j, gen: gen}
}

// Result reports where a summary landed and whether generation succeeded.
// Failed generations still save a placeholder so the gathered input is
// never silently lost.
type Result struct {
	Path      string `json:"path"`
	Markdown  string `json:"markdown"`
	Generated bool   `json:"generated"`
}

// Daily summarizes one day's journal. date defaults to today.
func (s *Service) Daily(ctx context.Context, date string) (Result, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	content, ok := s.journal.Day(date)
	if !ok {
		return Result{}, fmt.Errorf("no journal for %s", date)
	}
	dayDir, err := s.journal.DayDir(date)
	if err != nil {
		return Result{}, err
	}
	prompt := fmt.Sprintf(
		"Summarize the following activity log for %s as a short markdown digest. Focus on what the user actually did.\n\n%s",
		date, content,
	)
	return s.generateAndSave(ctx, dayDir, prompt, "daily summary for "+date)
}

// Weekly assembles the last seven days into a week directory and
// summarizes it there.
func (s *Service) Weekly(ctx context.Context) (Result, error) {
	weekDir, content, err := s.journal.WriteWeekly()
	if err != nil {
		return Result{}, err
	}
	if content == "" {
		return Result{}, fmt.Errorf("no journal content in the last 7 days")
	}
	blogs, posts := s.gatherer.Blogs(1)
	prompt := fmt.Sprintf(
		"Summarize the following week of activity logs as a markdown digest with one section per notable theme.\n\n%s\n\nRecent blog reading:\n%s",
		content, blogs,
	)
	logger.Debug("weekly_summary_prompt_built", "log_bytes", len(content), "blog_posts", posts)
	return s.generateAndSave(ctx, weekDir, prompt, "weekly summary")
}

func (s *Service) generateAndSave(ctx context.Context, dir, prompt, label string) (Result, error) {
	md, genErr := s.gen.Generate(ctx, prompt)
	generated := genErr == nil
	if genErr != nil {
		logger.Error("summary_generation_failed", "label", label, "generator", s.gen.Name(), "err", genErr)
		md = fmt.Sprintf(
			"# Summary Generation Failed\n\nGenerator: %s\nTime: %s\nError: %v\n",
			s.gen.Name(), time.Now().UTC().Format(time.RFC3339), genErr,
		)
	}
	path := filepath.Join(dir, summaryFileName)
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return Result{}, fmt.Errorf("save summary: %w", err)
	}
	if generated {
		logger.Info("summary_saved", "label", label, "path", path)
	}
	res := Result{Path: path, Markdown: md, Generated: generated}
	if genErr != nil {
		return res, fmt.Errorf("generate %s: %w", label, genErr)
	}
	return res, nil
}

// SummarizePost condenses one blog post body for the state cache. It is
// handed to the state manager as its Summarizer.
func (s *Service) SummarizePost(ctx context.Context, title, body string) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize this blog post in 2-3 sentences.\n\nTitle: %s\n\n%s",
		title, body,
	)
	return s.gen.Generate(ctx, prompt)
}
