package commentary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flanergide/pkg/gather"
	"flanergide/pkg/logger"
	"flanergide/pkg/memory"
	"flanergide/pkg/state"
	"flanergide/pkg/store"
	"flanergide/pkg/summarize"
)

const rotationCursor = "commentary"

// prompts rotate one per generation. The cursor is persisted so the
// rotation survives restarts.
var prompts = []string{
	"In one or two sentences, remark on what the user has been up to today. Be warm and a little playful.",
	"Give a short observation about the user's recent activity, as if you just noticed it.",
	"Comment briefly on the user's day so far. Gentle humor is welcome.",
	"Offer a one-line encouraging remark grounded in the user's recent activity.",
	"Note something curious or interesting in the user's recent activity, in at most two sentences.",
	"React to the user's current mood and recent activity with a short, kind remark.",
}

// Commentary is one generated remark plus the context it was built from.
type Commentary struct {
	Text        string `json:"text"`
	Mood        string `json:"mood"`
	PromptIndex int    `json:"prompt_index"`
	GeneratedAt int64  `json:"generated_at"`
}

// Service generates short in-character remarks about recent activity.
type Service struct {
	gatherer *gather.Gatherer
	state    *state.Manager
	events   *memory.Service
	gen      summarize.Generator
}

func New(g *gather.Gatherer, m *state.Manager, ev *memory.Service, gen summarize.Generator) *Service {
	return &Service{gatherer: g, state: m, events: ev, gen: gen}
}

// Generate builds the rotated prompt from today's journal and the current
// mood, runs the generator, and remembers the remark as a captured_text
// event. The rotation cursor only advances after a successful generation.
func (s *Service) Generate(ctx context.Context) (Commentary, error) {
	cur, err := store.GetCursor(rotationCursor)
	if err != nil {
		return Commentary{}, fmt.Errorf("load rotation cursor: %w", err)
	}
	idx := int(cur) % len(prompts)

	logs, lines := s.gatherer.Logs(1)
	mood := s.state.Mood().Mood
	prompt := fmt.Sprintf(
		"%s\n\nThe user's avatar mood is %q.\n\nToday's activity (%d lines):\n%s",
		prompts[idx], mood, lines, logs,
	)

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Commentary{}, fmt.Errorf("generate commentary: %w", err)
	}
	text = strings.TrimSpace(text)

	if err := store.SetCursor(rotationCursor, cur+1); err != nil {
		logger.Warn("rotation_cursor_advance_failed", "err", err)
	}

	c := Commentary{
		Text:        text,
		Mood:        mood,
		PromptIndex: idx,
		GeneratedAt: time.Now().Unix(),
	}
	if _, err := s.events.Insert(ctx, "captured_text", map[string]any{
		"text":   text,
		"origin": "commentary",
	}, "", c.GeneratedAt); err != nil {
		logger.Warn("commentary_event_store_failed", "err", err)
	}
	logger.Info("commentary_generated", "prompt_index", idx, "chars", len(text))
	return c, nil
}
