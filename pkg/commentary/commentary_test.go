package commentary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flanergide/pkg/gather"
	"flanergide/pkg/index"
	"flanergide/pkg/journal"
	"flanergide/pkg/memory"
	"flanergide/pkg/models"
	"flanergide/pkg/state"
	"flanergide/pkg/store"
)

type stubGen struct {
	text    string
	err     error
	prompts []string
}

func (s *stubGen) Name() string { return "stub" }
func (s *stubGen) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func newTestService(t *testing.T, gen *stubGen) (*Service, *journal.Journal, *state.Manager) {
	t.Helper()
	require.NoError(t, store.Open(t.TempDir()))
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	ix, err := index.Open(t.TempDir(), index.NewLocalEmbedding())
	require.NoError(t, err)
	j, err := journal.New(t.TempDir())
	require.NoError(t, err)
	m, err := state.NewManager(t.TempDir())
	require.NoError(t, err)
	ev := memory.NewService(ix)
	return New(gather.New(j, m), m, ev, gen), j, m
}

func TestGenerateStoresRemark(t *testing.T) {
	gen := &stubGen{text: "  You have been busy today.  "}
	svc, j, m := newTestService(t, gen)
	require.NoError(t, j.Append(time.Now(), "app", "built a thing"))
	require.NoError(t, m.SetMood("focused", ""))

	c, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "You have been busy today.", c.Text)
	require.Equal(t, "focused", c.Mood)
	require.Equal(t, 0, c.PromptIndex)

	// the prompt carries mood and today's activity
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], `"focused"`)
	require.Contains(t, gen.prompts[0], "built a thing")

	// the remark lands as a captured_text event
	hits, err := svc.events.Search(context.Background(), "busy today", 3, models.SearchFilter{Kind: "captured_text"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "commentary", hits[0].Data["origin"])
}

func TestGenerateRotationPersists(t *testing.T) {
	gen := &stubGen{text: "remark"}
	svc, _, _ := newTestService(t, gen)

	for i := 0; i < 3; i++ {
		c, err := svc.Generate(context.Background())
		require.NoError(t, err)
		require.Equal(t, i, c.PromptIndex)
	}

	cur, err := store.GetCursor("commentary")
	require.NoError(t, err)
	require.Equal(t, int64(3), cur)
}

func TestGenerateRotationWraps(t *testing.T) {
	gen := &stubGen{text: "remark"}
	svc, _, _ := newTestService(t, gen)

	require.NoError(t, store.SetCursor("commentary", int64(len(prompts))))
	c, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, c.PromptIndex)
}

func TestGenerateFailureKeepsCursor(t *testing.T) {
	gen := &stubGen{err: errors.New("model offline")}
	svc, _, _ := newTestService(t, gen)

	_, err := svc.Generate(context.Background())
	require.Error(t, err)

	cur, err := store.GetCursor("commentary")
	require.NoError(t, err)
	require.Equal(t, int64(0), cur)
}
