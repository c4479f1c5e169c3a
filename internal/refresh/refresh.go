package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"

	"flanergide/pkg/logger"
	"flanergide/pkg/models"
	"flanergide/pkg/scrape"
	"flanergide/pkg/state"
	"flanergide/pkg/summarize"
)

// ErrRunInProgress is returned by RunNow when a refresh is already
// underway; manual triggers and scheduled runs share the same gate.
var ErrRunInProgress = errors.New("blog refresh already in progress")

// Refresher fetches the configured blog on a cron schedule and merges the
// results into the state cache. A failed fetch leaves the cache intact.
type Refresher struct {
	fetcher  scrape.Fetcher
	state    *state.Manager
	summary  *summarize.Service
	cronExpr string

	running  atomic.Bool
	mu       sync.Mutex
	lastRun  time.Time
	lastErr  error
	lastNew  int
}

func New(f scrape.Fetcher, st *state.Manager, sum *summarize.Service, cronExpr string) (*Refresher, error) {
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid blog refresh cron expression: %s", cronExpr)
	}
	return &Refresher{fetcher: f, state: st, summary: sum, cronExpr: cronExpr}, nil
}

// Start launches the scheduler goroutine and returns a cancel func.
func (r *Refresher) Start(ctx context.Context) context.CancelFunc {
	ctx2, cancel := context.WithCancel(ctx)
	go r.runScheduler(ctx2)
	logger.Info("blog_refresh_scheduler_started", "cron", r.cronExpr)
	return cancel
}

// runScheduler computes the next cron tick with gronx and sleeps until
// then, so full cron syntax is supported.
func (r *Refresher) runScheduler(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("blog_refresh_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(r.cronExpr, now, false)
		if err != nil {
			logger.Error("blog_refresh_nexttick_failed", "cron", r.cronExpr, "err", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := r.RunNow(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
				logger.Error("blog_refresh_run_error", "err", err)
			}
		case <-ctx.Done():
			logger.Info("blog_refresh_scheduler_stopping")
			return
		}
	}
}

// RunNow performs one refresh immediately. It is the same code path the
// scheduler uses; a second concurrent call gets ErrRunInProgress.
func (r *Refresher) RunNow(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer r.running.Store(false)

	posts, err := r.fetcher.Fetch(ctx)
	if err != nil {
		r.record(0, err)
		return fmt.Errorf("fetch blog: %w", err)
	}
	added, err := r.state.MergeAndCache(ctx, posts, func(ctx context.Context, p models.ScrapedPost) (string, error) {
		return r.summary.SummarizePost(ctx, p.Title, p.Body)
	})
	r.record(added, err)
	if err != nil {
		return fmt.Errorf("merge blog posts: %w", err)
	}
	logger.Info("blog_refresh_done", "fetched", len(posts), "new", added)
	return nil
}

func (r *Refresher) record(added int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = time.Now()
	r.lastErr = err
	r.lastNew = added
}

// Status reports the last run outcome and the next scheduled run.
type Status struct {
	LastRun     int64  `json:"last_run,omitempty"`
	LastError   string `json:"last_error,omitempty"`
	LastNew     int    `json:"last_new_posts"`
	NextRefresh int64  `json:"next_refresh,omitempty"`
}

func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s Status
	if !r.lastRun.IsZero() {
		s.LastRun = r.lastRun.Unix()
	}
	if r.lastErr != nil {
		s.LastError = r.lastErr.Error()
	}
	s.LastNew = r.lastNew
	if next, err := gronx.NextTick(r.cronExpr, false); err == nil {
		s.NextRefresh = next.Unix()
	}
	return s
}
