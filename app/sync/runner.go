package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-board/app/feed"
	"github.com/lysyi3m/rss-board/app/state"
	"github.com/lysyi3m/rss-board/app/tracker"
)

// FeedSource is the slice of feed.Source the runner depends on.
type FeedSource interface {
	Name() string
	Fetch(ctx context.Context) ([]feed.Item, error)
}

var _ FeedSource = (*feed.Source)(nil)

// CacheInvalidator is implemented by gateways that cache capability
// lookups (board node IDs, field options, milestone numbers) for the
// duration of one run.
type CacheInvalidator interface {
	InvalidateCaches()
}

var _ CacheInvalidator = (*tracker.GitHub)(nil)

// Runner drives one full sync: load state, fetch every source,
// reconcile, save state. Runs are serialized, so a triggered run never
// overlaps a scheduled one.
type Runner struct {
	sources    []FeedSource
	store      state.Store
	reconciler *Reconciler
	dryRun     bool

	mu      sync.Mutex
	lastRun *RunSummary
	nextRun *time.Time
}

func NewRunner(sources []FeedSource, store state.Store, reconciler *Reconciler, dryRun bool) *Runner {
	return &Runner{
		sources:    sources,
		store:      store,
		reconciler: reconciler,
		dryRun:     dryRun,
	}
}

// RunOnce performs a single sync pass. A source whose fetch fails
// contributes no items and is counted in the summary; sources that
// fetched successfully still reconcile. The state is not saved when
// every fetch failed, so a full outage leaves it untouched.
func (r *Runner) RunOnce(ctx context.Context) (*RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	syncState, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	// Capability lookups are cached per run, never across runs.
	if invalidator, ok := r.reconciler.gateway.(CacheInvalidator); ok {
		invalidator.InvalidateCaches()
	}

	var result Result
	fetchFailures := 0
	reconciled := 0

	for _, source := range r.sources {
		items, err := source.Fetch(ctx)
		if err != nil {
			slog.Error("Feed fetch failed", "feed", source.Name(), "error", err)
			fetchFailures++
			continue
		}

		slog.Debug("Feed fetched", "feed", source.Name(), "items", len(items))

		result.add(r.reconciler.Run(ctx, items, syncState))
		reconciled++
	}

	switch {
	case r.dryRun:
		slog.Info("Dry run, state not saved")
	case reconciled == 0 && fetchFailures > 0:
		slog.Warn("Every feed fetch failed, state not saved")
	default:
		if err := r.store.Save(syncState); err != nil {
			return nil, fmt.Errorf("failed to save state: %w", err)
		}
	}

	summary := &RunSummary{
		Result:        result,
		FetchFailures: fetchFailures,
		CompletedAt:   time.Now(),
	}
	r.lastRun = summary

	slog.Info("Sync completed",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"fetch_failures", fetchFailures)

	return summary, nil
}

// Watch runs the sync immediately and then on every tick until the
// context is canceled. A failing run is logged and does not stop the
// loop.
func (r *Runner) Watch(ctx context.Context, interval time.Duration) {
	slog.Info("Watch mode started", "interval", interval)

	if _, err := r.RunOnce(ctx); err != nil {
		slog.Error("Sync run failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	r.setNextRun(time.Now().Add(interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watch mode stopped")
			return
		case <-ticker.C:
			r.setNextRun(time.Now().Add(interval))
			if _, err := r.RunOnce(ctx); err != nil {
				slog.Error("Sync run failed", "error", err)
			}
		}
	}
}

func (r *Runner) setNextRun(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextRun = &at
}

// LastRun returns the most recent run summary, nil before the first
// run.
func (r *Runner) LastRun() *RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastRun
}

// NextRun returns the time of the next scheduled run, nil outside
// watch mode.
func (r *Runner) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.nextRun
}

// SourceCount returns the number of configured feed sources.
func (r *Runner) SourceCount() int {
	return len(r.sources)
}
