package api

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-board/app/feed"
	"github.com/lysyi3m/rss-board/app/state"
	"github.com/lysyi3m/rss-board/app/sync"
)

type SyncRunnerInterface interface {
	RunOnce(ctx context.Context) (*sync.RunSummary, error)
	LastRun() *sync.RunSummary
	NextRun() *time.Time
	SourceCount() int
}

var _ SyncRunnerInterface = (*sync.Runner)(nil)

type Handler struct {
	runner      SyncRunnerInterface
	store       state.Store
	configCache *feed.ConfigCache
	version     string
}
