package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-board/app/feed"
	"github.com/lysyi3m/rss-board/app/state"
)

func NewHandler(runner SyncRunnerInterface, store state.Store,
	configCache *feed.ConfigCache, version string) *Handler {
	return &Handler{
		runner:      runner,
		store:       store,
		configCache: configCache,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"sources":   h.runner.SourceCount(),
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	if lastRun := h.runner.LastRun(); lastRun != nil {
		health["last_sync_at"] = lastRun.CompletedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	syncState, err := h.store.Load()
	if err != nil {
		slog.Error("State error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load state"})
		return
	}

	stats := map[string]interface{}{
		"sources":       h.runner.SourceCount(),
		"tracked_items": len(syncState.Records),
	}

	if syncState.LastSyncAt != nil {
		stats["last_sync_at"] = syncState.LastSyncAt.Format(time.RFC3339)
	}

	if lastRun := h.runner.LastRun(); lastRun != nil {
		stats["last_run"] = map[string]interface{}{
			"created":        lastRun.Result.Created,
			"updated":        lastRun.Result.Updated,
			"skipped":        lastRun.Result.Skipped,
			"failed":         lastRun.Result.Failed,
			"fetch_failures": lastRun.FetchFailures,
			"completed_at":   lastRun.CompletedAt.Format(time.RFC3339),
		}
	}

	if nextRun := h.runner.NextRun(); nextRun != nil {
		stats["next_run_at"] = nextRun.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, feedConfig := range configs {
		feeds = append(feeds, map[string]interface{}{
			"name":            feedConfig.Name,
			"url":             feedConfig.URL,
			"enabled":         feedConfig.Settings.Enabled,
			"max_items":       feedConfig.Settings.MaxItems,
			"extract_content": feedConfig.Settings.ExtractContent,
			"labels":          feedConfig.Labels,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APITriggerSync(c *gin.Context) {
	summary, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		slog.Error("Sync run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Sync run failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"created":        summary.Result.Created,
			"updated":        summary.Result.Updated,
			"skipped":        summary.Result.Skipped,
			"failed":         summary.Result.Failed,
			"fetch_failures": summary.FetchFailures,
		},
		"completed_at": summary.CompletedAt.Format(time.RFC3339),
	})
}
