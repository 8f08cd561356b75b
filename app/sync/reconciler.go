package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-board/app/feed"
	"github.com/lysyi3m/rss-board/app/state"
	"github.com/lysyi3m/rss-board/app/tracker"
)

// Reconciler maps feed items onto tracked issues: items without a
// record are created, items whose fingerprint changed are updated,
// everything else is skipped without a remote call.
type Reconciler struct {
	gateway     tracker.Gateway
	rules       *StatusRules
	statusField string
	dryRun      bool
}

func NewReconciler(gateway tracker.Gateway, rules *StatusRules, statusField string, dryRun bool) *Reconciler {
	return &Reconciler{
		gateway:     gateway,
		rules:       rules,
		statusField: statusField,
		dryRun:      dryRun,
	}
}

// Run processes items strictly in feed order. A gateway failure on one
// item is logged and counted, the record for that identity stays
// untouched, and the loop continues with the next item.
func (r *Reconciler) Run(ctx context.Context, items []feed.Item, syncState *state.SyncState) Result {
	var result Result

	for _, item := range items {
		record, exists := syncState.Records[item.Identity]

		switch {
		case !exists:
			if r.createItem(ctx, item, syncState) {
				result.Created++
			} else {
				result.Failed++
			}
		case record.LastFingerprint == item.Fingerprint:
			result.Skipped++
		default:
			if r.updateItem(ctx, item, record, syncState) {
				result.Updated++
			} else {
				result.Failed++
			}
		}
	}

	now := time.Now()
	syncState.LastSyncAt = &now

	return result
}

func (r *Reconciler) createItem(ctx context.Context, item feed.Item, syncState *state.SyncState) bool {
	title := RenderTitle(item)
	body := RenderBody(item)

	if r.dryRun {
		slog.Info("Would create issue", "identity", item.Identity, "title", title)
		return true
	}

	trackerID, err := r.gateway.CreateIssue(ctx, title, body)
	if err != nil {
		slog.Error("Failed to create issue", "identity", item.Identity, "error", err)
		return false
	}

	// The record is written as soon as the issue exists; board
	// placement below never rolls it back.
	syncState.Records[item.Identity] = state.TrackedItemRecord{
		Identity:        item.Identity,
		LastFingerprint: item.Fingerprint,
		TrackerID:       trackerID,
	}

	slog.Info("Issue created", "identity", item.Identity, "tracker_id", trackerID)

	r.placeOnBoard(ctx, item, trackerID)

	return true
}

func (r *Reconciler) updateItem(ctx context.Context, item feed.Item, record state.TrackedItemRecord, syncState *state.SyncState) bool {
	title := RenderTitle(item)
	body := RenderBody(item)

	if r.dryRun {
		slog.Info("Would update issue", "identity", item.Identity, "tracker_id", record.TrackerID, "title", title)
		return true
	}

	if err := r.gateway.UpdateIssue(ctx, record.TrackerID, title, body); err != nil {
		slog.Error("Failed to update issue", "identity", item.Identity, "tracker_id", record.TrackerID, "error", err)
		return false
	}

	record.LastFingerprint = item.Fingerprint
	syncState.Records[item.Identity] = record

	slog.Info("Issue updated", "identity", item.Identity, "tracker_id", record.TrackerID)

	return true
}

// placeOnBoard attaches a freshly created issue to the project board
// and sets its status column. Both steps are best-effort: failures are
// logged and never affect the created issue or its record.
func (r *Reconciler) placeOnBoard(ctx context.Context, item feed.Item, trackerID int64) {
	boardItemID, err := r.gateway.AttachToBoard(ctx, trackerID)
	if err != nil {
		if errors.Is(err, tracker.ErrNoBoard) {
			slog.Debug("No board configured, skipping attach", "tracker_id", trackerID)
		} else {
			slog.Warn("Failed to attach issue to board", "tracker_id", trackerID, "error", err)
		}
		return
	}

	status := r.rules.Resolve(item.Title, item.Body)

	if err := r.gateway.SetField(ctx, boardItemID, r.statusField, status); err != nil {
		slog.Warn("Failed to set board status", "tracker_id", trackerID, "status", status, "error", err)
		return
	}

	slog.Debug("Issue placed on board", "tracker_id", trackerID, "status", status)
}
