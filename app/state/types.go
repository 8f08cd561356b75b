package state

import (
	"time"
)

// TrackedItemRecord is the durable memory of one mirrored item. A record
// exists only after the remote issue was created successfully, and its
// fingerprint only ever reflects content that was actually pushed.
type TrackedItemRecord struct {
	Identity        string `json:"identity"`
	LastFingerprint string `json:"last_fingerprint"`
	TrackerID       int64  `json:"tracker_id"`
}

type SyncState struct {
	LastSyncAt *time.Time                   `json:"last_sync,omitempty"`
	Records    map[string]TrackedItemRecord `json:"items"`
}

func NewSyncState() *SyncState {
	return &SyncState{
		Records: make(map[string]TrackedItemRecord),
	}
}
