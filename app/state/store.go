package state

// Store persists the sync state between runs. Load returns the empty
// state when no previous state exists. Save replaces the stored state
// wholesale.
type Store interface {
	Load() (*SyncState, error)
	Save(state *SyncState) error
}
