package state

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStoreLoadEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	if len(loaded.Records) != 0 {
		t.Errorf("Expected 0 records, got %d", len(loaded.Records))
	}

	if loaded.LastSyncAt != nil {
		t.Errorf("Expected no last sync time, got %v", loaded.LastSyncAt)
	}
}

func TestSQLiteStoreSaveLoadRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	lastSync := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := NewSyncState()
	original.LastSyncAt = &lastSync
	original.Records["https://example.com/post-1"] = TrackedItemRecord{
		Identity:        "https://example.com/post-1",
		LastFingerprint: "abc123",
		TrackerID:       42,
	}

	if err := store.Save(original); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	record, ok := loaded.Records["https://example.com/post-1"]
	if !ok {
		t.Fatal("Expected record for post-1")
	}

	if record.LastFingerprint != "abc123" {
		t.Errorf("Expected fingerprint 'abc123', got '%s'", record.LastFingerprint)
	}

	if record.TrackerID != 42 {
		t.Errorf("Expected tracker ID 42, got %d", record.TrackerID)
	}

	if loaded.LastSyncAt == nil {
		t.Fatal("Expected last sync time to survive the round trip")
	}

	if !loaded.LastSyncAt.Equal(lastSync) {
		t.Errorf("Expected last sync time %v, got %v", lastSync, loaded.LastSyncAt)
	}
}

func TestSQLiteStoreSaveReplacesWholesale(t *testing.T) {
	store := newTestSQLiteStore(t)

	first := NewSyncState()
	first.Records["https://example.com/old"] = TrackedItemRecord{
		Identity:        "https://example.com/old",
		LastFingerprint: "old",
		TrackerID:       1,
	}

	if err := store.Save(first); err != nil {
		t.Fatalf("Failed to save first state: %v", err)
	}

	second := NewSyncState()
	second.Records["https://example.com/new"] = TrackedItemRecord{
		Identity:        "https://example.com/new",
		LastFingerprint: "new",
		TrackerID:       2,
	}

	if err := store.Save(second); err != nil {
		t.Fatalf("Failed to save second state: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	if len(loaded.Records) != 1 {
		t.Fatalf("Expected 1 record after replacement, got %d", len(loaded.Records))
	}

	if _, ok := loaded.Records["https://example.com/old"]; ok {
		t.Error("Expected old record to be gone after wholesale save")
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	original := NewSyncState()
	original.Records["https://example.com/post"] = TrackedItemRecord{
		Identity:        "https://example.com/post",
		LastFingerprint: "abc",
		TrackerID:       7,
	}

	if err := store.Save(original); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load()
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	if len(loaded.Records) != 1 {
		t.Fatalf("Expected 1 record after reopen, got %d", len(loaded.Records))
	}

	if loaded.Records["https://example.com/post"].TrackerID != 7 {
		t.Errorf("Expected tracker ID 7, got %d", loaded.Records["https://example.com/post"].TrackerID)
	}
}
