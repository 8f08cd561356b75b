package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-board/app/feed"
	"github.com/lysyi3m/rss-board/app/state"
	"github.com/lysyi3m/rss-board/app/sync"
)

type fakeRunner struct {
	sources  int
	summary  *sync.RunSummary
	nextRun  *time.Time
	runErr   error
	runCalls int
}

func (f *fakeRunner) RunOnce(ctx context.Context) (*sync.RunSummary, error) {
	f.runCalls++
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.summary, nil
}

func (f *fakeRunner) LastRun() *sync.RunSummary { return f.summary }

func (f *fakeRunner) NextRun() *time.Time { return f.nextRun }

func (f *fakeRunner) SourceCount() int { return f.sources }

var _ SyncRunnerInterface = (*fakeRunner)(nil)

type failingStore struct{}

func (failingStore) Load() (*state.SyncState, error) {
	return nil, fmt.Errorf("backend unavailable")
}

func (failingStore) Save(*state.SyncState) error { return nil }

func newTestServer(t *testing.T, runner SyncRunnerInterface, apiKey string) *gin.Engine {
	t.Helper()

	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	configCache := feed.NewConfigCache(t.TempDir())
	handler := NewHandler(runner, store, configCache, "1.2.3")

	return NewServer(handler, apiKey)
}

func performRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestGetHealth(t *testing.T) {
	feedsDir := t.TempDir()
	configContent := `url: "https://example.com/feed.xml"
settings:
  enabled: true
`
	if err := os.WriteFile(filepath.Join(feedsDir, "news.yml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	configCache := feed.NewConfigCache(feedsDir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("Failed to load configurations: %v", err)
	}

	runner := &fakeRunner{sources: 2}
	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	handler := NewHandler(runner, store, configCache, "1.2.3")
	server := NewServer(handler, "")

	w := performRequest(server, "GET", "/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["version"] != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %v", body["version"])
	}
	if body["sources"] != float64(2) {
		t.Errorf("Expected 2 sources, got %v", body["sources"])
	}
	if body["loaded_configurations"] != float64(1) {
		t.Errorf("Expected 1 loaded configuration, got %v", body["loaded_configurations"])
	}
}

func TestGetStats(t *testing.T) {
	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	syncState := state.NewSyncState()
	syncState.Records["https://example.com/a"] = state.TrackedItemRecord{
		Identity:        "https://example.com/a",
		LastFingerprint: "aaa",
		TrackerID:       1,
	}
	syncState.Records["https://example.com/b"] = state.TrackedItemRecord{
		Identity:        "https://example.com/b",
		LastFingerprint: "bbb",
		TrackerID:       2,
	}
	lastSync := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	syncState.LastSyncAt = &lastSync
	if err := store.Save(syncState); err != nil {
		t.Fatalf("Failed to seed state: %v", err)
	}

	nextRun := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	runner := &fakeRunner{
		sources: 1,
		summary: &sync.RunSummary{
			Result:        sync.Result{Created: 3, Updated: 1, Skipped: 5, Failed: 2},
			FetchFailures: 1,
			CompletedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		nextRun: &nextRun,
	}

	configCache := feed.NewConfigCache(t.TempDir())
	handler := NewHandler(runner, store, configCache, "1.2.3")
	server := NewServer(handler, "")

	w := performRequest(server, "GET", "/stats", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["tracked_items"] != float64(2) {
		t.Errorf("Expected 2 tracked items, got %v", body["tracked_items"])
	}
	if body["last_sync_at"] != "2025-06-01T12:00:00Z" {
		t.Errorf("Expected last sync timestamp, got %v", body["last_sync_at"])
	}
	if body["next_run_at"] != "2025-06-01T12:05:00Z" {
		t.Errorf("Expected next run timestamp, got %v", body["next_run_at"])
	}

	lastRun, ok := body["last_run"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected last_run in response, got %v", body)
	}
	if lastRun["created"] != float64(3) {
		t.Errorf("Expected 3 created, got %v", lastRun["created"])
	}
	if lastRun["failed"] != float64(2) {
		t.Errorf("Expected 2 failed, got %v", lastRun["failed"])
	}
	if lastRun["fetch_failures"] != float64(1) {
		t.Errorf("Expected 1 fetch failure, got %v", lastRun["fetch_failures"])
	}
}

func TestGetStatsStateError(t *testing.T) {
	runner := &fakeRunner{}
	configCache := feed.NewConfigCache(t.TempDir())
	handler := NewHandler(runner, failingStore{}, configCache, "1.2.3")
	server := NewServer(handler, "")

	w := performRequest(server, "GET", "/stats", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestTriggerSync(t *testing.T) {
	runner := &fakeRunner{
		summary: &sync.RunSummary{
			Result:      sync.Result{Created: 1, Skipped: 4},
			CompletedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	server := newTestServer(t, runner, "secret")

	w := performRequest(server, "POST", "/api/sync", map[string]string{"X-API-Key": "secret"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if runner.runCalls != 1 {
		t.Errorf("Expected 1 run call, got %d", runner.runCalls)
	}

	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("Expected success true, got %v", body["success"])
	}

	result, ok := body["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected result in response, got %v", body)
	}
	if result["created"] != float64(1) {
		t.Errorf("Expected 1 created, got %v", result["created"])
	}
	if result["skipped"] != float64(4) {
		t.Errorf("Expected 4 skipped, got %v", result["skipped"])
	}
}

func TestTriggerSyncRequiresAuth(t *testing.T) {
	runner := &fakeRunner{}
	server := newTestServer(t, runner, "secret")

	w := performRequest(server, "POST", "/api/sync", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}

	w = performRequest(server, "POST", "/api/sync", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	if runner.runCalls != 0 {
		t.Errorf("Expected no run calls, got %d", runner.runCalls)
	}
}

func TestTriggerSyncBearerToken(t *testing.T) {
	runner := &fakeRunner{
		summary: &sync.RunSummary{CompletedAt: time.Now()},
	}
	server := newTestServer(t, runner, "secret")

	w := performRequest(server, "POST", "/api/sync", map[string]string{"Authorization": "Bearer secret"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if runner.runCalls != 1 {
		t.Errorf("Expected 1 run call, got %d", runner.runCalls)
	}
}

func TestTriggerSyncDisabledWithoutKey(t *testing.T) {
	runner := &fakeRunner{}
	server := newTestServer(t, runner, "")

	w := performRequest(server, "POST", "/api/sync", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestTriggerSyncFailure(t *testing.T) {
	runner := &fakeRunner{runErr: fmt.Errorf("state file locked")}
	server := newTestServer(t, runner, "secret")

	w := performRequest(server, "POST", "/api/sync", map[string]string{"X-API-Key": "secret"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["error"] != "Sync run failed" {
		t.Errorf("Expected sync failure error, got %v", body["error"])
	}
}

func TestAPIListFeeds(t *testing.T) {
	feedsDir := t.TempDir()
	configs := map[string]string{
		"news.yml": `url: "https://example.com/news.xml"
labels:
  - rss
settings:
  enabled: true
`,
		"releases.yml": `url: "https://example.com/releases.xml"
settings:
  enabled: false
`,
	}
	for name, content := range configs {
		if err := os.WriteFile(filepath.Join(feedsDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}
	}

	configCache := feed.NewConfigCache(feedsDir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("Failed to load configurations: %v", err)
	}

	runner := &fakeRunner{}
	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	handler := NewHandler(runner, store, configCache, "1.2.3")
	server := NewServer(handler, "secret")

	w := performRequest(server, "GET", "/api/feeds", map[string]string{"X-API-Key": "secret"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["total"] != float64(2) {
		t.Errorf("Expected 2 feeds, got %v", body["total"])
	}

	feeds, ok := body["feeds"].([]interface{})
	if !ok {
		t.Fatalf("Expected feeds array, got %v", body)
	}
	if len(feeds) != 2 {
		t.Errorf("Expected 2 feed entries, got %d", len(feeds))
	}
}

func TestRootEndpoint(t *testing.T) {
	runner := &fakeRunner{}
	server := newTestServer(t, runner, "")

	w := performRequest(server, "GET", "/", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["service"] != "RSS Board" {
		t.Errorf("Expected service name, got %v", body["service"])
	}
}
