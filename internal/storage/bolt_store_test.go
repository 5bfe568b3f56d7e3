package storage

import (
	"net/http"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-request-manager/internal/domain"
)

func TestBoltStoreSavesAndExpiresSnapshots(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		SnapshotTTL:     1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(dir+"/snapshots.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	_, found, err := store.Latest("status")
	if err != nil || found {
		t.Fatalf("expected no snapshot, found=%v err=%v", found, err)
	}

	snap := domain.Snapshot{
		RequestID:  "status",
		Method:     http.MethodGet,
		URL:        "https://example.com/status",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       "ok",
		FetchedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := store.Latest("status")
	if err != nil || !found {
		t.Fatalf("expected stored snapshot, found=%v err=%v", found, err)
	}
	if got.Body != "ok" || got.StatusCode != http.StatusOK || got.Header.Get("Content-Type") != "text/plain" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if !got.FetchedAt.Equal(snap.FetchedAt) {
		t.Fatalf("fetched_at mismatch: %v vs %v", got.FetchedAt, snap.FetchedAt)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	_, found, err = store.Latest("status")
	if err != nil {
		t.Fatalf("Latest after expiry: %v", err)
	}
	if found {
		t.Fatalf("expected snapshot to expire and be removed")
	}
}

func TestBoltStoreSaveOverwrites(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/snapshots.db", Options{SnapshotTTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer storeRaw.Close()

	for _, body := range []string{"v1", "v2"} {
		if err := storeRaw.Save(domain.Snapshot{RequestID: "r", Body: body}); err != nil {
			t.Fatalf("Save %s: %v", body, err)
		}
	}
	got, found, err := storeRaw.Latest("r")
	if err != nil || !found || got.Body != "v2" {
		t.Fatalf("expected latest body v2, got %+v found=%v err=%v", got, found, err)
	}
}

func TestBoltStoreRejectsEmptyRequestID(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/snapshots.db", Options{SnapshotTTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer storeRaw.Close()

	if err := storeRaw.Save(domain.Snapshot{}); err == nil {
		t.Fatalf("expected error for empty request id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Save(domain.Snapshot{RequestID: "x"}); err != nil {
		t.Fatalf("noop store Save: %v", err)
	}
	if _, found, _ := store.Latest("x"); found {
		t.Fatalf("noop store must not return snapshots")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}
