package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDisk_GetSetDelete(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	// Get on empty store
	if _, ok := store.Get(ctx, "nonexistent"); ok {
		t.Error("Get on empty store should return ok=false")
	}

	key := "deck:abc123"
	value := []byte(`{"valid":true,"card_count":100}`)
	if err := store.Set(ctx, key, value, 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get(ctx, key)
	if !ok {
		t.Error("Get after Set should return ok=true")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := store.Get(ctx, key); ok {
		t.Error("Get after Delete should return ok=false")
	}

	// Delete is idempotent
	if err := store.Delete(ctx, "nonexistent"); err != nil {
		t.Errorf("Delete on non-existent key should not error, got: %v", err)
	}
}

func TestDisk_RequiresDirectory(t *testing.T) {
	if _, err := NewDisk("", time.Hour); err == nil {
		t.Error("NewDisk with empty dir should error")
	}
}

func TestDisk_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewDisk(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	value := []byte("persisted-analysis")
	if err := first.Set(ctx, "deck:persist", value, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A fresh store over the same directory serves the old writes
	second, err := NewDisk(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewDisk (restart) failed: %v", err)
	}
	got, ok := second.Get(ctx, "deck:persist")
	if !ok {
		t.Fatal("expected entry to survive restart")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}
}

func TestDisk_Expiry(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 30*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	// Expired file lingers until accessed
	if got := store.Len(); got != 1 {
		t.Errorf("Len before access = %d, want 1", got)
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get after expiry should return ok=false")
	}
	if got := store.Len(); got != 0 {
		t.Errorf("Len after access = %d, want 0 (expired file removed)", got)
	}
}

func TestDisk_SetDefaultTTL(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	store.SetDefaultTTL(30 * time.Millisecond)
	if err := store.Set(ctx, "k", []byte("v"), DefaultTTL); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("expected entry to expire under the new default TTL")
	}
}

func TestDisk_CorruptEntrySelfHeals(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Truncate the entry file to simulate a corrupt write from an older run
	if err := os.WriteFile(store.path("k"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get on corrupt entry should return ok=false")
	}
	if _, err := os.Stat(store.path("k")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("corrupt entry file should be removed, stat err = %v", err)
	}

	// The slot is usable again
	if err := store.Set(ctx, "k", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("Set after self-heal failed: %v", err)
	}
	if got, ok := store.Get(ctx, "k"); !ok || !bytes.Equal(got, []byte("v2")) {
		t.Errorf("Get after re-Set = %q, %v; want %q, true", got, ok, "v2")
	}
}

func TestDisk_KeyMismatchSelfHeals(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	// Valid JSON at k's path but recorded for another key
	entry := diskEntry{Key: "other", Value: []byte("v"), CreatedAt: time.Now().UTC()}
	payload, _ := json.Marshal(entry)
	if err := os.WriteFile(store.path("k"), payload, 0o600); err != nil {
		t.Fatalf("write mismatched entry: %v", err)
	}

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get on mismatched entry should return ok=false")
	}
	if _, err := os.Stat(store.path("k")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("mismatched entry file should be removed, stat err = %v", err)
	}
}

func TestDisk_AtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDisk(dir, time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := store.Set(ctx, "k", []byte("value"), time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	tmps, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(tmps) != 0 {
		t.Errorf("found %d leftover temp files: %v", len(tmps), tmps)
	}
	if got := store.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}
}

func TestDisk_EntryFormat(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	before := time.Now().UTC()
	if err := store.Set(ctx, "k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := os.ReadFile(store.path("k"))
	if err != nil {
		t.Fatalf("read entry file: %v", err)
	}
	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("entry file is not valid JSON: %v", err)
	}
	if entry.Key != "k" {
		t.Errorf("entry.Key = %q, want %q", entry.Key, "k")
	}
	if !bytes.Equal(entry.Value, []byte("payload")) {
		t.Errorf("entry.Value = %q, want %q", entry.Value, "payload")
	}
	if entry.CreatedAt.Before(before.Add(-time.Second)) {
		t.Errorf("entry.CreatedAt = %v, want >= %v", entry.CreatedAt, before)
	}
	if !entry.ExpiresAt.After(entry.CreatedAt) {
		t.Errorf("entry.ExpiresAt = %v, want after CreatedAt %v", entry.ExpiresAt, entry.CreatedAt)
	}
}

func TestDisk_NoExpiryEntry(t *testing.T) {
	store, err := NewDisk(t.TempDir(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), NoExpiry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Error("expected NoExpiry entry to survive past the default TTL")
	}
}

func TestDisk_Clear(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, key, []byte("v"), time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}
	if got := store.Len(); got != 3 {
		t.Fatalf("Len = %d, want 3", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got := store.Len(); got != 0 {
		t.Errorf("Len after Clear = %d, want 0", got)
	}
}

func TestDisk_CleanupExpired(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	_ = store.Set(ctx, "short", []byte("v"), 30*time.Millisecond)
	_ = store.Set(ctx, "long", []byte("v"), time.Hour)

	// A corrupt stray is collected too
	if err := os.WriteFile(store.path("stray"), []byte("junk"), 0o600); err != nil {
		t.Fatalf("write stray: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if removed := store.CleanupExpired(); removed != 2 {
		t.Errorf("CleanupExpired = %d, want 2", removed)
	}
	if got := store.Len(); got != 1 {
		t.Errorf("Len after cleanup = %d, want 1", got)
	}
	if _, ok := store.Get(ctx, "long"); !ok {
		t.Error("expected unexpired entry to survive cleanup")
	}
}

func TestDisk_Stats(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	_ = store.Set(ctx, "a", []byte("1"), time.Minute)
	store.Get(ctx, "a")       // hit
	store.Get(ctx, "missing") // miss

	s := store.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", s.HitRate)
	}
	if s.Size != 1 {
		t.Errorf("Size = %d, want 1", s.Size)
	}
	if s.MaxSize != 0 {
		t.Errorf("MaxSize = %d, want 0 (unbounded)", s.MaxSize)
	}
}

func TestDisk_Close(t *testing.T) {
	store, err := NewDisk(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), time.Minute)

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if err := store.Set(ctx, "k2", []byte("v"), time.Minute); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

// Verify Disk implements Store interface at compile time
var _ Store = (*Disk)(nil)
