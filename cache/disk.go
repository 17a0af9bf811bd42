package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Disk is a persistent store that keeps one JSON file per entry.
//
// Writes go through a temp file followed by a rename, so a crash mid-write
// never leaves a truncated entry behind. Entries survive process restarts:
// a fresh Disk pointed at the same directory serves the previous process's
// writes. Unreadable or corrupt files are deleted on access and reported
// as misses.
type Disk struct {
	mu         sync.Mutex
	dir        string
	defaultTTL time.Duration
	hits       int64
	misses     int64
	closed     bool
}

// diskEntry is the on-disk format. Value is base64-encoded by encoding/json.
// A zero ExpiresAt means the entry never expires.
type diskEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewDisk creates a persistent store rooted at dir, creating the directory
// if needed. defaultTTL applies when Set receives DefaultTTL; a zero
// default means such entries never expire.
func NewDisk(dir string, defaultTTL time.Duration) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("cache: disk directory required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	return &Disk{dir: dir, defaultTTL: defaultTTL}, nil
}

// Dir returns the directory the store writes to.
func (d *Disk) Dir() string {
	return d.dir
}

// Get retrieves a value. Returns (nil, false) on miss, expiry, or when the
// entry on disk cannot be decoded; undecodable entries are removed.
func (d *Disk) Get(_ context.Context, key string) ([]byte, bool) {
	path := d.path(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		d.misses++
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key {
		// Corrupt or mismatched entry, drop it so the next Set self-heals.
		_ = os.Remove(path)
		d.misses++
		return nil, false
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		d.misses++
		return nil, false
	}

	d.hits++
	return entry.Value, true
}

// Set stores a value atomically: the entry is written to a temp file in the
// store directory and renamed into place.
func (d *Disk) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	now := time.Now().UTC()
	entry := diskEntry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: deadlineFor(ttl, d.defaultTTL, now),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: marshal entry: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: rename temp file: %w", err)
	}
	return nil
}

// Delete removes a value from the store. Idempotent - no error on miss.
func (d *Disk) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: remove entry: %w", err)
	}
	return nil
}

// Clear removes every entry file in the store directory.
func (d *Disk) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	files, err := d.entryFilesLocked()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cache: remove entry: %w", err)
		}
	}
	return nil
}

// Len reports the number of entry files, including expired entries that
// have not been collected yet.
func (d *Disk) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	files, err := d.entryFilesLocked()
	if err != nil {
		return 0
	}
	return len(files)
}

// SetDefaultTTL changes the TTL applied to future DefaultTTL writes.
// Deadlines already recorded on disk are unaffected.
func (d *Disk) SetDefaultTTL(ttl time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.defaultTTL = ttl
}

// CleanupExpired removes every expired or undecodable entry file and
// reports how many were dropped.
func (d *Disk) CleanupExpired() int {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	files, err := d.entryFilesLocked()
	if err != nil {
		return 0
	}

	removed := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var entry diskEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			if os.Remove(f) == nil {
				removed++
			}
			continue
		}
		if !entry.ExpiresAt.IsZero() && now.After(entry.ExpiresAt) {
			if os.Remove(f) == nil {
				removed++
			}
		}
	}
	return removed
}

// Stats returns a snapshot of the store's counters. Size is the current
// entry file count; the store is unbounded, so MaxSize is 0.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	size := 0
	if files, err := d.entryFilesLocked(); err == nil {
		size = len(files)
	}
	return buildStats(size, 0, d.hits, d.misses)
}

// Close rejects further writes. Entry files stay on disk for the next
// process. Idempotent.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// path maps a key to its entry file. Hashing keeps arbitrary keys safe to
// use as file names.
func (d *Disk) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:])+".json")
}

func (d *Disk) entryFilesLocked() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(d.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("cache: list entries: %w", err)
	}
	return files, nil
}

// Ensure Disk implements Store
var _ Store = (*Disk)(nil)
