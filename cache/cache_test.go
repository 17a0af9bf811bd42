package cache

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestCacheKey_Validation tests key validation rules.
func TestCacheKey_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "cache:deck_analysis:abc123", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateKey(%q) = %v, want nil", tt.key, err)
				}
			} else {
				if err != tt.wantErr {
					t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
				}
			}
		})
	}
}

// TestStoreInterface_CompileCheck verifies the Store interface contract.
// This is a compile-time check enforced by implementing a mock.
func TestStoreInterface_CompileCheck(t *testing.T) {
	var _ Store = (*mockStore)(nil)
}

// mockStore is a test double that implements the Store interface.
type mockStore struct{}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool) {
	return nil, false
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockStore) Clear(ctx context.Context) error {
	return nil
}

func (m *mockStore) Len() int {
	return 0
}

func (m *mockStore) Stats() Stats {
	return Stats{}
}

func (m *mockStore) Close() error {
	return nil
}

// TestSentinelErrors verifies sentinel errors are distinct and have expected messages.
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrNilStore", ErrNilStore, "cache: store is nil"},
		{"ErrInvalidKey", ErrInvalidKey, "cache: key is invalid"},
		{"ErrKeyTooLong", ErrKeyTooLong, "cache: key exceeds max length"},
		{"ErrClosed", ErrClosed, "cache: store is closed"},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, got, tt.wantMsg)
			}
			if seen[tt.err.Error()] {
				t.Errorf("%s duplicates another sentinel's message", tt.name)
			}
			seen[tt.err.Error()] = true
		})
	}
}

// TestBuildStats verifies the derived ratio fields.
func TestBuildStats(t *testing.T) {
	tests := []struct {
		name            string
		size, maxSize   int
		hits, misses    int64
		wantHitRate     float64
		wantUtilization float64
	}{
		{"no accesses", 0, 100, 0, 0, 0.0, 0.0},
		{"all hits", 10, 100, 5, 0, 1.0, 0.1},
		{"all misses", 0, 100, 0, 5, 0.0, 0.0},
		{"mixed", 50, 100, 3, 1, 0.75, 0.5},
		{"unbounded", 42, 0, 1, 1, 0.5, 0.0},
		{"full", 100, 100, 0, 0, 0.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := buildStats(tt.size, tt.maxSize, tt.hits, tt.misses)
			if s.HitRate != tt.wantHitRate {
				t.Errorf("HitRate = %v, want %v", s.HitRate, tt.wantHitRate)
			}
			if s.Utilization != tt.wantUtilization {
				t.Errorf("Utilization = %v, want %v", s.Utilization, tt.wantUtilization)
			}
			if s.Size != tt.size || s.MaxSize != tt.maxSize {
				t.Errorf("Size/MaxSize = %d/%d, want %d/%d", s.Size, s.MaxSize, tt.size, tt.maxSize)
			}
		})
	}
}

// TestStats_JSON verifies the wire field names stay snake_case.
func TestStats_JSON(t *testing.T) {
	s := buildStats(50, 100, 3, 1)
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, field := range []string{"size", "max_size", "hits", "misses", "hit_rate", "utilization"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing JSON field %q in %s", field, data)
		}
	}
}

// TestResolveTTL verifies the DefaultTTL/NoExpiry convention.
func TestResolveTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		def  time.Duration
		want time.Duration
	}{
		{"explicit", time.Minute, time.Hour, time.Minute},
		{"default applied", DefaultTTL, time.Hour, time.Hour},
		{"default unset", DefaultTTL, 0, NoExpiry},
		{"no expiry", NoExpiry, time.Hour, NoExpiry},
		{"negative is no expiry", -5 * time.Second, time.Hour, NoExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveTTL(tt.ttl, tt.def); got != tt.want {
				t.Errorf("resolveTTL(%v, %v) = %v, want %v", tt.ttl, tt.def, got, tt.want)
			}
		})
	}
}

// TestDeadlineFor verifies expiry deadlines, with the zero time meaning never.
func TestDeadlineFor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := deadlineFor(time.Minute, time.Hour, now); !got.Equal(now.Add(time.Minute)) {
		t.Errorf("explicit ttl deadline = %v, want %v", got, now.Add(time.Minute))
	}
	if got := deadlineFor(DefaultTTL, time.Hour, now); !got.Equal(now.Add(time.Hour)) {
		t.Errorf("default ttl deadline = %v, want %v", got, now.Add(time.Hour))
	}
	if got := deadlineFor(NoExpiry, time.Hour, now); !got.IsZero() {
		t.Errorf("NoExpiry deadline = %v, want zero time", got)
	}
	if got := deadlineFor(DefaultTTL, 0, now); !got.IsZero() {
		t.Errorf("unset default deadline = %v, want zero time", got)
	}
}

// TestMaxKeyLength verifies the constant value.
func TestMaxKeyLength(t *testing.T) {
	if MaxKeyLength != 512 {
		t.Errorf("MaxKeyLength = %d, want 512", MaxKeyLength)
	}
}
