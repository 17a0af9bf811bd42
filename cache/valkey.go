package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

// ValkeyConfig configures the shared Valkey tier.
type ValkeyConfig struct {
	// Address is the host:port of the Valkey server.
	Address string

	// Username and Password are optional credentials.
	Username string
	Password string

	// DB selects the logical database.
	DB int

	// KeyPrefix namespaces this store's keys so Clear cannot touch
	// another store's entries on a shared server.
	KeyPrefix string

	// DefaultTTL applies when Set receives DefaultTTL. A zero default
	// means such entries never expire.
	DefaultTTL time.Duration
}

// Valkey is a Store backed by a shared Valkey server. TTL enforcement is
// server-side; hit and miss counters are tracked locally per process.
type Valkey struct {
	client     valkey.Client
	prefix     string
	defaultTTL time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewValkey connects to the configured server and verifies it with a ping.
func NewValkey(cfg ValkeyConfig) (*Valkey, error) {
	if cfg.Address == "" {
		return nil, errors.New("cache: valkey address required")
	}

	option := valkey.ClientOption{
		InitAddress:       []string{cfg.Address},
		Username:          cfg.Username,
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	}

	client, err := valkey.NewClient(option)
	if err != nil {
		return nil, fmt.Errorf("cache: valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: valkey ping: %w", err)
	}

	return &Valkey{client: client, prefix: cfg.KeyPrefix, defaultTTL: cfg.DefaultTTL}, nil
}

// Get retrieves a value. Returns (nil, false) on miss and on server
// errors; a failing tier reads as a cold cache.
func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool) {
	resp := v.client.Do(ctx, v.client.B().Get().Key(v.prefix+key).Build())
	if err := resp.Error(); err != nil {
		v.misses.Add(1)
		return nil, false
	}
	data, err := resp.AsBytes()
	if err != nil {
		v.misses.Add(1)
		return nil, false
	}
	v.hits.Add(1)
	return data, true
}

// Set stores a value. TTLs are applied with PX so sub-second values are
// honored; NoExpiry entries are written without an expiration.
func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	builder := v.client.B().Set().Key(v.prefix + key).Value(string(value))
	var cmd valkey.Completed
	if resolved := resolveTTL(ttl, v.defaultTTL); resolved > 0 {
		cmd = builder.Px(resolved).Build()
	} else {
		cmd = builder.Build()
	}

	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache: valkey set: %w", err)
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (v *Valkey) Delete(ctx context.Context, key string) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(v.prefix+key).Build()).Error(); err != nil {
		return fmt.Errorf("cache: valkey del: %w", err)
	}
	return nil
}

// Clear removes every key under the store's prefix using SCAN, so other
// tenants of a shared server are untouched.
func (v *Valkey) Clear(ctx context.Context) error {
	var cursor uint64
	match := v.prefix + "*"
	for {
		resp := v.client.Do(ctx, v.client.B().Scan().Cursor(cursor).Match(match).Count(256).Build())
		entry, err := resp.AsScanEntry()
		if err != nil {
			return fmt.Errorf("cache: valkey scan: %w", err)
		}
		if len(entry.Elements) > 0 {
			if err := v.client.Do(ctx, v.client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return fmt.Errorf("cache: valkey del: %w", err)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

// Len returns 0: the shared tier's population is not tracked per process.
func (v *Valkey) Len() int {
	return 0
}

// Stats returns this process's hit and miss counters. Size and MaxSize are
// 0 because the shared tier is unbounded from this process's view.
func (v *Valkey) Stats() Stats {
	return buildStats(0, 0, v.hits.Load(), v.misses.Load())
}

// Close closes the underlying client.
func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}

// Ensure Valkey implements Store
var _ Store = (*Valkey)(nil)
