package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/bastion/observe"
)

// EnvPrefix is the prefix the loader recognizes on environment variables.
const EnvPrefix = "BASTION"

// Cache kinds accepted by CacheConfig.Kind.
const (
	KindMemory = "memory"
	KindDisk   = "disk"
	KindValkey = "valkey"
	KindTiered = "tiered"
)

// Sentinel errors for configuration validation.
var (
	ErrMissingServiceName = errors.New("config: service name is required")
	ErrInvalidName        = errors.New("config: invalid name")
	ErrInvalidDependency  = errors.New("config: invalid dependency")
	ErrInvalidCache       = errors.New("config: invalid cache")
	ErrUnknownCacheKind   = errors.New("config: unknown cache kind")
	ErrUnknownTier        = errors.New("config: tier references unknown cache")
	ErrNestedTier         = errors.New("config: tier must not be a tiered cache")
)

// Config is the root configuration document.
type Config struct {
	Service      ServiceConfig               `koanf:"service"`
	Telemetry    TelemetryConfig             `koanf:"telemetry"`
	Dependencies map[string]DependencyConfig `koanf:"dependencies"`
	Caches       map[string]CacheConfig      `koanf:"caches"`
}

// ServiceConfig identifies the service in telemetry resource attributes.
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

// TelemetryConfig mirrors observe.Config with wire tags.
type TelemetryConfig struct {
	Tracing TracingConfig `koanf:"tracing"`
	Metrics MetricsConfig `koanf:"metrics"`
	Logging LoggingConfig `koanf:"logging"`
}

// TracingConfig configures the tracing subsystem.
type TracingConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Exporter  string  `koanf:"exporter"`
	Endpoint  string  `koanf:"endpoint"`
	SamplePct float64 `koanf:"sample_pct"`
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"`
	Endpoint string `koanf:"endpoint"`
}

// LoggingConfig configures the logging subsystem.
type LoggingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
}

// DependencyConfig declares the guards around one upstream dependency.
// Zero-valued fields take the DefaultDependency values; a negative
// circuit failure_threshold or rate limit rate disables that guard
// entirely.
type DependencyConfig struct {
	Retry     RetryConfig     `koanf:"retry"`
	Circuit   CircuitConfig   `koanf:"circuit"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Bulkhead  BulkheadConfig  `koanf:"bulkhead"`

	// Timeout bounds each individual attempt. Zero means no per-attempt
	// deadline beyond what the caller's context carries.
	Timeout time.Duration `koanf:"timeout"`
}

// RetryConfig tunes the retry loop for one dependency.
type RetryConfig struct {
	// MaxAttempts includes the initial call; 1 disables retries.
	MaxAttempts int `koanf:"max_attempts"`

	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxDelay   time.Duration `koanf:"max_delay"`
	Multiplier float64       `koanf:"multiplier"`

	// DisableJitter turns off delay randomization. Jitter is on by
	// default so synchronized clients do not retry in lockstep.
	DisableJitter bool `koanf:"disable_jitter"`
}

// CircuitConfig tunes the circuit breaker for one dependency.
type CircuitConfig struct {
	// FailureThreshold is the consecutive failures that open the
	// circuit. Negative disables the breaker.
	FailureThreshold int `koanf:"failure_threshold"`

	RecoveryTimeout time.Duration `koanf:"recovery_timeout"`
}

// RateLimitConfig tunes the token bucket for one dependency.
type RateLimitConfig struct {
	// Rate is the refill rate in tokens per second. Negative disables
	// the limiter.
	Rate float64 `koanf:"rate"`

	// Burst is the bucket capacity.
	Burst int `koanf:"burst"`
}

// BulkheadConfig caps concurrent calls to one dependency. The zero value
// leaves the dependency without a bulkhead.
type BulkheadConfig struct {
	MaxConcurrent int           `koanf:"max_concurrent"`
	MaxWait       time.Duration `koanf:"max_wait"`
}

// CacheConfig declares one cache domain.
type CacheConfig struct {
	// Kind selects the store: memory, disk, valkey, or tiered.
	// Empty defaults to memory.
	Kind string `koanf:"kind"`

	// MaxSize bounds a memory store's entry count. Zero means unbounded.
	MaxSize int `koanf:"max_size"`

	// DefaultTTL applies to writes that do not carry their own TTL.
	// Zero means such entries never expire.
	DefaultTTL time.Duration `koanf:"default_ttl"`

	// MaxTTL is a ceiling applied by decorator policies built from this
	// config. Zero means no ceiling.
	MaxTTL time.Duration `koanf:"max_ttl"`

	// Dir is the directory for a disk store.
	Dir string `koanf:"dir"`

	// Valkey configures a valkey store.
	Valkey ValkeyConfig `koanf:"valkey"`

	// Fast and Slow name the tiers of a tiered cache. They must refer to
	// other configured caches that are not themselves tiered.
	Fast string `koanf:"fast"`
	Slow string `koanf:"slow"`
}

// ValkeyConfig carries the connection settings for a valkey store.
// Password may be a ${VAR} or secretref: reference; the loader resolves
// it before validation.
type ValkeyConfig struct {
	Address   string `koanf:"address"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// Default returns the built-in configuration: three cache domains, one
// guarded card API dependency, logging enabled, tracing and metrics off.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Name:        "bastion",
			Environment: "development",
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics: MetricsConfig{Exporter: "none"},
			Logging: LoggingConfig{Enabled: true, Level: "info", Format: "json"},
		},
		Dependencies: map[string]DependencyConfig{
			"card_api": DefaultDependency(),
		},
		Caches: map[string]CacheConfig{
			"meta": {Kind: KindMemory, MaxSize: 100, DefaultTTL: time.Hour},
			"deck": {Kind: KindMemory, MaxSize: 500, DefaultTTL: 30 * time.Minute},
			"api":  {Kind: KindDisk, Dir: "data/cache", DefaultTTL: 24 * time.Hour},
		},
	}
}

// DefaultDependency returns the guard profile applied to zero-valued
// dependency fields: 3 attempts backing off 1s..60s at 2x with jitter,
// a breaker opening after 5 failures for 60s, and a 10/s burst-5 limiter.
func DefaultDependency() DependencyConfig {
	return DependencyConfig{
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    60 * time.Second,
			Multiplier:  2.0,
		},
		Circuit: CircuitConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Rate:  10,
			Burst: 5,
		},
	}
}

// Observe converts the service and telemetry sections into an
// observe.Config ready for observe.NewObserver.
func (c Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Environment: c.Service.Environment,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.Tracing.Enabled,
			Exporter:  c.Telemetry.Tracing.Exporter,
			Endpoint:  c.Telemetry.Tracing.Endpoint,
			SamplePct: c.Telemetry.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.Metrics.Enabled,
			Exporter: c.Telemetry.Metrics.Exporter,
			Endpoint: c.Telemetry.Metrics.Endpoint,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Telemetry.Logging.Enabled,
			Level:   c.Telemetry.Logging.Level,
			Format:  c.Telemetry.Logging.Format,
		},
	}
}

// Normalize fills zero-valued fields with their defaults. It is
// idempotent; the loader and the registry both call it before Validate.
func (c *Config) Normalize() {
	def := DefaultDependency()
	for name, d := range c.Dependencies {
		if d.Retry.MaxAttempts == 0 {
			d.Retry.MaxAttempts = def.Retry.MaxAttempts
		}
		if d.Retry.BaseDelay == 0 {
			d.Retry.BaseDelay = def.Retry.BaseDelay
		}
		if d.Retry.MaxDelay == 0 {
			d.Retry.MaxDelay = def.Retry.MaxDelay
		}
		if d.Retry.Multiplier == 0 {
			d.Retry.Multiplier = def.Retry.Multiplier
		}
		if d.Circuit.FailureThreshold == 0 {
			d.Circuit.FailureThreshold = def.Circuit.FailureThreshold
		}
		if d.Circuit.RecoveryTimeout == 0 {
			d.Circuit.RecoveryTimeout = def.Circuit.RecoveryTimeout
		}
		if d.RateLimit.Rate == 0 {
			d.RateLimit.Rate = def.RateLimit.Rate
		}
		if d.RateLimit.Burst == 0 {
			d.RateLimit.Burst = def.RateLimit.Burst
		}
		c.Dependencies[name] = d
	}

	for name, cc := range c.Caches {
		if cc.Kind == "" {
			cc.Kind = KindMemory
		}
		if cc.Kind == KindDisk && cc.Dir == "" {
			cc.Dir = "data/cache"
		}
		if cc.Kind == KindValkey && cc.Valkey.KeyPrefix == "" {
			cc.Valkey.KeyPrefix = name + ":"
		}
		c.Caches[name] = cc
	}
}

// Validate checks the configuration for contradictions. Callers should
// Normalize first; the loader does both.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}

	obs := c.Observe()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("config: telemetry: %w", err)
	}

	for name, d := range c.Dependencies {
		if err := validateName(name); err != nil {
			return err
		}
		if err := validateDependency(d); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidDependency, name, err)
		}
	}

	for name, cc := range c.Caches {
		if err := validateName(name); err != nil {
			return err
		}
		if err := c.validateCache(name, cc); err != nil {
			return err
		}
	}

	return nil
}

// validateName rejects names that would collide with the loader's key
// delimiter or disappear in environment variable paths.
func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, ". \t") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func validateDependency(d DependencyConfig) error {
	if d.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if d.Retry.BaseDelay < 0 {
		return errors.New("retry.base_delay must not be negative")
	}
	if d.Retry.MaxDelay < d.Retry.BaseDelay {
		return errors.New("retry.max_delay must not be below base_delay")
	}
	if d.Retry.Multiplier < 1 {
		return errors.New("retry.multiplier must be at least 1")
	}
	if d.Circuit.FailureThreshold > 0 && d.Circuit.RecoveryTimeout <= 0 {
		return errors.New("circuit.recovery_timeout must be positive")
	}
	if d.RateLimit.Rate > 0 && d.RateLimit.Burst < 1 {
		return errors.New("rate_limit.burst must be at least 1")
	}
	if d.Bulkhead.MaxConcurrent < 0 {
		return errors.New("bulkhead.max_concurrent must not be negative")
	}
	if d.Bulkhead.MaxWait < 0 {
		return errors.New("bulkhead.max_wait must not be negative")
	}
	if d.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

func (c *Config) validateCache(name string, cc CacheConfig) error {
	if cc.MaxSize < 0 {
		return fmt.Errorf("%w %q: max_size must not be negative", ErrInvalidCache, name)
	}
	if cc.DefaultTTL < 0 || cc.MaxTTL < 0 {
		return fmt.Errorf("%w %q: ttl must not be negative", ErrInvalidCache, name)
	}
	if cc.MaxTTL > 0 && cc.DefaultTTL > cc.MaxTTL {
		return fmt.Errorf("%w %q: default_ttl exceeds max_ttl", ErrInvalidCache, name)
	}

	switch cc.Kind {
	case KindMemory, KindDisk:
	case KindValkey:
		if cc.Valkey.Address == "" {
			return fmt.Errorf("%w %q: valkey.address is required", ErrInvalidCache, name)
		}
	case KindTiered:
		for _, tier := range []string{cc.Fast, cc.Slow} {
			if tier == "" {
				return fmt.Errorf("%w %q: tiered caches need fast and slow", ErrInvalidCache, name)
			}
			ref, ok := c.Caches[tier]
			if !ok {
				return fmt.Errorf("%w: %q references %q", ErrUnknownTier, name, tier)
			}
			if ref.Kind == KindTiered {
				return fmt.Errorf("%w: %q references %q", ErrNestedTier, name, tier)
			}
		}
		if cc.Fast == cc.Slow {
			return fmt.Errorf("%w %q: fast and slow must differ", ErrInvalidCache, name)
		}
	default:
		return fmt.Errorf("%w: %q has kind %q", ErrUnknownCacheKind, name, cc.Kind)
	}
	return nil
}
