package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jonwraymond/bastion/secret"
)

// Loader hydrates the runtime configuration with env > file > default
// precedence.
type Loader struct {
	envPrefix string
	path      string
	resolver  *secret.Resolver
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithResolver replaces the resolver used for ${VAR} and secretref:
// values. The caller keeps ownership of the resolver.
func WithResolver(r *secret.Resolver) LoaderOption {
	return func(l *Loader) {
		l.resolver = r
	}
}

// NewLoader prepares a loader reading the given YAML file. An empty path
// loads defaults and environment only.
func NewLoader(envPrefix, path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		envPrefix: envPrefix,
		path:      path,
		resolver:  secret.NewEnvResolver(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load assembles the effective configuration: built-in defaults, then the
// file, then environment variables, then secret resolution, normalization
// and validation.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(structToMap(Default()), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if l.path != "" {
		select {
		case <-ctx.Done():
			return Config{}, ctx.Err()
		default:
		}
		if _, err := os.Stat(l.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s not found", l.path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", l.path, err)
		}
		if err := k.Load(file.Provider(l.path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", l.path, err)
		}
	}

	if l.envPrefix != "" {
		transform := func(s string) string {
			// Double underscores signal nesting: BASTION_SERVICE__NAME
			// becomes service.name. Single underscores stay, matching the
			// snake_case wire tags and names like card_api.
			key := strings.TrimPrefix(s, l.envPrefix+"_")
			key = strings.ReplaceAll(key, "__", ".")
			return strings.ToLower(key)
		}
		if err := k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.Normalize()
	if err := l.resolveSecrets(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration from path with the default BASTION env
// prefix and an environment-backed secret resolver.
func Load(path string) (Config, error) {
	return NewLoader(EnvPrefix, path).Load(context.Background())
}

// resolveSecrets expands ${VAR} and secretref: values in the fields that
// may carry credentials or per-environment endpoints.
func (l *Loader) resolveSecrets(ctx context.Context, cfg *Config) error {
	if l.resolver == nil {
		return nil
	}

	resolve := func(field string, v *string) error {
		if *v == "" {
			return nil
		}
		out, err := l.resolver.ResolveValue(ctx, *v)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", field, err)
		}
		*v = out
		return nil
	}

	if err := resolve("telemetry.tracing.endpoint", &cfg.Telemetry.Tracing.Endpoint); err != nil {
		return err
	}
	if err := resolve("telemetry.metrics.endpoint", &cfg.Telemetry.Metrics.Endpoint); err != nil {
		return err
	}

	for name, cc := range cfg.Caches {
		if cc.Kind != KindValkey {
			continue
		}
		prefix := "caches." + name + ".valkey."
		if err := resolve(prefix+"address", &cc.Valkey.Address); err != nil {
			return err
		}
		if err := resolve(prefix+"username", &cc.Valkey.Username); err != nil {
			return err
		}
		if err := resolve(prefix+"password", &cc.Valkey.Password); err != nil {
			return err
		}
		cfg.Caches[name] = cc
	}
	return nil
}

// structToMap converts the defaults into a map for the koanf confmap
// provider so later layers merge leaf by leaf.
func structToMap(cfg Config) map[string]any {
	deps := make(map[string]any, len(cfg.Dependencies))
	for name, d := range cfg.Dependencies {
		deps[name] = dependencyToMap(d)
	}
	caches := make(map[string]any, len(cfg.Caches))
	for name, cc := range cfg.Caches {
		caches[name] = cacheToMap(cc)
	}
	return map[string]any{
		"service": map[string]any{
			"name":        cfg.Service.Name,
			"version":     cfg.Service.Version,
			"environment": cfg.Service.Environment,
		},
		"telemetry": map[string]any{
			"tracing": map[string]any{
				"enabled":    cfg.Telemetry.Tracing.Enabled,
				"exporter":   cfg.Telemetry.Tracing.Exporter,
				"endpoint":   cfg.Telemetry.Tracing.Endpoint,
				"sample_pct": cfg.Telemetry.Tracing.SamplePct,
			},
			"metrics": map[string]any{
				"enabled":  cfg.Telemetry.Metrics.Enabled,
				"exporter": cfg.Telemetry.Metrics.Exporter,
				"endpoint": cfg.Telemetry.Metrics.Endpoint,
			},
			"logging": map[string]any{
				"enabled": cfg.Telemetry.Logging.Enabled,
				"level":   cfg.Telemetry.Logging.Level,
				"format":  cfg.Telemetry.Logging.Format,
			},
		},
		"dependencies": deps,
		"caches":       caches,
	}
}

func dependencyToMap(d DependencyConfig) map[string]any {
	return map[string]any{
		"retry": map[string]any{
			"max_attempts":   d.Retry.MaxAttempts,
			"base_delay":     d.Retry.BaseDelay,
			"max_delay":      d.Retry.MaxDelay,
			"multiplier":     d.Retry.Multiplier,
			"disable_jitter": d.Retry.DisableJitter,
		},
		"circuit": map[string]any{
			"failure_threshold": d.Circuit.FailureThreshold,
			"recovery_timeout":  d.Circuit.RecoveryTimeout,
		},
		"rate_limit": map[string]any{
			"rate":  d.RateLimit.Rate,
			"burst": d.RateLimit.Burst,
		},
		"bulkhead": map[string]any{
			"max_concurrent": d.Bulkhead.MaxConcurrent,
			"max_wait":       d.Bulkhead.MaxWait,
		},
		"timeout": d.Timeout,
	}
}

func cacheToMap(cc CacheConfig) map[string]any {
	return map[string]any{
		"kind":        cc.Kind,
		"max_size":    cc.MaxSize,
		"default_ttl": cc.DefaultTTL,
		"max_ttl":     cc.MaxTTL,
		"dir":         cc.Dir,
		"valkey": map[string]any{
			"address":    cc.Valkey.Address,
			"username":   cc.Valkey.Username,
			"password":   cc.Valkey.Password,
			"db":         cc.Valkey.DB,
			"key_prefix": cc.Valkey.KeyPrefix,
		},
		"fast": cc.Fast,
		"slow": cc.Slow,
	}
}
