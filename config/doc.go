// Package config loads and validates the runtime configuration for the
// resilience and caching toolkit.
//
// Configuration is assembled from three layers, later layers overriding
// earlier ones:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file
//  3. Environment variables with the BASTION_ prefix, where a double
//     underscore separates nesting: BASTION_SERVICE__NAME=deck-analyzer
//     sets service.name, and
//     BASTION_DEPENDENCIES__CARD_API__RATE_LIMIT__RATE=20 sets
//     dependencies.card_api.rate_limit.rate.
//
// The loaded Config declares one entry per guarded upstream dependency
// (retry, circuit breaker, rate limit, bulkhead, timeout) and one entry
// per cache domain (memory, disk, valkey, or tiered). Zero values defer
// to the built-in defaults (DefaultDependency); a negative
// failure_threshold or rate disables that guard for the dependency.
//
// Credential fields may reference the environment (${VALKEY_PASSWORD})
// or a secret provider (secretref:env:VALKEY_PASSWORD); the loader
// resolves both before validation.
//
// Watch re-reads the file on change, so limiter rates and cache TTLs can
// be tuned without a restart (see registry.Apply).
package config
