// Package cache provides the caching tiers for deck analysis results and
// upstream card API responses.
//
// Store is the shared contract. Memory is a bounded LRU with per-entry
// TTLs, Disk persists one JSON file per entry with atomic writes, Valkey
// is a shared server-side tier, and Tiered layers a fast store over a
// slow one. Cached wraps a fetch function with read-through caching and
// per-key single flight; Keyer derives deterministic keys from call
// arguments.
package cache
