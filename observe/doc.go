// Package observe provides observability primitives for guarded dependency
// calls and caches.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. The resilience and cache packages stay free of
// telemetry; hook factories (RetryHook, StateChangeHook, CacheHooks) bridge
// their callback fields into the Observer's logger and metrics.
package observe
