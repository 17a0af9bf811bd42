// Package registry builds and owns the toolkit's long-lived instances.
//
// A Registry is constructed once at startup from a config.Config: one
// cache store per configured cache, one resilience executor per
// configured dependency, with observability hooks wired in when an
// observe.Observer is supplied. Nothing in this module is a package-level
// singleton; the registry is the composition root and callers pass it
// (or the instances it hands out) explicitly.
//
//	cfg, err := config.Load("bastion.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	obs, err := observe.NewObserver(ctx, cfg.Observe())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg, err := registry.New(cfg, obs)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reg.Close(context.Background())
//
// Dependency calls go through Guard, which stacks the configured rate
// limiter, bulkhead, breaker, retry, and timeout around the operation and
// names it for tracing:
//
//	err = reg.Guard(ctx, "card_api", "get_card", func(ctx context.Context) error {
//	    return client.FetchCard(ctx, id)
//	})
//
// Read-through caching composes outside the guards via CachedFetch, which
// binds a fetch function to a named cache with its TTL policy and hit and
// miss telemetry:
//
//	getDeck, err := registry.CachedFetch(reg, "deck", "analyze_deck", cache.DefaultTTL, fetchDeck)
//
// Hot reload pairs with config.Watcher: Apply retunes rate limits and
// cache default TTLs in place and logs anything that needs a restart.
// Health surfaces through Checkers, which feeds a health.Aggregator.
package registry
