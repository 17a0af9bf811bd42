// Package secret resolves credential material referenced from
// configuration, so Valkey passwords, OTLP headers, and similar values
// never have to be written into config files in the clear.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider, Env)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:VALKEY_PASSWORD
//   - Inline use:  Bearer secretref:env:OTLP_TOKEN
//
// Providers are injected into a Resolver explicitly; there is no global
// provider registry. Log redaction of resolved values is the logging
// layer's job, not this package's.
package secret
