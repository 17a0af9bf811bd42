package secret

import (
	"context"
	"fmt"
	"os"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// Env resolves references against the process environment. The ref is the
// variable name: secretref:env:VALKEY_PASSWORD reads $VALKEY_PASSWORD.
type Env struct{}

// NewEnv creates an environment-backed provider.
func NewEnv() *Env {
	return &Env{}
}

// Name returns "env".
func (e *Env) Name() string { return "env" }

// Resolve reads the named environment variable. A variable that is unset
// errors; a variable set to the empty string resolves to "".
func (e *Env) Resolve(_ context.Context, ref string) (string, error) {
	value, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("secret: environment variable %q is not set", ref)
	}
	return value, nil
}

// Close is a no-op; the environment holds nothing to release.
func (e *Env) Close() error { return nil }

var _ Provider = (*Env)(nil)
