package secret

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var bracedVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands $VAR and ${VAR} references in s against the
// process environment. $$ escapes a literal dollar.
//
// The braced form is strict: every ${VAR} must name a set variable, and
// the error lists all missing names so an operator can fix the
// environment in one pass. The bare form keeps os.ExpandEnv's lenient
// behavior. Strictness matters for credentials: a silently-empty
// ${VALKEY_PASSWORD} would connect unauthenticated instead of failing
// loudly at startup.
func ExpandEnvStrict(s string) (string, error) {
	const literalDollar = "\x00dollar\x00"
	s = strings.ReplaceAll(s, "$$", literalDollar)

	var missing []string
	for _, m := range bracedVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok {
			missing = append(missing, m[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		missing = slices.Compact(missing)
		return "", fmt.Errorf("secret: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return strings.ReplaceAll(os.ExpandEnv(s), literalDollar, "$"), nil
}
