// Package policy restricts which commands a caller may run. Agents that only
// need read access can be pinned to e.g. "swap route,chains".
package policy

import (
	"strings"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

// alwaysAllowed commands have no network or cache side effects.
var alwaysAllowed = map[string]bool{
	"version": true,
	"schema":  true,
}

// CheckCommandAllowed allows commandPath when the allowlist is empty, when it
// names the command, or when it names a parent group ("swap" allows
// "swap build").
func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	if alwaysAllowed[normPath] {
		return nil
	}
	for _, allowed := range allowlist {
		a := normalize(allowed)
		if a == "" {
			continue
		}
		if a == normPath || strings.HasPrefix(normPath, a+" ") {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

func normalize(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
