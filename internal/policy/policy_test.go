package policy

import (
	"testing"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

func TestCheckCommandAllowed(t *testing.T) {
	if err := CheckCommandAllowed(nil, "swap build"); err != nil {
		t.Fatalf("unexpected error with empty allowlist: %v", err)
	}
	if err := CheckCommandAllowed([]string{"swap route"}, "Swap  Route"); err != nil {
		t.Fatalf("expected command to be allowed: %v", err)
	}
	err := CheckCommandAllowed([]string{"swap route"}, "swap build")
	if !clierr.HasCode(err, clierr.CodeBlocked) {
		t.Fatalf("expected command to be blocked, got %v", err)
	}
}

func TestCheckCommandAllowedGroupsAndMetaCommands(t *testing.T) {
	if err := CheckCommandAllowed([]string{"swap"}, "swap build"); err != nil {
		t.Fatalf("expected group allowlist to cover subcommand: %v", err)
	}
	if err := CheckCommandAllowed([]string{"sw"}, "swap build"); err == nil {
		t.Fatal("expected partial word not to match")
	}
	if err := CheckCommandAllowed([]string{"chains"}, "schema"); err != nil {
		t.Fatalf("expected schema to stay available: %v", err)
	}
}
