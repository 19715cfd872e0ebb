package schema

import (
	"testing"

	"github.com/spf13/cobra"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "swapcall"}
	root.PersistentFlags().Bool("json", false, "json output")
	swap := &cobra.Command{Use: "swap", Short: "swap commands"}
	build := &cobra.Command{Use: "build", Short: "build router call", RunE: func(*cobra.Command, []string) error { return nil }}
	build.Flags().String("chain", "", "chain")
	build.Flags().String("deadline", "", "epoch deadline")
	build.Flags().String("ttl", "", "seconds from now")
	_ = build.MarkFlagRequired("chain")
	build.MarkFlagsMutuallyExclusive("deadline", "ttl")
	build.MarkFlagsOneRequired("deadline", "ttl")
	swap.AddCommand(build)
	root.AddCommand(swap)
	return root
}

func TestBuildSchema(t *testing.T) {
	s, err := Build(testTree(), "swap build")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Path != "swapcall swap build" {
		t.Fatalf("unexpected path: %s", s.Path)
	}
	byName := map[string]FlagSchema{}
	for _, f := range s.Flags {
		byName[f.Name] = f
	}
	if !byName["chain"].Required {
		t.Fatalf("expected chain to be required: %+v", byName["chain"])
	}
	ttl := byName["ttl"]
	if len(ttl.MutuallyExclusive) != 1 || ttl.MutuallyExclusive[0] != "deadline" {
		t.Fatalf("unexpected exclusive peers: %+v", ttl)
	}
	if len(ttl.OneOf) != 1 || ttl.OneOf[0] != "deadline" {
		t.Fatalf("unexpected one-of peers: %+v", ttl)
	}
	if len(s.GlobalFlags) != 1 || s.GlobalFlags[0].Name != "json" {
		t.Fatalf("unexpected global flags: %+v", s.GlobalFlags)
	}
}

func TestBuildSchemaUnknownCommand(t *testing.T) {
	_, err := Build(testTree(), "swap teleport")
	if !clierr.HasCode(err, clierr.CodeUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
