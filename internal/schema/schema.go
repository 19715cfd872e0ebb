// Package schema describes the command tree as JSON so callers can discover
// commands and flags without scraping help text.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

// cobra keeps flag group membership in these annotations.
const (
	annotationRequiredOneOf     = "cobra_annotation_one_required"
	annotationMutuallyExclusive = "cobra_annotation_mutually_exclusive"
)

type CommandSchema struct {
	Path        string          `json:"path"`
	Use         string          `json:"use"`
	Short       string          `json:"short"`
	Example     string          `json:"example,omitempty"`
	Aliases     []string        `json:"aliases,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	GlobalFlags []FlagSchema    `json:"global_flags,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

type FlagSchema struct {
	Name              string   `json:"name"`
	Shorthand         string   `json:"shorthand,omitempty"`
	Type              string   `json:"type"`
	Usage             string   `json:"usage"`
	Default           string   `json:"default,omitempty"`
	Required          bool     `json:"required,omitempty"`
	OneOf             []string `json:"one_of,omitempty"`
	MutuallyExclusive []string `json:"mutually_exclusive,omitempty"`
}

// Build returns the schema of the command at commandPath (space separated,
// relative to root). The root's persistent flags are listed once, on the
// returned node.
func Build(root *cobra.Command, commandPath string) (CommandSchema, error) {
	cmd := root
	for _, p := range strings.Fields(commandPath) {
		next := findChild(cmd, p)
		if next == nil {
			return CommandSchema{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("command not found: %s", commandPath))
		}
		cmd = next
	}
	s := serialize(cmd)
	s.GlobalFlags = flagsOf(root.PersistentFlags())
	return s, nil
}

func findChild(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name || contains(c.Aliases, name) {
			return c
		}
	}
	return nil
}

func serialize(cmd *cobra.Command) CommandSchema {
	s := CommandSchema{
		Path:    strings.TrimSpace(cmd.CommandPath()),
		Use:     cmd.Use,
		Short:   cmd.Short,
		Example: strings.TrimSpace(cmd.Example),
		Aliases: cmd.Aliases,
		Flags:   flagsOf(cmd.LocalNonPersistentFlags()),
	}
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		s.Subcommands = append(s.Subcommands, serialize(sub))
	}
	return s
}

func flagsOf(set *pflag.FlagSet) []FlagSchema {
	items := []FlagSchema{}
	set.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		_, required := f.Annotations[cobra.BashCompOneRequiredFlag]
		items = append(items, FlagSchema{
			Name:              f.Name,
			Shorthand:         f.Shorthand,
			Type:              f.Value.Type(),
			Usage:             f.Usage,
			Default:           f.DefValue,
			Required:          required,
			OneOf:             groupPeers(f, annotationRequiredOneOf),
			MutuallyExclusive: groupPeers(f, annotationMutuallyExclusive),
		})
	})
	return items
}

// groupPeers lists the other flags that share a cobra flag group with f.
func groupPeers(f *pflag.Flag, annotation string) []string {
	seen := map[string]bool{}
	for _, group := range f.Annotations[annotation] {
		for _, name := range strings.Fields(group) {
			if name != f.Name {
				seen[name] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
