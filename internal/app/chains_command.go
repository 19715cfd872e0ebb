package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/config"
	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/id"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/model"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/registry"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/swapcall"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/trade"
)

// resolveChains layers per-chain config overrides over the built-in chains.
// An override for an unknown chain id adds that chain.
func resolveChains(settings config.Settings) (map[int64]swapcall.ChainConfig, error) {
	chains := swapcall.DefaultChains()
	for chainID, o := range settings.Chains {
		c, ok := chains[chainID]
		if !ok {
			c = swapcall.ChainConfig{ChainID: chainID}
			if rpc, ok := registry.DefaultRPCURL(chainID); ok {
				c.RPCURL = rpc
			}
		}
		label := fmt.Sprintf("chains.%d", chainID)
		if o.RouteEndpoint != "" {
			if !registry.IsAllowedRouteEndpoint(o.RouteEndpoint) {
				return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("%s.route_endpoint must use https (http only for loopback)", label))
			}
			c.RouteEndpoint = o.RouteEndpoint
		}
		for _, field := range []struct {
			name  string
			value string
			dst   *common.Address
		}{
			{"router", o.Router, &c.Router},
			{"executor", o.Executor, &c.Executor},
			{"wrapped_native", o.WrappedNative, &c.WrappedNative},
		} {
			if field.value == "" {
				continue
			}
			addr, err := trade.ValidateAddress(field.value)
			if err != nil {
				return nil, clierr.Wrap(clierr.CodeInvalidAddress, fmt.Sprintf("%s.%s", label, field.name), err)
			}
			*field.dst = addr
		}
		if o.RPCURL != "" {
			c.RPCURL = o.RPCURL
		}
		if len(o.ChainableExchanges) > 0 {
			c.ChainableExchanges = append([]string(nil), o.ChainableExchanges...)
		}
		chains[chainID] = c
	}
	return chains, nil
}

func (s *runtimeState) newChainsCommand() *cobra.Command {
	root := &cobra.Command{Use: "chains", Short: "Chain configuration"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List configured chains with route endpoint, router and executor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), chainInfos(s.chains), nil, cacheMetaBypass(), nil, false)
		},
	}
	root.AddCommand(list)
	return root
}

func chainInfos(chains map[int64]swapcall.ChainConfig) []model.ChainInfo {
	ids := make([]int64, 0, len(chains))
	for chainID := range chains {
		ids = append(ids, chainID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.ChainInfo, 0, len(ids))
	for _, chainID := range ids {
		c := chains[chainID]
		chain := id.ChainFromID(chainID)
		exchanges := append([]string(nil), c.ChainableExchanges...)
		sort.Strings(exchanges)
		out = append(out, model.ChainInfo{
			ChainID:            chain.CAIP2,
			Name:               chain.Name,
			RouteEndpoint:      c.RouteEndpoint,
			Router:             addressString(c.Router),
			Executor:           addressString(c.Executor),
			WrappedNative:      addressString(c.WrappedNative),
			RPCURL:             c.RPCURL,
			ChainableExchanges: exchanges,
			Supported:          c.RouteEndpoint != "" && c.Executor != (common.Address{}) && c.WrappedNative != (common.Address{}),
		})
	}
	return out
}

func addressString(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return a.Hex()
}

func (s *runtimeState) newCacheCommand() *cobra.Command {
	root := &cobra.Command{Use: "cache", Short: "Route cache maintenance"}
	var chainArg string
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete cached routes for one chain or all chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cache == nil {
				return clierr.New(clierr.CodeUsage, "cache is disabled")
			}
			var chainID int64
			if strings.TrimSpace(chainArg) != "" {
				chain, err := id.ParseChain(chainArg)
				if err != nil {
					return err
				}
				chainID = chain.EVMChainID
			}
			removed, err := s.cache.Purge(chainID)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "purge cache", err)
			}
			data := map[string]any{"removed": removed}
			if chainID != 0 {
				data["chain_id"] = id.ChainFromID(chainID).CAIP2
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	purge.Flags().StringVar(&chainArg, "chain", "", "Chain identifier (default: all chains)")
	root.AddCommand(purge)
	return root
}
