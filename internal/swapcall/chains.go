package swapcall

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/registry"
)

// ChainConfig is everything the builder needs to know about one chain.
type ChainConfig struct {
	ChainID            int64
	RouteEndpoint      string
	Router             common.Address
	Executor           common.Address
	WrappedNative      common.Address
	ChainableExchanges []string
	RPCURL             string
}

// DefaultChains converts the built-in registry into builder chain configs.
func DefaultChains() map[int64]ChainConfig {
	defaults := registry.DefaultChains()
	out := make(map[int64]ChainConfig, len(defaults))
	for chainID, d := range defaults {
		out[chainID] = ChainConfig{
			ChainID:            chainID,
			RouteEndpoint:      d.RouteEndpoint,
			Router:             addressOrZero(d.Contracts.Router),
			Executor:           addressOrZero(d.Contracts.Executor),
			WrappedNative:      addressOrZero(d.Contracts.WrappedNative),
			ChainableExchanges: append([]string(nil), d.ChainableExchanges...),
			RPCURL:             d.RPCURL,
		}
	}
	return out
}

func addressOrZero(v string) common.Address {
	if !common.IsHexAddress(v) {
		return common.Address{}
	}
	return common.HexToAddress(v)
}
