package registry

import "sort"

// Contracts are the aggregation router deployments for one chain.
type Contracts struct {
	Router        string
	Executor      string
	WrappedNative string
}

// Legacy aggregation router deployments. Config may override any of them.
var contractsByChainID = map[int64]Contracts{
	1: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0x41684b361557E9282E0373CA51260D9331e518C9",
		WrappedNative: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
	},
	56: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0xd12bcdFB9A39BE79DA3bDF02557EFdcD5CA59e77",
		WrappedNative: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
	},
	137: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0xd12bcdFB9A39BE79DA3bDF02557EFdcD5CA59e77",
		WrappedNative: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270",
	},
	43114: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0xd12bcdFB9A39BE79DA3bDF02557EFdcD5CA59e77",
		WrappedNative: "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7",
	},
	250: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0xd12bcdFB9A39BE79DA3bDF02557EFdcD5CA59e77",
		WrappedNative: "0x21be370D5312f44cB42ce377BC9b8a0cEF1A4C83",
	},
	25: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0xd12bcdFB9A39BE79DA3bDF02557EFdcD5CA59e77",
		WrappedNative: "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23",
	},
	42161: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0xd12bcdFB9A39BE79DA3bDF02557EFdcD5CA59e77",
		WrappedNative: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
	},
	10: {
		Router:        "0x00555513Acf282B42882420E5e5bA87b44D8fA6E",
		Executor:      "0xd12bcdFB9A39BE79DA3bDF02557EFdcD5CA59e77",
		WrappedNative: "0x4200000000000000000000000000000000000006",
	},
}

func RouterContracts(chainID int64) (Contracts, bool) {
	c, ok := contractsByChainID[chainID]
	return c, ok
}

// Exchanges whose pools take an explicit recipient and collect flag
// (Uniswap V2 style callbacks) and can therefore be chained pool to pool.
var chainableExchanges = []string{
	"uniswap",
	"sushiswap",
	"pancake",
	"pancake-legacy",
	"apeswap",
	"biswap",
	"wault",
	"jetswap",
	"polycat",
	"dfyn",
	"quickswap",
	"spookyswap",
	"spiritswap",
	"pangolin",
	"traderjoe",
	"vvs",
	"cronaswap",
	"crodex",
	"mmf",
}

var chainableOverrides = map[int64][]string{
	10: {"velodrome-v1"},
}

// ChainableExchanges returns the default directly-chainable exchange ids for chainID.
func ChainableExchanges(chainID int64) []string {
	out := append([]string(nil), chainableExchanges...)
	out = append(out, chainableOverrides[chainID]...)
	sort.Strings(out)
	return out
}

// ChainDefaults is the built-in configuration for one aggregator chain.
type ChainDefaults struct {
	ChainID            int64
	RouteEndpoint      string
	Contracts          Contracts
	ChainableExchanges []string
	RPCURL             string
}

// DefaultChains returns a fresh copy of every chain with a route endpoint.
func DefaultChains() map[int64]ChainDefaults {
	out := make(map[int64]ChainDefaults, len(aggregatorSlugByChainID))
	for chainID := range aggregatorSlugByChainID {
		endpoint, _ := RouteEndpoint(chainID)
		contracts, _ := RouterContracts(chainID)
		rpcURL, _ := DefaultRPCURL(chainID)
		out[chainID] = ChainDefaults{
			ChainID:            chainID,
			RouteEndpoint:      endpoint,
			Contracts:          contracts,
			ChainableExchanges: ChainableExchanges(chainID),
			RPCURL:             rpcURL,
		}
	}
	return out
}
