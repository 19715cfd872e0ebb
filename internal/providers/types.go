package providers

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/model"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/route"
)

type Provider interface {
	Info() model.ProviderInfo
}

// RouteProvider finds the best route for an exact-input trade. A nil quote
// with a nil error means no route exists.
type RouteProvider interface {
	Provider
	FindBestRoute(ctx context.Context, req RouteRequest) (*RouteQuote, error)
}

type RouteRequest struct {
	Endpoint string
	TokenIn  common.Address
	TokenOut common.Address
	AmountIn *big.Int
	SaveGas  bool
	Dexes    []string
	// GasPrice in wei; nil lets the aggregator pick.
	GasPrice *big.Int
}

type TokenInfo struct {
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals int     `json:"decimals"`
	Price    float64 `json:"price"`
}

// RouteQuote is a discovered route with its quoted amounts.
type RouteQuote struct {
	InputAmount  *big.Int             `json:"-"`
	OutputAmount *big.Int             `json:"-"`
	TotalGas     int64                `json:"totalGas"`
	GasPriceGwei string               `json:"gasPriceGwei"`
	GasUSD       float64              `json:"gasUsd"`
	AmountInUSD  float64              `json:"amountInUsd"`
	AmountOutUSD float64              `json:"amountOutUsd"`
	ReceivedUSD  float64              `json:"receivedUsd"`
	Swaps        [][]route.WireHop    `json:"swaps"`
	Tokens       map[string]TokenInfo `json:"tokens,omitempty"`
}
