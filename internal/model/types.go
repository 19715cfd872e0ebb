package model

import (
	"time"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/route"
)

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string           `json:"request_id"`
	Timestamp time.Time        `json:"timestamp"`
	Command   string           `json:"command"`
	Providers []ProviderStatus `json:"providers,omitempty"`
	Cache     CacheStatus      `json:"cache"`
	Partial   bool             `json:"partial"`
}

type ProviderStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

type ProviderInfo struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	RequiresKey   bool     `json:"requires_key"`
	Capabilities  []string `json:"capabilities"`
	KeyEnvVarName string   `json:"key_env_var,omitempty"`
}

// TokenAmount is a raw base-unit amount with its decimal rendering.
type TokenAmount struct {
	Token         string `json:"token"`
	Symbol        string `json:"symbol,omitempty"`
	Decimals      int    `json:"decimals"`
	AmountBase    string `json:"amount_base_units"`
	AmountDecimal string `json:"amount_decimal"`
}

// RouteSummary is the output of `swap route`.
type RouteSummary struct {
	Provider     string            `json:"provider"`
	ChainID      string            `json:"chain_id"`
	Input        TokenAmount       `json:"input"`
	Output       TokenAmount       `json:"output"`
	TotalGas     int64             `json:"total_gas"`
	GasPriceGwei string            `json:"gas_price_gwei,omitempty"`
	GasUSD       float64           `json:"gas_usd"`
	AmountInUSD  float64           `json:"amount_in_usd"`
	AmountOutUSD float64           `json:"amount_out_usd"`
	Sequences    int               `json:"sequences"`
	Hops         int               `json:"hops"`
	Route        [][]route.WireHop `json:"route"`
	FetchedAt    string            `json:"fetched_at"`
}

// SwapCall is the output of `swap build`: everything a sender needs to call
// the router.
type SwapCall struct {
	ChainID      string            `json:"chain_id"`
	Router       string            `json:"router"`
	Executor     string            `json:"executor"`
	Mode         string            `json:"mode"`
	SimpleMode   bool              `json:"simple_mode"`
	Input        TokenAmount       `json:"input"`
	Output       TokenAmount       `json:"output"`
	AmountOutMin string            `json:"amount_out_min"`
	Deadline     string            `json:"deadline"`
	Recipient    string            `json:"recipient"`
	Call         any               `json:"call"`
	ExecutorData any               `json:"executor_data"`
	LinkedRoute  route.LinkedRoute `json:"linked_route"`
	Route        [][]route.WireHop `json:"route"`
	Overridden   bool              `json:"route_overridden"`
}

// ChainInfo is one row of `chains list`.
type ChainInfo struct {
	ChainID            string   `json:"chain_id"`
	Name               string   `json:"name"`
	RouteEndpoint      string   `json:"route_endpoint"`
	Router             string   `json:"router"`
	Executor           string   `json:"executor"`
	WrappedNative      string   `json:"wrapped_native"`
	RPCURL             string   `json:"rpc_url,omitempty"`
	ChainableExchanges []string `json:"chainable_exchanges"`
	Supported          bool     `json:"supported"`
}
