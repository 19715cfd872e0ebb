package kyberswap

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/httpx"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/model"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/providers"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/registry"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/route"
)

// Aggregator error codes that mean the pair has no usable route.
const (
	codeRouteNotFound   = 4008
	codeNoEligiblePools = 4010
)

type Client struct {
	http *httpx.Client
	log  zerolog.Logger
}

func New(httpClient *httpx.Client, logger zerolog.Logger) *Client {
	return &Client{http: httpClient, log: logger}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "kyberswap",
		Type:        "route",
		RequiresKey: false,
		Capabilities: []string{
			"swap.route",
		},
		KeyEnvVarName: "SWAPCALL_KYBERSWAP_CLIENT_ID",
	}
}

type routeResponse struct {
	InputAmount  string                         `json:"inputAmount"`
	OutputAmount string                         `json:"outputAmount"`
	TotalGas     int64                          `json:"totalGas"`
	GasPriceGwei json.Number                    `json:"gasPriceGwei"`
	GasUSD       float64                        `json:"gasUsd"`
	AmountInUSD  float64                        `json:"amountInUsd"`
	AmountOutUSD float64                        `json:"amountOutUsd"`
	ReceivedUSD  float64                        `json:"receivedUsd"`
	Swaps        [][]route.WireHop              `json:"swaps"`
	Tokens       map[string]providers.TokenInfo `json:"tokens"`
}

// FindBestRoute queries the aggregator route endpoint. An empty route or a
// zero output is reported as no route.
func (c *Client) FindBestRoute(ctx context.Context, req providers.RouteRequest) (*providers.RouteQuote, error) {
	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return nil, nil
	}
	if !registry.IsAllowedRouteEndpoint(endpoint) {
		return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("route endpoint %q must use https", endpoint))
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, clierr.New(clierr.CodeUsage, "route amount must be greater than zero")
	}

	vals := url.Values{}
	vals.Set("tokenIn", strings.ToLower(req.TokenIn.Hex()))
	vals.Set("tokenOut", strings.ToLower(req.TokenOut.Hex()))
	vals.Set("amountIn", req.AmountIn.String())
	vals.Set("saveGas", boolParam(req.SaveGas))
	vals.Set("gasInclude", "1")
	if dexes := joinDexes(req.Dexes); dexes != "" {
		vals.Set("dexes", dexes)
	}
	if req.GasPrice != nil && req.GasPrice.Sign() > 0 {
		vals.Set("gasPrice", req.GasPrice.String())
	}

	var resp routeResponse
	if err := c.http.GetJSON(ctx, endpoint, vals, &resp); err != nil {
		if apiErr, ok := httpx.AsAPIError(err); ok && (apiErr.Code == codeRouteNotFound || apiErr.Code == codeNoEligiblePools) {
			c.log.Debug().Str("endpoint", endpoint).Int("code", apiErr.Code).Str("message", apiErr.Message).Msg("aggregator reported no route")
			return nil, nil
		}
		return nil, err
	}

	out, ok := new(big.Int).SetString(strings.TrimSpace(resp.OutputAmount), 10)
	if len(resp.Swaps) == 0 || !ok || out.Sign() == 0 {
		c.log.Debug().Str("endpoint", endpoint).Int("sequences", len(resp.Swaps)).Msg("aggregator returned no route")
		return nil, nil
	}
	in, ok := new(big.Int).SetString(strings.TrimSpace(resp.InputAmount), 10)
	if !ok {
		in = new(big.Int).Set(req.AmountIn)
	}
	c.log.Debug().
		Str("endpoint", endpoint).
		Int("sequences", len(resp.Swaps)).
		Str("output", out.String()).
		Int64("gas", resp.TotalGas).
		Msg("route found")
	return &providers.RouteQuote{
		InputAmount:  in,
		OutputAmount: out,
		TotalGas:     resp.TotalGas,
		GasPriceGwei: resp.GasPriceGwei.String(),
		GasUSD:       resp.GasUSD,
		AmountInUSD:  resp.AmountInUSD,
		AmountOutUSD: resp.AmountOutUSD,
		ReceivedUSD:  resp.ReceivedUSD,
		Swaps:        resp.Swaps,
		Tokens:       resp.Tokens,
	}, nil
}

func boolParam(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func joinDexes(dexes []string) string {
	out := make([]string, 0, len(dexes))
	for _, d := range dexes {
		d = strings.TrimSpace(d)
		if d != "" {
			out = append(out, d)
		}
	}
	return strings.Join(out, ",")
}
