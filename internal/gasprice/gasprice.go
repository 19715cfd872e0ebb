package gasprice

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

const Auto = "auto"

// Suggest asks the node at rpcURL for its current gas price.
func Suggest(ctx context.Context, rpcURL string) (*big.Int, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return nil, clierr.New(clierr.CodeUsage, "gas price auto requires an rpc url")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "connect rpc", err)
	}
	defer client.Close()

	price, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "suggest gas price", err)
	}
	return price, nil
}

// Resolve turns a --gas-price value into wei. Empty means unset, "auto" asks
// the node, a "gwei" suffix scales by 1e9, and anything else is wei.
func Resolve(ctx context.Context, v, rpcURL string) (*big.Int, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return nil, nil
	case v == Auto:
		return Suggest(ctx, rpcURL)
	case strings.HasSuffix(v, "gwei"):
		d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(v, "gwei")))
		if err != nil || d.IsNegative() {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid gas price %q", v))
		}
		wei := d.Shift(9)
		if !wei.Equal(wei.Truncate(0)) {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("gas price %q is finer than 1 wei", v))
		}
		return wei.BigInt(), nil
	default:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok || n.Sign() < 0 {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid gas price %q (use wei, <n>gwei or auto)", v))
		}
		return n, nil
	}
}
