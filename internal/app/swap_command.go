package app

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/cache"
	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/fee"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/gasprice"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/id"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/model"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/registry"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/route"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/swapcall"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/trade"
)

const routeCacheTTL = 15 * time.Second

// defaultTTL applies when neither --deadline nor --ttl is given.
const defaultTTL = 20 * 60

// swapArgs are the flags shared by `swap route` and `swap build`.
type swapArgs struct {
	chain         string
	tokenIn       string
	tokenOut      string
	decimalsIn    int
	decimalsOut   int
	amountBase    string
	amountDecimal string
	recipient     string
	slippageBps   int64
	deadline      uint64
	ttl           int64
	saveGas       bool
	dexes         string
	gasPrice      string
	rpcURL        string
}

func (a *swapArgs) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.chain, "chain", "", "Chain identifier (id, slug or CAIP-2)")
	cmd.Flags().StringVar(&a.tokenIn, "token-in", "", "Input token (address, registry symbol or native)")
	cmd.Flags().StringVar(&a.tokenOut, "token-out", "", "Output token (address, registry symbol or native)")
	cmd.Flags().IntVar(&a.decimalsIn, "decimals-in", -1, "Input token decimals (default: from registry)")
	cmd.Flags().IntVar(&a.decimalsOut, "decimals-out", -1, "Output token decimals (default: from registry)")
	cmd.Flags().StringVar(&a.amountBase, "amount", "", "Amount in base units")
	cmd.Flags().StringVar(&a.amountDecimal, "amount-decimal", "", "Amount in decimal units")
	cmd.Flags().BoolVar(&a.saveGas, "save-gas", false, "Prefer routes with lower gas over better output")
	cmd.Flags().StringVar(&a.dexes, "dexes", "", "Restrict discovery to these exchange ids (comma-separated)")
	cmd.Flags().StringVar(&a.gasPrice, "gas-price", "", "Gas price for route scoring: wei, <n>gwei or auto")
	cmd.Flags().StringVar(&a.rpcURL, "rpc-url", "", "RPC endpoint for --gas-price auto (default: chain config)")
	_ = cmd.MarkFlagRequired("chain")
	_ = cmd.MarkFlagRequired("token-in")
	_ = cmd.MarkFlagRequired("token-out")
	cmd.MarkFlagsMutuallyExclusive("amount", "amount-decimal")
	cmd.MarkFlagsOneRequired("amount", "amount-decimal")
}

func (a *swapArgs) bindTrade(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.recipient, "recipient", "", "Address receiving the output token")
	cmd.Flags().Int64Var(&a.slippageBps, "slippage-bps", 50, "Slippage tolerance in basis points")
	cmd.Flags().Uint64Var(&a.deadline, "deadline", 0, "Absolute deadline (unix seconds)")
	cmd.Flags().Int64Var(&a.ttl, "ttl", defaultTTL, "Deadline relative to build time (seconds)")
	_ = cmd.MarkFlagRequired("recipient")
	cmd.MarkFlagsMutuallyExclusive("deadline", "ttl")
}

// resolvedSwap is a parsed command line ready for the builder.
type resolvedSwap struct {
	chain    id.Chain
	config   swapcall.ChainConfig
	in       id.Asset
	out      id.Asset
	request  swapcall.Request
	amount   *big.Int
	gasPrice *big.Int
}

func (s *runtimeState) resolveSwap(ctx context.Context, cmd *cobra.Command, a *swapArgs) (resolvedSwap, error) {
	chain, err := id.ParseChain(a.chain)
	if err != nil {
		return resolvedSwap{}, err
	}
	in, err := resolveToken(a.tokenIn, a.decimalsIn, chain, "--decimals-in")
	if err != nil {
		return resolvedSwap{}, err
	}
	out, err := resolveToken(a.tokenOut, a.decimalsOut, chain, "--decimals-out")
	if err != nil {
		return resolvedSwap{}, err
	}
	base, decimalAmount, err := id.NormalizeAmount(a.amountBase, a.amountDecimal, in.Decimals)
	if err != nil {
		return resolvedSwap{}, err
	}
	amount, _ := new(big.Int).SetString(base, 10)

	var deadline trade.Deadline = trade.TTL(a.ttl)
	if cmd.Flags().Changed("deadline") {
		deadline = trade.AtEpoch(a.deadline)
	}
	recipient := a.recipient
	if recipient == "" {
		// route requests have no recipient
		recipient = id.NativeAddress
	}

	cfg := s.chains[chain.EVMChainID]
	gasPrice, err := s.resolveGasPrice(ctx, a, chain, cfg)
	if err != nil {
		return resolvedSwap{}, err
	}

	return resolvedSwap{
		chain:  chain,
		config: cfg,
		in:     in,
		out:    out,
		request: swapcall.Request{
			ChainID:  chain.EVMChainID,
			TokenIn:  trade.TokenInput{Address: in.Address, Decimals: in.Decimals},
			TokenOut: trade.TokenInput{Address: out.Address, Decimals: out.Decimals},
			AmountIn: decimalAmount,
			TradeConfig: trade.Config{
				SlippageBps: a.slippageBps,
				Recipient:   recipient,
				Deadline:    deadline,
				SaveGas:     a.saveGas,
			},
			Fee:           fee.None(),
			RouteOverride: route.NoOverride(),
			Dexes:         splitCSV(a.dexes),
			GasPrice:      gasPrice,
		},
		amount:   amount,
		gasPrice: gasPrice,
	}, nil
}

func (s *runtimeState) resolveGasPrice(ctx context.Context, a *swapArgs, chain id.Chain, cfg swapcall.ChainConfig) (*big.Int, error) {
	rpcURL := ""
	if strings.EqualFold(strings.TrimSpace(a.gasPrice), gasprice.Auto) {
		override := a.rpcURL
		if override == "" {
			override = cfg.RPCURL
		}
		resolved, err := registry.ResolveRPCURL(override, chain.EVMChainID)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, "resolve rpc url", err)
		}
		rpcURL = resolved
	}
	price, err := gasprice.Resolve(ctx, a.gasPrice, rpcURL)
	if err != nil {
		return nil, err
	}
	if price != nil {
		s.log.Debug().Str("gas_price_wei", price.String()).Msg("resolved gas price")
	}
	return price, nil
}

// resolveToken looks up input in the registry. Unknown tokens need explicit
// decimals.
func resolveToken(input string, decimals int, chain id.Chain, flag string) (id.Asset, error) {
	asset, err := id.ParseAsset(input, chain)
	if err != nil {
		return id.Asset{}, err
	}
	switch {
	case decimals >= 0:
		asset.Decimals = decimals
	case asset.Native:
	case asset.Symbol == "":
		return id.Asset{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("decimals unknown for token %s; pass %s", input, flag))
	}
	return asset, nil
}

func (s *runtimeState) newSwapCommand() *cobra.Command {
	root := &cobra.Command{Use: "swap", Short: "Route discovery and router call building"}
	root.AddCommand(s.newSwapRouteCommand())
	root.AddCommand(s.newSwapBuildCommand())
	return root
}

func (s *runtimeState) newSwapRouteCommand() *cobra.Command {
	args := swapArgs{ttl: defaultTTL}
	cmd := &cobra.Command{
		Use:     "route",
		Short:   "Discover the best route for a trade",
		Example: "  swapcall swap route --chain bsc --token-in USDT --token-out native --amount-decimal 100",
		RunE: func(cmd *cobra.Command, _ []string) error {
			commandPath := trimRootPath(cmd.CommandPath())
			ctx, cancel := context.WithTimeout(cmd.Context(), s.settings.Timeout)
			defer cancel()
			rs, err := s.resolveSwap(ctx, cmd, &args)
			if err != nil {
				return err
			}
			key := cache.RouteKey{
				ChainID:  rs.chain.EVMChainID,
				TokenIn:  common.HexToAddress(rs.in.Address),
				TokenOut: common.HexToAddress(rs.out.Address),
				AmountIn: rs.amount,
				SaveGas:  args.saveGas,
				Dexes:    rs.request.Dexes,
				GasPrice: rs.gasPrice,
			}
			return s.runCachedCommand(commandPath, key, routeCacheTTL, func(ctx context.Context) (any, []model.ProviderStatus, []string, bool, error) {
				start := time.Now()
				disc, err := s.builder.Discover(ctx, rs.request)
				status := []model.ProviderStatus{{Name: s.provider.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
				if err != nil {
					return nil, status, nil, false, err
				}
				if disc == nil {
					return nil, status, []string{noRouteWarning(rs)}, false, nil
				}
				return routeSummary(rs, disc, s.runner.now()), status, nil, false, nil
			})
		},
	}
	args.bind(cmd)
	return cmd
}

func (s *runtimeState) newSwapBuildCommand() *cobra.Command {
	var args swapArgs
	var feeSide, feeReceiver, feeAmount, feeBps, routeFile string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the router swap call (method, arguments, value, calldata)",
		Example: `  swapcall swap build --chain bsc --token-in native --token-out USDT --amount-decimal 0.5 \
    --recipient 0xYourAddress --slippage-bps 50 --ttl 1200`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			commandPath := trimRootPath(cmd.CommandPath())
			s.resetCommandDiagnostics()
			ctx, cancel := context.WithTimeout(cmd.Context(), s.settings.Timeout)
			defer cancel()
			rs, err := s.resolveSwap(ctx, cmd, &args)
			if err != nil {
				return err
			}
			feeOpt, err := parseFee(feeSide, feeReceiver, feeAmount, feeBps)
			if err != nil {
				return err
			}
			rs.request.Fee = feeOpt
			if routeFile != "" {
				raw, err := os.ReadFile(routeFile)
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "read --route-file", err)
				}
				rs.request.RouteOverride = route.OverrideWith(raw)
			}

			start := time.Now()
			res, err := s.builder.ComputeSwapCall(ctx, rs.request)
			status := []model.ProviderStatus{{Name: s.provider.Info().Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
			s.captureCommandDiagnostics(nil, status, false)
			if err != nil {
				return err
			}
			if res == nil {
				warnings := []string{noRouteWarning(rs)}
				s.captureCommandDiagnostics(warnings, status, false)
				return s.emitSuccess(commandPath, nil, warnings, cacheMetaBypass(), status, false)
			}
			return s.emitSuccess(commandPath, swapCallOutput(rs, res), nil, cacheMetaBypass(), status, false)
		},
	}
	args.bind(cmd)
	args.bindTrade(cmd)
	cmd.Flags().StringVar(&feeSide, "fee-side", "", "Charge a protocol fee on the input or output leg: in|out")
	cmd.Flags().StringVar(&feeReceiver, "fee-receiver", "", "Fee receiver address")
	cmd.Flags().StringVar(&feeAmount, "fee-amount", "", "Flat fee in base units of the charged token")
	cmd.Flags().StringVar(&feeBps, "fee-bps", "", "Proportional fee in basis points")
	cmd.Flags().StringVar(&routeFile, "route-file", "", "JSON file with [][]hop used instead of the discovered swaps")
	cmd.MarkFlagsMutuallyExclusive("fee-amount", "fee-bps")
	cmd.MarkFlagsRequiredTogether("fee-side", "fee-receiver")
	return cmd
}

// parseFee builds the fee option from flags. No flags means no fee.
func parseFee(side, receiver, flat, bps string) (fee.Option, error) {
	side, receiver, flat, bps = strings.TrimSpace(side), strings.TrimSpace(receiver), strings.TrimSpace(flat), strings.TrimSpace(bps)
	if side == "" && receiver == "" && flat == "" && bps == "" {
		return fee.None(), nil
	}
	if side == "" {
		return fee.Option{}, clierr.New(clierr.CodeUsage, "invalid fee config: --fee-side is required with fee flags")
	}
	chargeBy, err := fee.ParseSide(side)
	if err != nil {
		return fee.Option{}, err
	}
	addr, err := trade.ValidateAddress(receiver)
	if err != nil {
		return fee.Option{}, clierr.Wrap(clierr.CodeInvalidAddress, "invalid fee config: fee receiver", err)
	}
	raw, proportional := flat, false
	if bps != "" {
		raw, proportional = bps, true
	}
	if raw == "" {
		return fee.Option{}, clierr.New(clierr.CodeUsage, "invalid fee config: one of --fee-amount or --fee-bps is required")
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fee.Option{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid fee config: fee amount %q must be an integer", raw))
	}
	cfg := fee.Config{ChargeBy: chargeBy, Receiver: addr, Proportional: proportional, Amount: amount}
	if err := cfg.Validate(); err != nil {
		return fee.Option{}, err
	}
	return fee.Some(cfg), nil
}

func noRouteWarning(rs resolvedSwap) string {
	return fmt.Sprintf("no route available on %s for %s -> %s", rs.chain.CAIP2, tokenLabel(rs.in), tokenLabel(rs.out))
}

func tokenLabel(a id.Asset) string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.Address
}

func tokenAmount(a id.Asset, amount *big.Int) model.TokenAmount {
	return model.TokenAmount{
		Token:         common.HexToAddress(a.Address).Hex(),
		Symbol:        a.Symbol,
		Decimals:      a.Decimals,
		AmountBase:    amount.String(),
		AmountDecimal: id.FormatDecimal(amount, a.Decimals),
	}
}

func routeSummary(rs resolvedSwap, disc *swapcall.Discovery, now time.Time) model.RouteSummary {
	q := disc.Quote
	hops := 0
	for _, seq := range q.Swaps {
		hops += len(seq)
	}
	return model.RouteSummary{
		Provider:     "kyberswap",
		ChainID:      rs.chain.CAIP2,
		Input:        tokenAmount(rs.in, q.InputAmount),
		Output:       tokenAmount(rs.out, q.OutputAmount),
		TotalGas:     q.TotalGas,
		GasPriceGwei: q.GasPriceGwei,
		GasUSD:       q.GasUSD,
		AmountInUSD:  q.AmountInUSD,
		AmountOutUSD: q.AmountOutUSD,
		Sequences:    len(q.Swaps),
		Hops:         hops,
		Route:        q.Swaps,
		FetchedAt:    now.UTC().Format(time.RFC3339),
	}
}

func swapCallOutput(rs resolvedSwap, res *swapcall.Result) model.SwapCall {
	return model.SwapCall{
		ChainID:      rs.chain.CAIP2,
		Router:       addressString(res.Chain.Router),
		Executor:     res.Call.Executor.Hex(),
		Mode:         res.Route.Mode.String(),
		SimpleMode:   res.SimpleMode,
		Input:        tokenAmount(rs.in, res.Intent.AmountIn),
		Output:       tokenAmount(rs.out, res.OutputAmount),
		AmountOutMin: res.Intent.AmountOutMin.String(),
		Deadline:     res.Intent.Deadline.String(),
		Recipient:    res.Intent.Recipient.Hex(),
		Call:         res.Call,
		ExecutorData: res.ExecutorData,
		LinkedRoute:  res.Route,
		Route:        res.TradeRoute,
		Overridden:   rs.request.RouteOverride.Present(),
	}
}
