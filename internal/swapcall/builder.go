package swapcall

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/assemble"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/encoding"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/fee"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/providers"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/route"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/trade"
)

// RouteFinder discovers routes. A nil quote means no route.
type RouteFinder interface {
	FindBestRoute(ctx context.Context, req providers.RouteRequest) (*providers.RouteQuote, error)
}

type Request struct {
	ChainID       int64
	TokenIn       trade.TokenInput
	TokenOut      trade.TokenInput
	AmountIn      string
	TradeConfig   trade.Config
	Fee           fee.Option
	RouteOverride route.Override
	Dexes         []string
	GasPrice      *big.Int
}

// Result is a fully assembled router call.
type Result struct {
	Call         assemble.CallArguments
	OutputAmount *big.Int
	SimpleMode   bool
	ExecutorData assemble.ExecutorView
	Route        route.LinkedRoute
	TradeRoute   [][]route.WireHop
	Quote        *providers.RouteQuote
	Intent       trade.Intent
	Chain        ChainConfig
}

// Discovery is a normalized request with the route found for it.
type Discovery struct {
	Request trade.Request
	Chain   ChainConfig
	Quote   *providers.RouteQuote
}

type Builder struct {
	chains    map[int64]ChainConfig
	finder    RouteFinder
	encoder   *encoding.Encoder
	assembler *assemble.Assembler
	log       zerolog.Logger
	now       func() time.Time
}

func New(chains map[int64]ChainConfig, finder RouteFinder, logger zerolog.Logger) (*Builder, error) {
	enc, err := encoding.New()
	if err != nil {
		return nil, err
	}
	asm, err := assemble.New(enc)
	if err != nil {
		return nil, err
	}
	copied := make(map[int64]ChainConfig, len(chains))
	for k, v := range chains {
		copied[k] = v
	}
	return &Builder{
		chains:    copied,
		finder:    finder,
		encoder:   enc,
		assembler: asm,
		log:       logger,
		now:       time.Now,
	}, nil
}

func (b *Builder) Chain(chainID int64) (ChainConfig, bool) {
	c, ok := b.chains[chainID]
	return c, ok
}

// Discover normalizes req and asks the route finder for a route. A nil
// Discovery with a nil error means no route.
func (b *Builder) Discover(ctx context.Context, req Request) (*Discovery, error) {
	normalized, err := trade.Normalize(req.ChainID, req.TokenIn, req.TokenOut, req.AmountIn, req.TradeConfig)
	if err != nil {
		return nil, err
	}
	if cfg, ok := req.Fee.Get(); ok {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	chain, ok := b.chains[req.ChainID]
	if !ok || chain.RouteEndpoint == "" {
		b.log.Debug().Int64("chain_id", req.ChainID).Msg("no route endpoint configured for chain")
		return nil, nil
	}
	tokenIn := discoveryToken(normalized.TokenIn, chain)
	tokenOut := discoveryToken(normalized.TokenOut, chain)
	if tokenIn == (common.Address{}) || tokenOut == (common.Address{}) {
		b.log.Debug().Int64("chain_id", req.ChainID).Msg("no wrapped native token configured for chain")
		return nil, nil
	}
	quote, err := b.finder.FindBestRoute(ctx, providers.RouteRequest{
		Endpoint: chain.RouteEndpoint,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: normalized.AmountIn,
		SaveGas:  normalized.SaveGas,
		Dexes:    req.Dexes,
		GasPrice: req.GasPrice,
	})
	if err != nil {
		return nil, err
	}
	if quote == nil {
		b.log.Debug().Int64("chain_id", req.ChainID).Msg("no route available")
		return nil, nil
	}
	return &Discovery{Request: normalized, Chain: chain, Quote: quote}, nil
}

// ComputeSwapCall builds the router call for req. It returns (nil, nil) when
// there is nothing to build: no route, no executor, or an empty route.
func (b *Builder) ComputeSwapCall(ctx context.Context, req Request) (*Result, error) {
	disc, err := b.Discover(ctx, req)
	if err != nil || disc == nil {
		return nil, err
	}
	chain := disc.Chain

	classifier := route.NewClassifier(chain.ChainableExchanges)
	r, overridden, err := req.RouteOverride.Build(classifier)
	if err != nil {
		return nil, err
	}
	if !overridden {
		if r, err = route.FromWire(disc.Quote.Swaps, classifier); err != nil {
			return nil, err
		}
	}
	if r.Empty() {
		b.log.Debug().Bool("override", overridden).Msg("route has no sequences; nothing to encode")
		return nil, nil
	}
	if chain.Executor == (common.Address{}) {
		b.log.Debug().Int64("chain_id", chain.ChainID).Msg("no executor configured for chain")
		return nil, nil
	}

	intent, err := trade.NewIntent(disc.Request, disc.Quote.OutputAmount, b.now())
	if err != nil {
		return nil, err
	}
	mode := route.SelectMode(intent.NativeIn, r)
	b.log.Debug().
		Stringer("mode", mode).
		Int("sequences", len(r.Sequences)).
		Int("hops", r.HopCount()).
		Bool("override", overridden).
		Msg("selected encoding mode")

	linked := route.Link(r, route.LinkParams{
		Mode:        mode,
		Executor:    chain.Executor,
		Recipient:   intent.Recipient,
		NativeIn:    intent.NativeIn,
		NativeOut:   intent.NativeOut,
		FeeOnOutput: req.Fee.OnOutput(),
	})
	accrual, err := fee.Accrue(req.Fee, intent.AmountInMax, intent.NativeIn, b.encoder)
	if err != nil {
		return nil, err
	}
	out, err := b.assembler.Assemble(assemble.Input{
		Intent:   intent,
		Route:    r,
		Linked:   linked,
		Accrual:  accrual,
		Executor: chain.Executor,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Call:         out.Call,
		OutputAmount: new(big.Int).Set(disc.Quote.OutputAmount),
		SimpleMode:   mode == route.SimpleMode,
		ExecutorData: out.Executor,
		Route:        linked,
		TradeRoute:   swaps,
		Quote:        disc.Quote,
		Intent:       intent,
		Chain:        chain,
	}, nil
}

func discoveryToken(t trade.Token, chain ChainConfig) common.Address {
	if t.IsNative() {
		return chain.WrappedNative
	}
	return t.Address
}
