package trade

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

// Intent is a trade with slippage bounds applied and the deadline fixed.
type Intent struct {
	CurrencyIn     Token
	CurrencyOut    Token
	AmountIn       *big.Int
	AmountInMax    *big.Int
	AmountOutQuote *big.Int
	AmountOutMin   *big.Int
	Recipient      common.Address
	Deadline       *big.Int
	NativeIn       bool
	NativeOut      bool
}

// NewIntent completes req with a quoted output amount. Trades are exact-input,
// so the maximum input is the input itself.
func NewIntent(req Request, amountOutQuote *big.Int, now time.Time) (Intent, error) {
	if req.NativeIn() && req.NativeOut() {
		return Intent{}, clierr.New(clierr.CodeInvalidTradeShape, "native to native swaps are not supported")
	}
	if amountOutQuote == nil || amountOutQuote.Sign() < 0 {
		return Intent{}, clierr.New(clierr.CodeUnavailable, "route quote is missing an output amount")
	}
	deadline, err := ResolveDeadline(req.Deadline, now)
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		CurrencyIn:     req.TokenIn,
		CurrencyOut:    req.TokenOut,
		AmountIn:       new(big.Int).Set(req.AmountIn),
		AmountInMax:    MaximumAmountIn(req.AmountIn),
		AmountOutQuote: new(big.Int).Set(amountOutQuote),
		AmountOutMin:   MinimumAmountOut(amountOutQuote, req.SlippageBps),
		Recipient:      req.Recipient,
		Deadline:       deadline,
		NativeIn:       req.NativeIn(),
		NativeOut:      req.NativeOut(),
	}, nil
}

// MinimumAmountOut is floor(out * 10000 / (10000 + bps)).
func MinimumAmountOut(out *big.Int, slippageBps int64) *big.Int {
	num := new(big.Int).Mul(out, big.NewInt(BpsDenominator))
	return num.Quo(num, big.NewInt(BpsDenominator+slippageBps))
}

func MaximumAmountIn(in *big.Int) *big.Int {
	return new(big.Int).Set(in)
}
