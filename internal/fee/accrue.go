package fee

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

// ConfigEncoder produces the executor's output-side fee blob.
type ConfigEncoder interface {
	EncodeFeeConfig(receiver common.Address, proportional bool, amount *big.Int) ([]byte, error)
}

// Accrual is the effect of a fee on one swap call.
type Accrual struct {
	// InputFee is nil unless the fee is charged on the input side.
	InputFee         *big.Int
	Receiver         common.Address
	DestTokenFeeData []byte
	// Value is the native currency sent with the call.
	Value *big.Int
}

// Accrue applies opt to a trade pulling amountInMax from the caller. An input
// fee is paid on top of the swap amount, never deducted from it.
func Accrue(opt Option, amountInMax *big.Int, nativeIn bool, enc ConfigEncoder) (Accrual, error) {
	out := Accrual{DestTokenFeeData: []byte{}, Value: new(big.Int)}
	cfg, ok := opt.Get()
	if ok {
		if err := cfg.Validate(); err != nil {
			return Accrual{}, err
		}
		switch cfg.ChargeBy {
		case InputSide:
			out.InputFee = InputFeeAmount(cfg, amountInMax)
			out.Receiver = cfg.Receiver
		case OutputSide:
			data, err := enc.EncodeFeeConfig(cfg.Receiver, cfg.Proportional, cfg.Amount)
			if err != nil {
				return Accrual{}, clierr.Wrap(clierr.CodeInternal, "encode fee config", err)
			}
			out.DestTokenFeeData = data
		}
	}
	if nativeIn {
		out.Value.Set(amountInMax)
		if out.InputFee != nil {
			out.Value.Add(out.Value, out.InputFee)
		}
	}
	return out, nil
}

// InputFeeAmount is amountInMax*bps/10000 (truncating) for proportional fees
// and the flat amount otherwise.
func InputFeeAmount(cfg Config, amountInMax *big.Int) *big.Int {
	if !cfg.Proportional {
		return new(big.Int).Set(cfg.Amount)
	}
	v := new(big.Int).Mul(amountInMax, cfg.Amount)
	return v.Quo(v, big.NewInt(bpsDenominator))
}
