package fee

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

const bpsDenominator = 10000

// Side is the trade leg a fee is charged on.
type Side int

const (
	InputSide Side = iota + 1
	OutputSide
)

func (s Side) String() string {
	switch s {
	case InputSide:
		return "currency_in"
	case OutputSide:
		return "currency_out"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "in", "input", "currency_in":
		return InputSide, nil
	case "out", "output", "currency_out":
		return OutputSide, nil
	default:
		return 0, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid fee config: unknown fee side %q (use in|out)", v))
	}
}

// Config is a protocol fee. Amount is in basis points when Proportional,
// otherwise a flat amount in base units of the charged currency.
type Config struct {
	ChargeBy     Side           `json:"chargeFeeBy"`
	Receiver     common.Address `json:"feeReceiver"`
	Proportional bool           `json:"isInBps"`
	Amount       *big.Int       `json:"feeAmount"`
}

func (c Config) Validate() error {
	if c.ChargeBy != InputSide && c.ChargeBy != OutputSide {
		return clierr.New(clierr.CodeUsage, "invalid fee config: fee side is required")
	}
	if c.Receiver == (common.Address{}) {
		return clierr.New(clierr.CodeInvalidAddress, "invalid fee config: fee receiver is required")
	}
	if c.Amount == nil || c.Amount.Sign() < 0 {
		return clierr.New(clierr.CodeUsage, "invalid fee config: fee amount must be non-negative")
	}
	if c.Proportional && c.Amount.Cmp(big.NewInt(bpsDenominator)) > 0 {
		return clierr.New(clierr.CodeUsage, "invalid fee config: proportional fee exceeds 10000 bps")
	}
	return nil
}

// Option is a fee that may be absent.
type Option struct {
	cfg     Config
	present bool
}

func None() Option { return Option{} }

func Some(cfg Config) Option { return Option{cfg: cfg, present: true} }

func (o Option) Get() (Config, bool) { return o.cfg, o.present }

func (o Option) OnInput() bool { return o.present && o.cfg.ChargeBy == InputSide }

func (o Option) OnOutput() bool { return o.present && o.cfg.ChargeBy == OutputSide }
