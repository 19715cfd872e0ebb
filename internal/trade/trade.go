package trade

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/id"
)

// BpsDenominator is the basis-point scale used for slippage and proportional fees.
const BpsDenominator = 10000

var nativeAddress = common.HexToAddress(id.NativeAddress)

// Token describes one side of a trade. The native sentinel address denotes the
// chain's native currency.
type Token struct {
	Address  common.Address
	Decimals int
}

func (t Token) IsNative() bool { return t.Address == nativeAddress }

// TokenInput is an unvalidated token descriptor.
type TokenInput struct {
	Address  string
	Decimals int
}

// Deadline is either an absolute epoch or a time-to-live relative to build time.
type Deadline interface {
	isDeadline()
}

// AtEpoch is an absolute deadline in unix seconds.
type AtEpoch uint64

// TTL is a deadline relative to the moment the call is built, in seconds.
type TTL int64

func (AtEpoch) isDeadline() {}
func (TTL) isDeadline()     {}

type Config struct {
	SlippageBps int64
	Recipient   string
	Deadline    Deadline
	SaveGas     bool
}

// Request is a normalized trade request, ready for route discovery.
type Request struct {
	ChainID     int64
	TokenIn     Token
	TokenOut    Token
	AmountIn    *big.Int
	SlippageBps int64
	Recipient   common.Address
	Deadline    Deadline
	SaveGas     bool
}

func (r Request) NativeIn() bool  { return r.TokenIn.IsNative() }
func (r Request) NativeOut() bool { return r.TokenOut.IsNative() }

// Normalize validates raw trade parameters and converts the human amount into
// base units of the input token.
func Normalize(chainID int64, tokenIn, tokenOut TokenInput, amount string, cfg Config) (Request, error) {
	if chainID <= 0 {
		return Request{}, clierr.New(clierr.CodeUsage, "chain id must be positive")
	}
	in, err := normalizeToken("token in", tokenIn)
	if err != nil {
		return Request{}, err
	}
	out, err := normalizeToken("token out", tokenOut)
	if err != nil {
		return Request{}, err
	}
	if in.IsNative() && out.IsNative() {
		return Request{}, clierr.New(clierr.CodeInvalidTradeShape, "native to native swaps are not supported")
	}
	if in.Address == out.Address {
		return Request{}, clierr.New(clierr.CodeInvalidTradeShape, "token in and token out must differ")
	}
	recipient, err := ValidateAddress(cfg.Recipient)
	if err != nil {
		return Request{}, err
	}
	if cfg.SlippageBps < 0 {
		return Request{}, clierr.New(clierr.CodeUsage, "slippage bps must not be negative")
	}
	if err := validateDeadline(cfg.Deadline); err != nil {
		return Request{}, err
	}
	base, _, err := id.NormalizeAmount("", amount, in.Decimals)
	if err != nil {
		return Request{}, err
	}
	amountIn, _ := new(big.Int).SetString(base, 10)
	if amountIn.Sign() == 0 {
		return Request{}, clierr.New(clierr.CodeUsage, "amount must be greater than zero")
	}
	return Request{
		ChainID:     chainID,
		TokenIn:     in,
		TokenOut:    out,
		AmountIn:    amountIn,
		SlippageBps: cfg.SlippageBps,
		Recipient:   recipient,
		Deadline:    cfg.Deadline,
		SaveGas:     cfg.SaveGas,
	}, nil
}

func normalizeToken(label string, t TokenInput) (Token, error) {
	addr, err := ValidateAddress(t.Address)
	if err != nil {
		return Token{}, clierr.Wrap(clierr.CodeInvalidAddress, label, err)
	}
	if t.Decimals < 0 || t.Decimals > 77 {
		return Token{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("%s decimals out of range", label))
	}
	return Token{Address: addr, Decimals: t.Decimals}, nil
}

func validateDeadline(d Deadline) error {
	switch v := d.(type) {
	case TTL:
		if v <= 0 {
			return clierr.New(clierr.CodeInvalidDeadline, "ttl must be greater than zero")
		}
	case AtEpoch:
	case nil:
		return clierr.New(clierr.CodeInvalidDeadline, "deadline or ttl is required")
	}
	return nil
}

// ValidateAddress parses a hex EVM address. Mixed-case input must carry a
// valid EIP-55 checksum.
func ValidateAddress(v string) (common.Address, error) {
	v = strings.TrimSpace(v)
	if !common.IsHexAddress(v) {
		return common.Address{}, clierr.New(clierr.CodeInvalidAddress, fmt.Sprintf("invalid address %q", v))
	}
	addr := common.HexToAddress(v)
	body := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	if strings.ToLower(body) != body && strings.ToUpper(body) != body {
		if addr.Hex() != "0x"+body {
			return common.Address{}, clierr.New(clierr.CodeInvalidAddress, fmt.Sprintf("address %q has an invalid checksum", v))
		}
	}
	return addr, nil
}

// ResolveDeadline returns the deadline as unix seconds.
func ResolveDeadline(d Deadline, now time.Time) (*big.Int, error) {
	switch v := d.(type) {
	case AtEpoch:
		return new(big.Int).SetUint64(uint64(v)), nil
	case TTL:
		if v <= 0 {
			return nil, clierr.New(clierr.CodeInvalidDeadline, "ttl must be greater than zero")
		}
		return big.NewInt(now.Unix() + int64(v)), nil
	default:
		return nil, clierr.New(clierr.CodeInvalidDeadline, "deadline or ttl is required")
	}
}
