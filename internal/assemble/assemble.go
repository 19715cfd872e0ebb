package assemble

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/encoding"
	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/fee"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/registry"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/route"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/trade"
)

const MethodName = "swap"

// Router flag bits.
const (
	FlagShouldClaim = 0x04
	FlagSimpleSwap  = 0x20
)

// Encoder serializes hops and executor payloads.
type Encoder interface {
	EncodeHops(linked route.LinkedRoute, r route.Route) ([]encoding.SequenceCall, error)
	EncodeSimpleModePayload(firstPools []common.Address, firstSwapAmounts []*big.Int, seqs []encoding.SequenceCall, deadline *big.Int, destTokenFeeData []byte) ([]byte, error)
	EncodeNormalModePayload(seqs []encoding.SequenceCall, tokenIn, tokenOut common.Address, minTotalAmountOut *big.Int, to common.Address, deadline *big.Int, destTokenFeeData []byte) ([]byte, error)
	EncodeFeeConfig(receiver common.Address, proportional bool, amount *big.Int) ([]byte, error)
}

// SwapDescriptor is the router's swap description tuple.
type SwapDescriptor struct {
	SrcToken         common.Address
	DstToken         common.Address
	SrcReceivers     []common.Address
	SrcAmounts       []*big.Int
	DstReceiver      common.Address
	Amount           *big.Int
	MinReturnAmount  *big.Int
	Flags            *big.Int
	DestTokenFeeData []byte
}

// CallArguments are the positional arguments of the router call plus the
// native value to send with it.
type CallArguments struct {
	MethodName   string
	Executor     common.Address
	Descriptor   SwapDescriptor
	ExecutorData []byte
	Value        *big.Int
	Calldata     []byte
}

type Input struct {
	Intent   trade.Intent
	Route    route.Route
	Linked   route.LinkedRoute
	Accrual  fee.Accrual
	Executor common.Address
}

type Output struct {
	Call      CallArguments
	Sequences []encoding.SequenceCall
	// Executor is the decoded view of Call.ExecutorData.
	Executor ExecutorView
}

type Assembler struct {
	router  abi.ABI
	encoder Encoder
}

func New(enc Encoder) (*Assembler, error) {
	parsed, err := abi.JSON(strings.NewReader(registry.RouterABI))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "parse router abi", err)
	}
	return &Assembler{router: parsed, encoder: enc}, nil
}

// Assemble builds the router call for an already linked route.
func (a *Assembler) Assemble(in Input) (Output, error) {
	seqs, err := a.encoder.EncodeHops(in.Linked, in.Route)
	if err != nil {
		return Output{}, err
	}

	var side SidePayments
	if in.Accrual.InputFee != nil {
		side.Add(in.Accrual.Receiver, in.Accrual.InputFee)
	}

	desc := SwapDescriptor{
		SrcToken:         in.Intent.CurrencyIn.Address,
		DstToken:         in.Intent.CurrencyOut.Address,
		DstReceiver:      in.Intent.Recipient,
		MinReturnAmount:  new(big.Int).Set(in.Intent.AmountOutMin),
		DestTokenFeeData: in.Accrual.DestTokenFeeData,
	}
	var (
		payload []byte
		view    ExecutorView
	)
	switch in.Linked.Mode {
	case route.SimpleMode:
		payload, err = a.encoder.EncodeSimpleModePayload(in.Linked.FirstPools, in.Linked.FirstSwapAmounts, seqs, in.Intent.Deadline, in.Accrual.DestTokenFeeData)
		if err != nil {
			return Output{}, err
		}
		desc.Amount = new(big.Int).Add(side.Total(), in.Linked.SumFirstSwapAmounts())
		desc.Flags = big.NewInt(FlagSimpleSwap)
		view = SimpleModeView{
			FirstPools:       in.Linked.FirstPools,
			FirstSwapAmounts: in.Linked.FirstSwapAmounts,
			SwapSequences:    seqs,
			Deadline:         in.Intent.Deadline,
			DestTokenFeeData: in.Accrual.DestTokenFeeData,
		}
	default:
		if !in.Intent.NativeIn {
			side.Add(in.Executor, in.Linked.ExecutorCollect)
		}
		payload, err = a.encoder.EncodeNormalModePayload(seqs, in.Intent.CurrencyIn.Address, in.Intent.CurrencyOut.Address, in.Intent.AmountOutMin, in.Intent.Recipient, in.Intent.Deadline, in.Accrual.DestTokenFeeData)
		if err != nil {
			return Output{}, err
		}
		desc.Amount = new(big.Int).Set(in.Intent.AmountInMax)
		desc.Flags = big.NewInt(FlagShouldClaim)
		if in.Intent.NativeIn {
			desc.Flags = big.NewInt(0)
		}
		view = NormalModeView{
			SwapSequences:     seqs,
			TokenIn:           in.Intent.CurrencyIn.Address,
			TokenOut:          in.Intent.CurrencyOut.Address,
			MinTotalAmountOut: in.Intent.AmountOutMin,
			To:                in.Intent.Recipient,
			Deadline:          in.Intent.Deadline,
			DestTokenFeeData:  in.Accrual.DestTokenFeeData,
		}
	}
	desc.SrcReceivers = side.Receivers()
	desc.SrcAmounts = side.Amounts()

	value := new(big.Int)
	if in.Accrual.Value != nil {
		value.Set(in.Accrual.Value)
	}
	if err := checkUint256(desc, value, in.Intent.Deadline); err != nil {
		return Output{}, err
	}
	calldata, err := a.router.Pack(MethodName, in.Executor, desc, payload)
	if err != nil {
		return Output{}, clierr.Wrap(clierr.CodeInternal, "pack router call", err)
	}
	return Output{
		Call: CallArguments{
			MethodName:   MethodName,
			Executor:     in.Executor,
			Descriptor:   desc,
			ExecutorData: payload,
			Value:        value,
			Calldata:     calldata,
		},
		Sequences: seqs,
		Executor:  view,
	}, nil
}

type namedAmount struct {
	name  string
	value *big.Int
}

// checkUint256 reports the first out-of-range field in descriptor order.
func checkUint256(desc SwapDescriptor, value, deadline *big.Int) error {
	fields := []namedAmount{
		{"amount", desc.Amount},
		{"minReturnAmount", desc.MinReturnAmount},
	}
	for i, v := range desc.SrcAmounts {
		fields = append(fields, namedAmount{fmt.Sprintf("srcAmounts[%d]", i), v})
	}
	fields = append(fields, namedAmount{"value", value}, namedAmount{"deadline", deadline})
	for _, f := range fields {
		if f.value == nil {
			return clierr.New(clierr.CodeInternal, fmt.Sprintf("%s is missing", f.name))
		}
		if f.value.Sign() < 0 {
			return clierr.New(clierr.CodeUsage, fmt.Sprintf("%s must be non-negative", f.name))
		}
		if _, overflow := uint256.FromBig(f.value); overflow {
			return clierr.New(clierr.CodeUsage, fmt.Sprintf("%s does not fit in uint256", f.name))
		}
	}
	return nil
}
