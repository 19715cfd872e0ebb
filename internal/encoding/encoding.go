package encoding

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/registry"
	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/route"
)

// HopCall is one executor step: the hop's encoded data and the selector of the
// executor entrypoint that consumes it.
type HopCall struct {
	Data     []byte  `json:"data"`
	Selector [4]byte `json:"selector"`
}

func (h HopCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Data     string `json:"data"`
		Selector string `json:"selector"`
	}{hexutil.Encode(h.Data), hexutil.Encode(h.Selector[:])})
}

// SequenceCall is the executor steps of one route sequence.
type SequenceCall []HopCall

type directHop struct {
	Pool              common.Address
	TokenIn           common.Address
	TokenOut          common.Address
	Recipient         common.Address
	CollectAmount     *big.Int
	LimitReturnAmount *big.Int
}

type opaqueHop struct {
	Pool              common.Address
	TokenIn           common.Address
	TokenOut          common.Address
	SwapAmount        *big.Int
	LimitReturnAmount *big.Int
	Extra             []byte
}

type simpleSwap struct {
	FirstPools       []common.Address
	FirstSwapAmounts []*big.Int
	SwapDatas        [][]byte
	Deadline         *big.Int
	DestTokenFeeData []byte
}

type swapExecutorDescription struct {
	SwapSequences     [][]HopCall
	TokenIn           common.Address
	TokenOut          common.Address
	MinTotalAmountOut *big.Int
	To                common.Address
	Deadline          *big.Int
	DestTokenFeeData  []byte
}

// Encoder packs executor payloads with the executor ABI.
type Encoder struct {
	executor abi.ABI
}

func New() (*Encoder, error) {
	parsed, err := abi.JSON(strings.NewReader(registry.ExecutorABI))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "parse executor abi", err)
	}
	return &Encoder{executor: parsed}, nil
}

// Selector is the 4-byte function selector of an executor signature.
func Selector(signature string) [4]byte {
	var out [4]byte
	copy(out[:], crypto.Keccak256([]byte(signature))[:4])
	return out
}

// EncodeHops encodes every hop of r using the recipients and collect amounts
// from linked.
func (e *Encoder) EncodeHops(linked route.LinkedRoute, r route.Route) ([]SequenceCall, error) {
	if len(linked.Links) != len(r.Sequences) {
		return nil, clierr.New(clierr.CodeInternal, "linked route does not match route shape")
	}
	out := make([]SequenceCall, 0, len(r.Sequences))
	for s, seq := range r.Sequences {
		if len(linked.Links[s]) != len(seq) {
			return nil, clierr.New(clierr.CodeInternal, fmt.Sprintf("linked sequence %d does not match route shape", s))
		}
		calls := make(SequenceCall, 0, len(seq))
		for i, hop := range seq {
			call, err := e.encodeHop(hop, linked.Links[s][i])
			if err != nil {
				return nil, clierr.Wrap(clierr.CodeInternal, fmt.Sprintf("encode hop %d.%d", s, i), err)
			}
			calls = append(calls, call)
		}
		out = append(out, calls)
	}
	return out, nil
}

func (e *Encoder) encodeHop(hop route.Hop, link route.HopLink) (HopCall, error) {
	switch hop.Class {
	case route.DirectlyChainable:
		data, err := e.pack("directHop", directHop{
			Pool:              hop.Pool,
			TokenIn:           hop.TokenIn,
			TokenOut:          hop.TokenOut,
			Recipient:         link.Recipient,
			CollectAmount:     orZero(link.CollectAmount),
			LimitReturnAmount: orZero(hop.LimitReturnAmount),
		})
		if err != nil {
			return HopCall{}, err
		}
		return HopCall{Data: data, Selector: Selector(registry.DirectHopSignature)}, nil
	default:
		data, err := e.pack("opaqueHop", opaqueHop{
			Pool:              hop.Pool,
			TokenIn:           hop.TokenIn,
			TokenOut:          hop.TokenOut,
			SwapAmount:        orZero(hop.SwapAmount),
			LimitReturnAmount: orZero(hop.LimitReturnAmount),
			Extra:             []byte(hop.Extra),
		})
		if err != nil {
			return HopCall{}, err
		}
		return HopCall{Data: data, Selector: Selector(registry.OpaqueHopSignature(strings.ToLower(hop.Exchange)))}, nil
	}
}

// EncodeSequence packs one sequence for the SimpleMode swapDatas array.
func (e *Encoder) EncodeSequence(seq SequenceCall) ([]byte, error) {
	return e.pack("sequence", []HopCall(seq))
}

func (e *Encoder) EncodeSimpleModePayload(firstPools []common.Address, firstSwapAmounts []*big.Int, seqs []SequenceCall, deadline *big.Int, destTokenFeeData []byte) ([]byte, error) {
	if len(firstPools) != len(firstSwapAmounts) || len(firstPools) != len(seqs) {
		return nil, clierr.New(clierr.CodeInternal, "simple mode payload inputs have mismatched lengths")
	}
	datas := make([][]byte, 0, len(seqs))
	for _, seq := range seqs {
		data, err := e.EncodeSequence(seq)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInternal, "encode swap sequence", err)
		}
		datas = append(datas, data)
	}
	return e.pack("simpleSwap", simpleSwap{
		FirstPools:       firstPools,
		FirstSwapAmounts: firstSwapAmounts,
		SwapDatas:        datas,
		Deadline:         orZero(deadline),
		DestTokenFeeData: nonNil(destTokenFeeData),
	})
}

// EncodeNormalModePayload packs the executor description tuple without a selector.
func (e *Encoder) EncodeNormalModePayload(seqs []SequenceCall, tokenIn, tokenOut common.Address, minTotalAmountOut *big.Int, to common.Address, deadline *big.Int, destTokenFeeData []byte) ([]byte, error) {
	sequences := make([][]HopCall, 0, len(seqs))
	for _, seq := range seqs {
		sequences = append(sequences, []HopCall(seq))
	}
	return e.pack("callBytes", swapExecutorDescription{
		SwapSequences:     sequences,
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		MinTotalAmountOut: orZero(minTotalAmountOut),
		To:                to,
		Deadline:          orZero(deadline),
		DestTokenFeeData:  nonNil(destTokenFeeData),
	})
}

func (e *Encoder) EncodeFeeConfig(receiver common.Address, proportional bool, amount *big.Int) ([]byte, error) {
	return e.pack("feeConfig", receiver, proportional, orZero(amount))
}

func (e *Encoder) pack(method string, args ...any) ([]byte, error) {
	m, ok := e.executor.Methods[method]
	if !ok {
		return nil, clierr.New(clierr.CodeInternal, fmt.Sprintf("executor abi has no %s layout", method))
	}
	data, err := m.Inputs.Pack(args...)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, fmt.Sprintf("pack %s", method), err)
	}
	return data, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
