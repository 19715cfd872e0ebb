package assemble

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/encoding"
)

// ExecutorView is a structured view of the executor payload.
type ExecutorView interface {
	isExecutorView()
}

type SimpleModeView struct {
	FirstPools       []common.Address
	FirstSwapAmounts []*big.Int
	SwapSequences    []encoding.SequenceCall
	Deadline         *big.Int
	DestTokenFeeData []byte
}

type NormalModeView struct {
	SwapSequences     []encoding.SequenceCall
	TokenIn           common.Address
	TokenOut          common.Address
	MinTotalAmountOut *big.Int
	To                common.Address
	Deadline          *big.Int
	DestTokenFeeData  []byte
}

func (SimpleModeView) isExecutorView() {}
func (NormalModeView) isExecutorView() {}

func (v SimpleModeView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FirstPools       []common.Address        `json:"firstPools"`
		FirstSwapAmounts []string                `json:"firstSwapAmounts"`
		SwapSequences    []encoding.SequenceCall `json:"swapSequences"`
		Deadline         string                  `json:"deadline"`
		DestTokenFeeData string                  `json:"destTokenFeeData"`
	}{v.FirstPools, bigStrings(v.FirstSwapAmounts), v.SwapSequences, bigString(v.Deadline), hexutil.Encode(v.DestTokenFeeData)})
}

func (v NormalModeView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SwapSequences     []encoding.SequenceCall `json:"swapSequences"`
		TokenIn           common.Address          `json:"tokenIn"`
		TokenOut          common.Address          `json:"tokenOut"`
		MinTotalAmountOut string                  `json:"minTotalAmountOut"`
		To                common.Address          `json:"to"`
		Deadline          string                  `json:"deadline"`
		DestTokenFeeData  string                  `json:"destTokenFeeData"`
	}{v.SwapSequences, v.TokenIn, v.TokenOut, bigString(v.MinTotalAmountOut), v.To, bigString(v.Deadline), hexutil.Encode(v.DestTokenFeeData)})
}

func (d SwapDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SrcToken         common.Address   `json:"srcToken"`
		DstToken         common.Address   `json:"dstToken"`
		SrcReceivers     []common.Address `json:"srcReceivers"`
		SrcAmounts       []string         `json:"srcAmounts"`
		DstReceiver      common.Address   `json:"dstReceiver"`
		Amount           string           `json:"amount"`
		MinReturnAmount  string           `json:"minReturnAmount"`
		Flags            string           `json:"flags"`
		DestTokenFeeData string           `json:"destTokenFeeData"`
	}{d.SrcToken, d.DstToken, d.SrcReceivers, bigStrings(d.SrcAmounts), d.DstReceiver, bigString(d.Amount), bigString(d.MinReturnAmount), bigString(d.Flags), hexutil.Encode(d.DestTokenFeeData)})
}

// Args is the positional argument list of the router call.
func (c CallArguments) Args() []any {
	return []any{c.Executor, c.Descriptor, hexutil.Encode(c.ExecutorData)}
}

func (c CallArguments) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MethodName string `json:"methodName"`
		Args       []any  `json:"args"`
		Value      string `json:"value"`
		Calldata   string `json:"calldata"`
	}{c.MethodName, c.Args(), bigString(c.Value), hexutil.Encode(c.Calldata)})
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func bigStrings(vs []*big.Int) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, bigString(v))
	}
	return out
}
