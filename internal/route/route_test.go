package route

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/assert"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

var (
	executor  = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenA    = common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB    = common.HexToAddress("0x000000000000000000000000000000000000000b")
	tokenC    = common.HexToAddress("0x000000000000000000000000000000000000000c")
)

func pool(n int64) common.Address {
	return common.BigToAddress(big.NewInt(0x1000 + n))
}

func hop(n int64, class ProtocolClass, swapAmount int64) Hop {
	return Hop{
		Pool:              pool(n),
		TokenIn:           tokenA,
		TokenOut:          tokenB,
		Class:             class,
		SwapAmount:        big.NewInt(swapAmount),
		AmountOut:         big.NewInt(0),
		LimitReturnAmount: big.NewInt(0),
	}
}

func TestSelectModeIsWholeRoute(t *testing.T) {
	allDC := Route{Sequences: []Sequence{
		{hop(1, DirectlyChainable, 10)},
		{hop(2, DirectlyChainable, 20), hop(3, Opaque, 0)},
	}}
	assert.Equal(t, SelectMode(false, allDC), SimpleMode)
	assert.Equal(t, SelectMode(true, allDC), NormalMode)

	oneOpaqueFirst := Route{Sequences: []Sequence{
		{hop(1, DirectlyChainable, 10)},
		{hop(2, Opaque, 20)},
	}}
	assert.Equal(t, SelectMode(false, oneOpaqueFirst), NormalMode)
	assert.Equal(t, SelectMode(false, Route{}), NormalMode)
}

func TestLinkDirectlyChainableConnectivity(t *testing.T) {
	seq := Sequence{
		hop(1, DirectlyChainable, 100),
		hop(2, DirectlyChainable, 0),
		hop(3, DirectlyChainable, 0),
	}
	r := Route{Sequences: []Sequence{seq}}
	for _, mode := range []Mode{SimpleMode, NormalMode} {
		linked := Link(r, LinkParams{Mode: mode, Executor: executor, Recipient: recipient})
		links := linked.Links[0]
		assert.Equal(t, links[0].Recipient, seq[1].Pool)
		assert.Equal(t, links[1].Recipient, seq[2].Pool)
		assert.Equal(t, links[2].Recipient, recipient)
		assert.Equal(t, links[1].CollectAmount.Sign(), 0)
		assert.Equal(t, links[2].CollectAmount.Sign(), 0)
	}
}

func TestLinkMixedPairs(t *testing.T) {
	seq := Sequence{
		hop(1, DirectlyChainable, 100),
		hop(2, Opaque, 0),
		hop(3, DirectlyChainable, 0),
		hop(4, Opaque, 0),
		hop(5, Opaque, 0),
	}
	linked := Link(Route{Sequences: []Sequence{seq}}, LinkParams{Mode: NormalMode, Executor: executor, Recipient: recipient})
	links := linked.Links[0]

	// DC -> Opaque: output goes back to the executor.
	assert.Equal(t, links[0].Recipient, executor)
	// Opaque -> DC: collect from the previous hop.
	assert.Equal(t, links[2].CollectAmount.Int64(), int64(1))
	assert.Equal(t, links[2].Recipient, executor)
	// Opaque -> Opaque: untouched.
	assert.Equal(t, links[4].Recipient, common.Address{})
	assert.Equal(t, links[4].CollectAmount.Sign(), 0)
}

func TestLinkTerminalRule(t *testing.T) {
	r := Route{Sequences: []Sequence{
		{hop(1, DirectlyChainable, 10)},
		{hop(2, Opaque, 10), hop(3, DirectlyChainable, 0)},
	}}
	cases := []struct {
		name   string
		params LinkParams
		want   common.Address
	}{
		{"plain", LinkParams{Mode: NormalMode}, recipient},
		{"native out", LinkParams{Mode: NormalMode, NativeOut: true}, executor},
		{"fee on output", LinkParams{Mode: NormalMode, FeeOnOutput: true}, executor},
		{"simple plain", LinkParams{Mode: SimpleMode}, recipient},
		{"simple fee on output", LinkParams{Mode: SimpleMode, FeeOnOutput: true}, executor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.params.Executor = executor
			tc.params.Recipient = recipient
			linked := Link(r, tc.params)
			assert.Equal(t, linked.Links[0][0].Recipient, tc.want)
			assert.Equal(t, linked.Links[1][1].Recipient, tc.want)
		})
	}
}

func TestLinkNormalModeFirstHop(t *testing.T) {
	r := Route{Sequences: []Sequence{
		{hop(1, DirectlyChainable, 70)},
		{hop(2, Opaque, 30), hop(3, Opaque, 0)},
	}}
	linked := Link(r, LinkParams{Mode: NormalMode, Executor: executor, Recipient: recipient})
	assert.Equal(t, linked.Links[0][0].CollectAmount.Int64(), int64(70))
	assert.Equal(t, linked.Links[1][0].CollectAmount.Sign(), 0)
	assert.Equal(t, linked.ExecutorCollect.Int64(), int64(100))

	native := Link(r, LinkParams{Mode: NormalMode, Executor: executor, Recipient: recipient, NativeIn: true})
	assert.Equal(t, native.Links[0][0].CollectAmount.Int64(), int64(70))
	assert.Equal(t, native.ExecutorCollect.Sign(), 0)
}

func TestLinkSimpleModeTwoSequences(t *testing.T) {
	r := Route{Sequences: []Sequence{
		{hop(1, DirectlyChainable, 600)},
		{hop(2, DirectlyChainable, 400)},
	}}
	assert.Equal(t, SelectMode(false, r), SimpleMode)
	linked := Link(r, LinkParams{Mode: SimpleMode, Executor: executor, Recipient: recipient})
	for s := range r.Sequences {
		assert.Equal(t, linked.Links[s][0].CollectAmount.Sign(), 0)
		assert.Equal(t, linked.Links[s][0].Recipient, recipient)
	}
	assert.Equal(t, linked.SumFirstSwapAmounts().Int64(), int64(1000))
	assert.DeepEqual(t, linked.FirstPools, []common.Address{pool(1), pool(2)})
	assert.Equal(t, linked.ExecutorCollect.Sign(), 0)
}

func TestLinkIsReferentiallyTransparent(t *testing.T) {
	r := Route{Sequences: []Sequence{
		{hop(1, DirectlyChainable, 5), hop(2, DirectlyChainable, 0), hop(3, Opaque, 0)},
		{hop(4, Opaque, 7), hop(5, DirectlyChainable, 0)},
	}}
	params := LinkParams{Mode: NormalMode, Executor: executor, Recipient: recipient}
	first := Link(r, params)
	second := Link(r, params)

	a, err := json.Marshal(first)
	assert.NoError(t, err)
	b, err := json.Marshal(second)
	assert.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, r.Sequences[0][0].SwapAmount.Int64(), int64(5))

	// Changing the intent on the same route does not see earlier results.
	other := Link(r, LinkParams{Mode: NormalMode, Executor: executor, Recipient: recipient, NativeOut: true})
	assert.Equal(t, other.Links[1][1].Recipient, executor)
	assert.Equal(t, first.Links[1][1].Recipient, recipient)
}

func TestFromWireClassifiesHops(t *testing.T) {
	raw := `[[{"pool":"0x0000000000000000000000000000000000001001","tokenIn":"0x000000000000000000000000000000000000000a","tokenOut":"0x000000000000000000000000000000000000000b","swapAmount":"100","amountOut":"99","limitReturnAmount":"0","exchange":"PancakE","poolType":"uni"},
	{"pool":"0x0000000000000000000000000000000000001002","tokenIn":"0x000000000000000000000000000000000000000b","tokenOut":"0x000000000000000000000000000000000000000c","swapAmount":"0","amountOut":"98","limitReturnAmount":"0","exchange":"curve","poolType":"curve-base","extra":{"tokenInIndex":0}}]]`
	override := OverrideWith([]byte(raw))
	swaps, ok, err := override.Decode()
	assert.NoError(t, err)
	assert.True(t, ok)

	r, err := FromWire(swaps, NewClassifier([]string{"pancake", "uniswap"}))
	assert.NoError(t, err)
	assert.Equal(t, r.HopCount(), 2)
	assert.Equal(t, r.Sequences[0][0].Class, DirectlyChainable)
	assert.Equal(t, r.Sequences[0][1].Class, Opaque)
	assert.Equal(t, r.Sequences[0][1].TokenOut, tokenC)
	assert.Equal(t, r.Sequences[0][0].SwapAmount.Int64(), int64(100))
	assert.Equal(t, string(r.Sequences[0][1].Extra), `{"tokenInIndex":0}`)
}

func TestFromWireRejectsMalformedHops(t *testing.T) {
	_, err := FromWire([][]WireHop{{}}, NewClassifier(nil))
	assert.Error(t, err)

	_, err = FromWire([][]WireHop{{{Pool: "nope", TokenIn: tokenA.Hex(), TokenOut: tokenB.Hex()}}}, NewClassifier(nil))
	assert.Error(t, err)

	_, err = FromWire([][]WireHop{{{Pool: pool(1).Hex(), TokenIn: tokenA.Hex(), TokenOut: tokenB.Hex(), SwapAmount: "-1"}}}, NewClassifier(nil))
	assert.Error(t, err)
}

func TestOverrideAbsent(t *testing.T) {
	swaps, ok, err := NoOverride().Decode()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, len(swaps), 0)

	r, ok, err := NoOverride().Build(NewClassifier(nil))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, r.Empty())
}

func TestMalformedOverrideIsUsageError(t *testing.T) {
	cases := map[string]string{
		"not json":   `{"swaps":`,
		"empty seq":  `[[]]`,
		"bad pool":   `[[{"pool":"nope","tokenIn":"` + tokenA.Hex() + `","tokenOut":"` + tokenB.Hex() + `"}]]`,
		"bad amount": `[[{"pool":"` + pool(1).Hex() + `","tokenIn":"` + tokenA.Hex() + `","tokenOut":"` + tokenB.Hex() + `","swapAmount":"x"}]]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, present, err := OverrideWith([]byte(raw)).Build(NewClassifier(nil))
			assert.True(t, present)
			assert.True(t, clierr.HasCode(err, clierr.CodeUsage))
		})
	}

	_, err := FromWire([][]WireHop{{}}, NewClassifier(nil))
	assert.True(t, clierr.HasCode(err, clierr.CodeUnavailable))
}
