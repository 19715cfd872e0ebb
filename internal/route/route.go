package route

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

// ProtocolClass says whether a pool can be chained directly to its neighbours.
type ProtocolClass int

const (
	// Opaque pools are driven entirely by the executor.
	Opaque ProtocolClass = iota
	// DirectlyChainable pools accept an explicit recipient and collect flag.
	DirectlyChainable
)

func (c ProtocolClass) String() string {
	switch c {
	case DirectlyChainable:
		return "directly_chainable"
	default:
		return "opaque"
	}
}

func (c ProtocolClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Hop is one pool swap. Hops are never modified after the route is built.
type Hop struct {
	Pool              common.Address
	TokenIn           common.Address
	TokenOut          common.Address
	Exchange          string
	PoolType          string
	Class             ProtocolClass
	SwapAmount        *big.Int
	AmountOut         *big.Int
	LimitReturnAmount *big.Int
	Extra             json.RawMessage
}

type Sequence []Hop

// Route is a set of parallel sequences. Sequence order is argument order.
type Route struct {
	Sequences []Sequence
}

func (r Route) Empty() bool { return len(r.Sequences) == 0 }

// HopCount is the total number of hops across all sequences.
func (r Route) HopCount() int {
	n := 0
	for _, seq := range r.Sequences {
		n += len(seq)
	}
	return n
}

// WireHop is a hop as the aggregator API serializes it.
type WireHop struct {
	Pool              string          `json:"pool"`
	TokenIn           string          `json:"tokenIn"`
	TokenOut          string          `json:"tokenOut"`
	SwapAmount        string          `json:"swapAmount"`
	AmountOut         string          `json:"amountOut"`
	LimitReturnAmount string          `json:"limitReturnAmount"`
	Exchange          string          `json:"exchange"`
	PoolLength        int             `json:"poolLength"`
	PoolType          string          `json:"poolType"`
	Extra             json.RawMessage `json:"extra,omitempty"`
}

// Classifier resolves the protocol class of a hop from its exchange id.
type Classifier struct {
	chainable map[string]struct{}
}

func NewClassifier(chainableExchanges []string) Classifier {
	set := make(map[string]struct{}, len(chainableExchanges))
	for _, ex := range chainableExchanges {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex != "" {
			set[ex] = struct{}{}
		}
	}
	return Classifier{chainable: set}
}

func (c Classifier) Classify(exchange string) ProtocolClass {
	if _, ok := c.chainable[strings.ToLower(strings.TrimSpace(exchange))]; ok {
		return DirectlyChainable
	}
	return Opaque
}

// FromWire builds an immutable Route from aggregator swaps, classifying every
// hop once. Malformed swaps are reported as an unavailable provider.
func FromWire(swaps [][]WireHop, classifier Classifier) (Route, error) {
	return fromWire(swaps, classifier, clierr.CodeUnavailable)
}

func fromWire(swaps [][]WireHop, classifier Classifier, code clierr.Code) (Route, error) {
	out := Route{Sequences: make([]Sequence, 0, len(swaps))}
	for i, wireSeq := range swaps {
		if len(wireSeq) == 0 {
			return Route{}, clierr.New(code, fmt.Sprintf("route sequence %d is empty", i))
		}
		seq := make(Sequence, 0, len(wireSeq))
		for j, w := range wireSeq {
			hop, err := hopFromWire(w, classifier)
			if err != nil {
				return Route{}, clierr.Wrap(code, fmt.Sprintf("route hop %d.%d", i, j), err)
			}
			seq = append(seq, hop)
		}
		out.Sequences = append(out.Sequences, seq)
	}
	return out, nil
}

func hopFromWire(w WireHop, classifier Classifier) (Hop, error) {
	addrs := make([]common.Address, 0, 3)
	for _, raw := range []string{w.Pool, w.TokenIn, w.TokenOut} {
		if !common.IsHexAddress(strings.TrimSpace(raw)) {
			return Hop{}, fmt.Errorf("invalid address %q", raw)
		}
		addrs = append(addrs, common.HexToAddress(strings.TrimSpace(raw)))
	}
	swapAmount, err := parseAmount("swapAmount", w.SwapAmount)
	if err != nil {
		return Hop{}, err
	}
	amountOut, err := parseAmount("amountOut", w.AmountOut)
	if err != nil {
		return Hop{}, err
	}
	limit, err := parseAmount("limitReturnAmount", w.LimitReturnAmount)
	if err != nil {
		return Hop{}, err
	}
	return Hop{
		Pool:              addrs[0],
		TokenIn:           addrs[1],
		TokenOut:          addrs[2],
		Exchange:          w.Exchange,
		PoolType:          w.PoolType,
		Class:             classifier.Classify(w.Exchange),
		SwapAmount:        swapAmount,
		AmountOut:         amountOut,
		LimitReturnAmount: limit,
		Extra:             w.Extra,
	}, nil
}

func parseAmount(field, v string) (*big.Int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return big.NewInt(0), nil
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", field, v)
	}
	return n, nil
}

// Override optionally replaces discovered swaps with pre-serialized route data.
type Override struct {
	raw     json.RawMessage
	present bool
}

func NoOverride() Override { return Override{} }

func OverrideWith(raw []byte) Override {
	return Override{raw: append(json.RawMessage(nil), raw...), present: true}
}

func (o Override) Present() bool { return o.present }

// Decode parses the override as [][]WireHop. It reports false when absent.
func (o Override) Decode() ([][]WireHop, bool, error) {
	if !o.present {
		return nil, false, nil
	}
	var swaps [][]WireHop
	if err := json.Unmarshal(o.raw, &swaps); err != nil {
		return nil, true, clierr.Wrap(clierr.CodeUsage, "decode route override", err)
	}
	return swaps, true, nil
}

// Build decodes and classifies the override. Caller-supplied swaps that do not
// parse are usage errors.
func (o Override) Build(classifier Classifier) (Route, bool, error) {
	swaps, present, err := o.Decode()
	if err != nil || !present {
		return Route{}, present, err
	}
	r, err := fromWire(swaps, classifier, clierr.CodeUsage)
	if err != nil {
		return Route{}, true, err
	}
	return r, true, nil
}
