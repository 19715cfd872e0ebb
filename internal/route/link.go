package route

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// HopLink is the per-hop state threaded through a sequence during linking.
type HopLink struct {
	Recipient     common.Address `json:"recipient"`
	CollectAmount *big.Int       `json:"collectAmount"`
}

// LinkedRoute is the result of linking a Route. Links is indexed
// [sequence][position] and mirrors the route's shape.
type LinkedRoute struct {
	Mode  Mode        `json:"mode"`
	Links [][]HopLink `json:"links"`
	// ExecutorCollect is what the executor pulls from the caller (NormalMode, token in).
	ExecutorCollect  *big.Int         `json:"executorCollect"`
	FirstPools       []common.Address `json:"firstPools"`
	FirstSwapAmounts []*big.Int       `json:"firstSwapAmounts"`
}

type LinkParams struct {
	Mode        Mode
	Executor    common.Address
	Recipient   common.Address
	NativeIn    bool
	NativeOut   bool
	FeeOnOutput bool
}

// Link computes recipients and collect amounts for every hop of r. It reads r
// only, so linking the same route twice gives the same result.
func Link(r Route, p LinkParams) LinkedRoute {
	out := LinkedRoute{
		Mode:             p.Mode,
		Links:            make([][]HopLink, len(r.Sequences)),
		ExecutorCollect:  new(big.Int),
		FirstPools:       make([]common.Address, 0, len(r.Sequences)),
		FirstSwapAmounts: make([]*big.Int, 0, len(r.Sequences)),
	}
	terminal := p.Recipient
	if p.NativeOut || p.FeeOnOutput {
		terminal = p.Executor
	}

	for s, seq := range r.Sequences {
		links := make([]HopLink, len(seq))
		for i := range links {
			links[i].CollectAmount = new(big.Int)
		}
		out.Links[s] = links
		if len(seq) == 0 {
			continue
		}

		first := seq[0]
		swapAmount := amountOrZero(first.SwapAmount)
		out.FirstPools = append(out.FirstPools, first.Pool)
		out.FirstSwapAmounts = append(out.FirstSwapAmounts, new(big.Int).Set(swapAmount))
		switch p.Mode {
		case SimpleMode:
			// Funds arrive from the caller through the descriptor.
			links[0].CollectAmount.SetInt64(0)
		default:
			if first.Class == DirectlyChainable {
				links[0].CollectAmount.Set(swapAmount)
			}
			if !p.NativeIn {
				out.ExecutorCollect.Add(out.ExecutorCollect, swapAmount)
			}
		}

		last := len(seq) - 1
		if last == 0 && first.Class == DirectlyChainable {
			links[0].Recipient = terminal
		}
		for i := 1; i <= last; i++ {
			a, b := seq[i-1], seq[i]
			switch {
			case a.Class == DirectlyChainable && b.Class == DirectlyChainable:
				links[i-1].Recipient = b.Pool
				links[i].CollectAmount.SetInt64(0)
			case b.Class == DirectlyChainable:
				links[i].CollectAmount.SetInt64(1)
			case a.Class == DirectlyChainable:
				links[i-1].Recipient = p.Executor
			}
			if i == last && b.Class == DirectlyChainable {
				links[i].Recipient = terminal
			}
		}
	}
	return out
}

// SumFirstSwapAmounts totals the first-hop amounts of every sequence.
func (l LinkedRoute) SumFirstSwapAmounts() *big.Int {
	total := new(big.Int)
	for _, v := range l.FirstSwapAmounts {
		total.Add(total, v)
	}
	return total
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
