package assemble

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SidePayments are amounts pulled from the caller to receivers other than the
// first pools. Receivers keep insertion order; adding to an existing receiver
// accumulates.
type SidePayments struct {
	order   []common.Address
	amounts map[common.Address]*big.Int
}

func (s *SidePayments) Add(receiver common.Address, amount *big.Int) {
	if s.amounts == nil {
		s.amounts = map[common.Address]*big.Int{}
	}
	cur, ok := s.amounts[receiver]
	if !ok {
		cur = new(big.Int)
		s.amounts[receiver] = cur
		s.order = append(s.order, receiver)
	}
	if amount != nil {
		cur.Add(cur, amount)
	}
}

func (s *SidePayments) Len() int { return len(s.order) }

func (s *SidePayments) Receivers() []common.Address {
	return append([]common.Address{}, s.order...)
}

func (s *SidePayments) Amounts() []*big.Int {
	out := make([]*big.Int, 0, len(s.order))
	for _, r := range s.order {
		out = append(out, new(big.Int).Set(s.amounts[r]))
	}
	return out
}

func (s *SidePayments) Total() *big.Int {
	total := new(big.Int)
	for _, r := range s.order {
		total.Add(total, s.amounts[r])
	}
	return total
}
