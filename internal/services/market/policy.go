package market

import (
	"math/big"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// ChainPolicy hooks chain-specific quoting rules into the facade.
type ChainPolicy interface {
	// SkipRfq reports whether RFQ should be skipped entirely for this
	// request, e.g. micro swaps where the maker round trip costs more than it
	// could ever save.
	SkipRfq(side domain.Side, inputAmount *big.Int) bool
}

// DefaultChainPolicy applies no restrictions.
type DefaultChainPolicy struct{}

func (DefaultChainPolicy) SkipRfq(domain.Side, *big.Int) bool { return false }

// MicroSwapPolicy skips RFQ below a minimum input. Used on cheap-gas L2s
// where dust-sized swaps are common and makers decline them anyway.
type MicroSwapPolicy struct {
	MinRfqInput *big.Int
}

func (p MicroSwapPolicy) SkipRfq(_ domain.Side, inputAmount *big.Int) bool {
	if p.MinRfqInput == nil || inputAmount == nil {
		return false
	}
	return inputAmount.Cmp(p.MinRfqInput) < 0
}

// PolicyForChain returns the quoting policy for a chain id.
func PolicyForChain(chainID int) ChainPolicy {
	switch chainID {
	case 10: // Optimism
		return MicroSwapPolicy{MinRfqInput: big.NewInt(1e15)}
	default:
		return DefaultChainPolicy{}
	}
}
