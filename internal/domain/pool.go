package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is one cached AMM pool. The sampler prices against these between
// registry refreshes; reserves are a snapshot, not live state.
type Pool struct {
	Source  Source
	Address common.Address

	Token0 common.Address
	Token1 common.Address

	Reserve0 *big.Int
	Reserve1 *big.Int

	// FeeBps is the swap fee in basis points.
	FeeBps uint16

	// Stable marks stable-curve pools on Solidly-style venues.
	Stable bool

	// LastRefreshedUnix is when the reserves were last re-read.
	LastRefreshedUnix int64
}

// HasPair reports whether the pool trades the given pair, either direction.
func (p *Pool) HasPair(a, b common.Address) bool {
	return (p.Token0 == a && p.Token1 == b) || (p.Token0 == b && p.Token1 == a)
}
