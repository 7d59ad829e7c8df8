package market

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// PoolsCache holds discovered pool metadata for sources whose pools cannot be
// enumerated on-chain cheaply (Balancer-style registries). Refresh is allowed
// to be slow; the quoting path never waits on it.
type PoolsCache interface {
	// RefreshPair re-discovers pools for one token pair.
	RefreshPair(ctx context.Context, takerToken, makerToken common.Address) error

	// IsFresh reports whether the pair has been refreshed recently enough to
	// skip a background refresh.
	IsFresh(takerToken, makerToken common.Address) bool
}
