// Package market is the quoting facade: it collects liquidity from every
// venue for one request, drives the path optimizer over it (twice when RFQ
// makers participate) and hands back executable orders.
package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// SampleRequest asks the sampler for every piece of on-chain liquidity
// relevant to one quote, in one batch pinned to a single block.
type SampleRequest struct {
	Side        domain.Side
	InputToken  common.Address
	OutputToken common.Address
	InputAmount *big.Int

	// NumSamples is how many points to sample per source's curve.
	NumSamples int

	// Sources restricts which venues are sampled; nil means all.
	Sources domain.SourceFilter
}

// SampleResult is everything the batch returned. All series share
// BlockNumber.
type SampleResult struct {
	BlockNumber uint64
	GasLeft     *big.Int

	// Token-per-wei conversion rates for gas pricing. Zero when no pricing
	// route exists for a token.
	OutputAmountPerEth decimal.Decimal
	InputAmountPerEth  decimal.Decimal

	MakerTokenDecimals int
	TakerTokenDecimals int

	DexQuotes    [][]domain.DexSample
	TwoHopQuotes []domain.TwoHopSample
}

// Sampler executes one batched sampling round. Implementations must issue all
// sub-queries in a single call so every sample reflects the same block.
type Sampler interface {
	Execute(ctx context.Context, req *SampleRequest) (*SampleResult, error)
}
