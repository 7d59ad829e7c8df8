// Package sampler provides the in-process liquidity sampler: it prices quote
// requests against the cached pool set instead of issuing on-chain batch
// calls, which keeps the quoting path self-contained and deterministic.
package sampler

import (
	"context"
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/services/builder"
	"github.com/hxuan190/quote-engine/internal/services/market"
)

// SyntheticSampler prices requests against cached constant-product pools. It
// implements market.Sampler.
type SyntheticSampler struct {
	mu    sync.RWMutex
	pools []*domain.Pool

	// tokenPricesPerEth maps token address to base units per wei, used for
	// gas-penalty conversion. Missing tokens price at zero.
	tokenPricesPerEth map[common.Address]decimal.Decimal

	// tokenDecimals maps token address to its ERC-20 decimals; unknown tokens
	// default to 18.
	tokenDecimals map[common.Address]int

	// intermediateTokens are the candidates for two-hop routing.
	intermediateTokens []common.Address

	blockNumber atomic.Uint64
}

func NewSyntheticSampler() *SyntheticSampler {
	return &SyntheticSampler{
		tokenPricesPerEth: make(map[common.Address]decimal.Decimal),
		tokenDecimals:     make(map[common.Address]int),
	}
}

// SetPools replaces the pool set.
func (s *SyntheticSampler) SetPools(pools []*domain.Pool) {
	s.mu.Lock()
	s.pools = pools
	s.mu.Unlock()
}

// AddPool appends one pool.
func (s *SyntheticSampler) AddPool(pool *domain.Pool) {
	s.mu.Lock()
	s.pools = append(s.pools, pool)
	s.mu.Unlock()
}

// Pools returns a snapshot of the current pool set.
func (s *SyntheticSampler) Pools() []*domain.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Pool, len(s.pools))
	copy(out, s.pools)
	return out
}

// SetTokenPrice records a token's price in base units per wei.
func (s *SyntheticSampler) SetTokenPrice(token common.Address, perEth decimal.Decimal) {
	s.mu.Lock()
	s.tokenPricesPerEth[token] = perEth
	s.mu.Unlock()
}

// SetTokenDecimals records a token's ERC-20 decimals.
func (s *SyntheticSampler) SetTokenDecimals(token common.Address, decimals int) {
	s.mu.Lock()
	s.tokenDecimals[token] = decimals
	s.mu.Unlock()
}

// SetIntermediateTokens replaces the two-hop intermediate candidates.
func (s *SyntheticSampler) SetIntermediateTokens(tokens []common.Address) {
	s.mu.Lock()
	s.intermediateTokens = tokens
	s.mu.Unlock()
}

// Execute samples every cached pool for the pair in one pass. All series
// share a block number bumped per call, mirroring a batched on-chain round.
// Per-pool series are computed concurrently; output order follows pool order
// so repeated calls stay deterministic.
func (s *SyntheticSampler) Execute(ctx context.Context, req *market.SampleRequest) (*market.SampleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	takerToken, makerToken := req.InputToken, req.OutputToken
	if req.Side == domain.SideBuy {
		takerToken, makerToken = req.OutputToken, req.InputToken
	}

	result := &market.SampleResult{
		BlockNumber:        s.blockNumber.Add(1),
		GasLeft:            big.NewInt(30e6),
		OutputAmountPerEth: s.tokenPricesPerEth[req.OutputToken],
		InputAmountPerEth:  s.tokenPricesPerEth[req.InputToken],
		MakerTokenDecimals: s.decimalsFor(makerToken),
		TakerTokenDecimals: s.decimalsFor(takerToken),
	}

	var matching []*domain.Pool
	for _, pool := range s.pools {
		if !pool.HasPair(req.InputToken, req.OutputToken) {
			continue
		}
		if !req.Sources.IsAllowed(pool.Source) {
			continue
		}
		matching = append(matching, pool)
	}

	series := make([][]domain.DexSample, len(matching))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, pool := range matching {
		i, pool := i, pool
		g.Go(func() error {
			series[i] = s.samplePool(pool, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, ss := range series {
		if len(ss) > 0 {
			result.DexQuotes = append(result.DexQuotes, ss)
		}
	}

	result.TwoHopQuotes = s.sampleTwoHop(req)
	return result, nil
}

func (s *SyntheticSampler) decimalsFor(token common.Address) int {
	if d, ok := s.tokenDecimals[token]; ok {
		return d
	}
	return 18
}

// samplePool produces an ascending series over [amount/n .. amount]. Points
// the pool cannot serve come back zero-output, matching how a reverted
// on-chain sample reports.
func (s *SyntheticSampler) samplePool(pool *domain.Pool, req *market.SampleRequest) []domain.DexSample {
	n := req.NumSamples
	if n < 1 {
		n = 1
	}
	series := make([]domain.DexSample, 0, n)
	for i := 1; i <= n; i++ {
		input := new(big.Int).Mul(req.InputAmount, big.NewInt(int64(i)))
		input.Div(input, big.NewInt(int64(n)))
		if input.Sign() == 0 {
			continue
		}
		output := s.quotePool(pool, req.Side, req.InputToken, input)
		series = append(series, domain.DexSample{
			Source: pool.Source,
			Input:  input,
			Output: output,
			Data:   s.fillDataFor(pool, req.InputToken, req.OutputToken, req.Side),
		})
	}
	return series
}

// quotePool evaluates one constant-product point. Sells solve forward; buys
// invert the curve and return the required taker amount, or zero when the
// pool cannot produce the requested amount.
func (s *SyntheticSampler) quotePool(pool *domain.Pool, side domain.Side, inputToken common.Address, input *big.Int) *big.Int {
	reserveIn, reserveOut := pool.Reserve0, pool.Reserve1
	if side == domain.SideSell {
		if pool.Token1 == inputToken {
			reserveIn, reserveOut = pool.Reserve1, pool.Reserve0
		}
	} else {
		// Buying inputToken's counterpart: the "in" reserve is the taker side.
		if pool.Token0 == inputToken {
			reserveIn, reserveOut = pool.Reserve1, pool.Reserve0
		}
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return big.NewInt(0)
	}

	feeNum := big.NewInt(int64(10000 - int(pool.FeeBps)))
	feeDen := big.NewInt(10000)

	if side == domain.SideSell {
		// out = reserveOut * in * (1-fee) / (reserveIn + in * (1-fee))
		inWithFee := new(big.Int).Mul(input, feeNum)
		num := new(big.Int).Mul(reserveOut, inWithFee)
		den := new(big.Int).Mul(reserveIn, feeDen)
		den.Add(den, inWithFee)
		if den.Sign() == 0 {
			return big.NewInt(0)
		}
		return num.Div(num, den)
	}

	// Buy: in = reserveIn * out / ((reserveOut - out) * (1-fee)), rounded up.
	if input.Cmp(reserveOut) >= 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(reserveIn, input)
	num.Mul(num, feeDen)
	den := new(big.Int).Sub(reserveOut, input)
	den.Mul(den, feeNum)
	if den.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Add(num, new(big.Int).Sub(den, big.NewInt(1)))
	return out.Div(out, den)
}

// fillDataFor synthesizes the adapter payload matching the pool's source
// family.
func (s *SyntheticSampler) fillDataFor(pool *domain.Pool, inputToken, outputToken common.Address, side domain.Side) interface{} {
	takerToken, makerToken := inputToken, outputToken
	if side == domain.SideBuy {
		takerToken, makerToken = outputToken, inputToken
	}
	switch {
	case builder.UsesRouterPath(pool.Source):
		return &domain.UniswapV2FillData{
			Router:    pool.Address,
			TokenPath: []common.Address{takerToken, makerToken},
		}
	case builder.UsesStableFlag(pool.Source):
		return &domain.VelodromeFillData{Router: pool.Address, Stable: pool.Stable}
	case builder.UsesCurveIndices(pool.Source):
		from, to := int64(0), int64(1)
		if pool.Token1 == takerToken {
			from, to = 1, 0
		}
		return &domain.CurveFillData{PoolAddress: pool.Address, FromTokenIdx: from, ToTokenIdx: to}
	default:
		return &domain.PoolFillData{PoolAddress: pool.Address}
	}
}

// sampleTwoHop tries every intermediate token with the best single pool per
// leg, producing at most one sample per intermediate at the full input.
func (s *SyntheticSampler) sampleTwoHop(req *market.SampleRequest) []domain.TwoHopSample {
	if req.Side != domain.SideSell {
		// Inverting two constant-product legs for exact-output costs more
		// precision than the route is worth; buys route single-hop only here.
		return nil
	}

	var out []domain.TwoHopSample
	for _, mid := range s.intermediateTokens {
		if mid == req.InputToken || mid == req.OutputToken {
			continue
		}
		firstPool, firstOut := s.bestHop(req, req.InputToken, mid, req.InputAmount)
		if firstPool == nil || firstOut.Sign() == 0 {
			continue
		}
		secondPool, secondOut := s.bestHop(req, mid, req.OutputToken, firstOut)
		if secondPool == nil || secondOut.Sign() == 0 {
			continue
		}
		out = append(out, domain.TwoHopSample{
			Input:  req.InputAmount,
			Output: secondOut,
			Data: &domain.TwoHopFillData{
				FirstHop: domain.DexSample{
					Source: firstPool.Source,
					Input:  req.InputAmount,
					Output: firstOut,
					Data:   s.fillDataFor(firstPool, req.InputToken, mid, domain.SideSell),
				},
				SecondHop: domain.DexSample{
					Source: secondPool.Source,
					Input:  firstOut,
					Output: secondOut,
					Data:   s.fillDataFor(secondPool, mid, req.OutputToken, domain.SideSell),
				},
				IntermediateToken: mid,
			},
		})
	}
	return out
}

func (s *SyntheticSampler) bestHop(req *market.SampleRequest, from, to common.Address, input *big.Int) (*domain.Pool, *big.Int) {
	var bestPool *domain.Pool
	bestOut := big.NewInt(0)
	for _, pool := range s.pools {
		if !pool.HasPair(from, to) {
			continue
		}
		if !req.Sources.IsAllowed(pool.Source) {
			continue
		}
		out := s.quotePool(pool, domain.SideSell, from, input)
		if out.Cmp(bestOut) > 0 {
			bestPool, bestOut = pool, out
		}
	}
	return bestPool, bestOut
}
