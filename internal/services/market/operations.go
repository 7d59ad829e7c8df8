package market

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/metrics"
	"github.com/hxuan190/quote-engine/internal/services/router"
)

const poolCacheRefreshTimeout = 30 * time.Second

// OptimizerResult is the outcome of one optimization round: the winning path,
// its orders and enough context to report on it.
type OptimizerResult struct {
	Path            *router.Path
	OptimizedOrders []*domain.OptimizedOrder
	SourceFlags     domain.SourceFlags
	AdjustedRate    decimal.Decimal

	Liquidity   *domain.MarketSideLiquidity
	QuoteReport *QuoteReport

	// MakerURIs maps order signatures to the RFQ maker endpoints they came
	// from; empty outside the firm-quote flow.
	MakerURIs map[string]string
}

// OperationUtils is the quoting facade. One instance serves all requests;
// everything request-scoped travels through arguments.
type OperationUtils struct {
	ChainID    int
	GasPrice   *big.Int
	NumSamples int

	Sampler Sampler
	Solver  router.Solver

	FeeSchedule domain.FeeSchedule
	Overhead    domain.ExchangeProxyOverhead
	Policy      ChainPolicy

	PoolsCaches map[domain.Source]PoolsCache

	QuoteRequestor     QuoteRequestor
	FirmQuoteValidator RfqFirmQuoteValidator
}

// NewOperationUtils wires a facade with chain defaults; optional
// collaborators (RFQ, pool caches) are attached afterwards.
func NewOperationUtils(chainID int, gasPrice *big.Int, sampler Sampler, solver router.Solver, numSamples int) *OperationUtils {
	return &OperationUtils{
		ChainID:     chainID,
		GasPrice:    gasPrice,
		NumSamples:  numSamples,
		Sampler:     sampler,
		Solver:      solver,
		FeeSchedule: DefaultFeeSchedule(gasPrice),
		Overhead:    ExchangeProxyOverheadForChain(chainID, gasPrice),
		Policy:      PolicyForChain(chainID),
	}
}

// GetMarketSellLiquidity collects all liquidity for selling takerAmount of
// takerToken into makerToken.
func (o *OperationUtils) GetMarketSellLiquidity(
	ctx context.Context,
	nativeOrders []*domain.NativeOrderWithFillableAmounts,
	makerToken, takerToken common.Address,
	takerAmount *big.Int,
	sources domain.SourceFilter,
) (*domain.MarketSideLiquidity, error) {
	return o.getMarketSideLiquidity(ctx, domain.SideSell, nativeOrders, takerToken, makerToken, takerAmount, sources)
}

// GetMarketBuyLiquidity collects all liquidity for buying makerAmount of
// makerToken with takerToken.
func (o *OperationUtils) GetMarketBuyLiquidity(
	ctx context.Context,
	nativeOrders []*domain.NativeOrderWithFillableAmounts,
	makerToken, takerToken common.Address,
	makerAmount *big.Int,
	sources domain.SourceFilter,
) (*domain.MarketSideLiquidity, error) {
	return o.getMarketSideLiquidity(ctx, domain.SideBuy, nativeOrders, makerToken, takerToken, makerAmount, sources)
}

func (o *OperationUtils) getMarketSideLiquidity(
	ctx context.Context,
	side domain.Side,
	nativeOrders []*domain.NativeOrderWithFillableAmounts,
	inputToken, outputToken common.Address,
	inputAmount *big.Int,
	sources domain.SourceFilter,
) (*domain.MarketSideLiquidity, error) {
	takerToken, makerToken := inputToken, outputToken
	if side == domain.SideBuy {
		takerToken, makerToken = outputToken, inputToken
	}
	o.refreshPoolCaches(takerToken, makerToken)

	start := time.Now()
	result, err := o.Sampler.Execute(ctx, &SampleRequest{
		Side:        side,
		InputToken:  inputToken,
		OutputToken: outputToken,
		InputAmount: inputAmount,
		NumSamples:  o.NumSamples,
		Sources:     sources,
	})
	metrics.SamplerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.DexSourcesSampled.Observe(float64(len(result.DexQuotes)))

	// A zero conversion rate silently disables gas penalties for one token
	// side; surface it loudly but keep quoting.
	if result.OutputAmountPerEth.IsZero() {
		metrics.ZeroConversionRate.WithLabelValues("output").Inc()
		log.Warn().
			Str("token", outputToken.Hex()).
			Str("side", side.String()).
			Msg("[market] zero output-token conversion rate, gas penalties degraded")
	}
	if result.InputAmountPerEth.IsZero() {
		metrics.ZeroConversionRate.WithLabelValues("input").Inc()
		log.Warn().
			Str("token", inputToken.Hex()).
			Str("side", side.String()).
			Msg("[market] zero input-token conversion rate, gas penalties degraded")
	}

	return &domain.MarketSideLiquidity{
		Side:               side,
		InputAmount:        inputAmount,
		InputToken:         inputToken,
		OutputToken:        outputToken,
		OutputAmountPerEth: result.OutputAmountPerEth,
		InputAmountPerEth:  result.InputAmountPerEth,
		QuoteSourceFilters: sources,
		MakerTokenDecimals: result.MakerTokenDecimals,
		TakerTokenDecimals: result.TakerTokenDecimals,
		Quotes: domain.RawQuotes{
			NativeOrders: nativeOrders,
			TwoHopQuotes: result.TwoHopQuotes,
			DexQuotes:    result.DexQuotes,
		},
		IsRfqSupported: o.QuoteRequestor != nil,
		BlockNumber:    result.BlockNumber,
		GasLeft:        result.GasLeft,
	}, nil
}

// refreshPoolCaches kicks stale registry-style pool caches in the background.
// The quote never waits for discovery; it just uses whatever pools are known
// right now.
func (o *OperationUtils) refreshPoolCaches(takerToken, makerToken common.Address) {
	for source, cache := range o.PoolsCaches {
		if cache == nil || cache.IsFresh(takerToken, makerToken) {
			continue
		}
		source, cache := source, cache
		go func() {
			defer func() {
				if r := recover(); r != nil {
					metrics.PoolCacheRefreshes.WithLabelValues(source.String(), "panic").Inc()
					log.Warn().
						Str("source", source.String()).
						Interface("panic", r).
						Msg("[market] pool cache refresh panicked")
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), poolCacheRefreshTimeout)
			defer cancel()
			if err := cache.RefreshPair(ctx, takerToken, makerToken); err != nil {
				metrics.PoolCacheRefreshes.WithLabelValues(source.String(), "error").Inc()
				log.Warn().
					Err(err).
					Str("source", source.String()).
					Msg("[market] pool cache refresh failed")
				return
			}
			metrics.PoolCacheRefreshes.WithLabelValues(source.String(), "ok").Inc()
		}()
	}
}

// GenerateOptimizedOrders runs one optimization round over the liquidity and
// returns ErrNoOptimalPath when nothing routable exists.
func (o *OperationUtils) GenerateOptimizedOrders(ctx context.Context, liquidity *domain.MarketSideLiquidity) (*OptimizerResult, error) {
	return o.generate(ctx, liquidity, "single")
}

func (o *OperationUtils) generate(_ context.Context, liquidity *domain.MarketSideLiquidity, phase string) (*OptimizerResult, error) {
	start := time.Now()
	defer func() {
		metrics.OptimizerDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}()

	optimizer := &router.PathOptimizer{
		Side:        liquidity.Side,
		ChainID:     o.ChainID,
		InputToken:  liquidity.InputToken,
		OutputToken: liquidity.OutputToken,
		FeeSchedule: o.FeeSchedule,
		PenaltyOpts: router.PathPenaltyOpts{
			InputAmountPerEth:     liquidity.InputAmountPerEth,
			OutputAmountPerEth:    liquidity.OutputAmountPerEth,
			ExchangeProxyOverhead: o.Overhead,
		},
		Solver:       o.Solver,
		NumSamples:   o.NumSamples,
		FillAdjustor: router.IdentityFillAdjustor{},
	}

	path, err := optimizer.FindOptimalPathFromSamples(
		liquidity.Quotes.DexQuotes,
		liquidity.Quotes.TwoHopQuotes,
		nativeOrdersForOptimization(liquidity),
		liquidity.InputAmount,
	)
	if err != nil {
		return nil, err
	}
	if path == nil {
		metrics.OptimizerNoPath.WithLabelValues(phase).Inc()
		return nil, router.ErrNoOptimalPath
	}
	metrics.PathFillCount.Observe(float64(len(path.Fills)))

	return &OptimizerResult{
		Path:            path,
		OptimizedOrders: path.Orders(),
		SourceFlags:     path.SourceFlags(),
		AdjustedRate:    path.AdjustedRate(),
		Liquidity:       liquidity,
	}, nil
}

// nativeOrdersForOptimization merges signed orders with indicative quotes
// cast into placeholder orders.
func nativeOrdersForOptimization(liquidity *domain.MarketSideLiquidity) []*domain.NativeOrderWithFillableAmounts {
	orders := make([]*domain.NativeOrderWithFillableAmounts, 0,
		len(liquidity.Quotes.NativeOrders)+len(liquidity.Quotes.RfqtIndicativeQuotes))
	orders = append(orders, liquidity.Quotes.NativeOrders...)
	for _, q := range liquidity.Quotes.RfqtIndicativeQuotes {
		orders = append(orders, q.ToNativeOrder())
	}
	return orders
}

// GetOptimizerResult drives the full two-phase flow. Phase one routes
// on-chain liquidity only; its result prices the RFQ round trip. Phase two
// re-optimizes with maker liquidity folded in and fully replaces the phase-one
// answer. A quoting failure in phase one is survivable (makers may still
// quote); a failure in phase two is final.
func (o *OperationUtils) GetOptimizerResult(ctx context.Context, liquidity *domain.MarketSideLiquidity, rfqOpts *RfqOptions) (*OptimizerResult, error) {
	result, err := o.generate(ctx, liquidity, "phase1")
	if err != nil && !errors.Is(err, router.ErrNoOptimalPath) {
		return nil, err
	}

	finalLiquidity := liquidity
	makerURIs := map[string]string{}

	if o.shouldRequestRfq(liquidity, rfqOpts) {
		opts := *rfqOpts
		opts.AltRfqAssetOfferings = filterAltRfqOfferings(
			opts.AltRfqAssetOfferings, liquidity.MakerToken(), liquidity.TakerToken())
		req := &RfqRequest{
			MakerToken:      liquidity.MakerToken(),
			TakerToken:      liquidity.TakerToken(),
			AssetFillAmount: liquidity.InputAmount,
			Side:            liquidity.Side,
			Options:         opts,
		}
		if result != nil {
			req.ComparisonPrice = result.AdjustedRate
		}

		if rfqOpts.IsIndicative {
			quotes := o.requestIndicative(ctx, req)
			if len(quotes) > 0 {
				finalLiquidity = liquidity.WithRfqLiquidity(nil, quotes, pathSources(result))
				result, err = o.generate(ctx, finalLiquidity, "phase2")
				if err != nil {
					return nil, err
				}
			}
		} else {
			orders := o.requestAndValidateFirm(ctx, req, makerURIs)
			if len(orders) > 0 {
				finalLiquidity = liquidity.WithRfqLiquidity(orders, nil, nil)
				result, err = o.generate(ctx, finalLiquidity, "phase2")
				if err != nil {
					return nil, err
				}
			}
		}
	}

	if result == nil {
		return nil, router.ErrNoOptimalPath
	}
	result.Liquidity = finalLiquidity
	result.MakerURIs = makerURIs
	result.QuoteReport = buildQuoteReport(finalLiquidity, result.Path, makerURIs)
	return result, nil
}

func (o *OperationUtils) shouldRequestRfq(liquidity *domain.MarketSideLiquidity, rfqOpts *RfqOptions) bool {
	if rfqOpts == nil || !liquidity.IsRfqSupported || o.QuoteRequestor == nil {
		return false
	}
	// Maker orders enter the path as Native fills, so a filter that excludes
	// Native rules out the round trip entirely.
	if !liquidity.QuoteSourceFilters.IsAllowed(domain.SourceNative) {
		return false
	}
	if o.Policy != nil && o.Policy.SkipRfq(liquidity.Side, liquidity.InputAmount) {
		log.Debug().
			Str("side", liquidity.Side.String()).
			Str("input", liquidity.InputAmount.String()).
			Msg("[market] chain policy skipped rfq")
		return false
	}
	return true
}

func (o *OperationUtils) requestIndicative(ctx context.Context, req *RfqRequest) []domain.IndicativeQuote {
	quotes, err := o.QuoteRequestor.RequestIndicativeQuotes(ctx, req)
	if err != nil {
		metrics.RfqRequests.WithLabelValues("indicative", "error").Inc()
		log.Warn().Err(err).Msg("[market] indicative rfq round trip failed")
		return nil
	}
	metrics.RfqRequests.WithLabelValues("indicative", "ok").Inc()
	metrics.RfqQuotesReceived.WithLabelValues("indicative").Add(float64(len(quotes)))
	return quotes
}

// requestAndValidateFirm fetches firm quotes and resolves how much of each is
// actually fillable. Without a validator, firm quotes are trusted whole.
func (o *OperationUtils) requestAndValidateFirm(ctx context.Context, req *RfqRequest, makerURIs map[string]string) []*domain.NativeOrderWithFillableAmounts {
	quotes, err := o.QuoteRequestor.RequestFirmQuotes(ctx, req)
	if err != nil {
		metrics.RfqRequests.WithLabelValues("firm", "error").Inc()
		log.Warn().Err(err).Msg("[market] firm rfq round trip failed")
		return nil
	}
	metrics.RfqRequests.WithLabelValues("firm", "ok").Inc()
	metrics.RfqQuotesReceived.WithLabelValues("firm").Add(float64(len(quotes)))

	orders := make([]*domain.NativeOrderWithFillableAmounts, 0, len(quotes))
	for _, q := range quotes {
		if q.Order == nil {
			continue
		}
		makerURIs[q.Order.Order.Signature] = q.MakerURI
		orders = append(orders, q.Order)
	}

	if o.FirmQuoteValidator == nil || len(orders) == 0 {
		return orders
	}

	raw := make([]domain.NativeOrder, len(orders))
	for i, ord := range orders {
		raw[i] = ord.Order
	}
	fillable, err := o.FirmQuoteValidator.GetTakerFillableAmounts(ctx, raw)
	if err != nil || len(fillable) != len(orders) {
		log.Warn().Err(err).Msg("[market] firm quote validation unavailable, trusting quotes")
		return orders
	}

	validated := orders[:0]
	for i, ord := range orders {
		if fillable[i] == nil || fillable[i].Sign() == 0 {
			metrics.RfqQuotesRejected.WithLabelValues("unfillable").Inc()
			delete(makerURIs, ord.Order.Signature)
			continue
		}
		if fillable[i].Cmp(ord.FillableTakerAmount) < 0 {
			scaled := *ord
			scaled.FillableTakerAmount = fillable[i]
			scaled.FillableMakerAmount = scaleMakerAmount(ord, fillable[i])
			validated = append(validated, &scaled)
			continue
		}
		validated = append(validated, ord)
	}
	return validated
}

// scaleMakerAmount shrinks the maker side proportionally to a reduced taker
// fillable amount, rounding down so the maker is never over-promised.
func scaleMakerAmount(order *domain.NativeOrderWithFillableAmounts, takerFillable *big.Int) *big.Int {
	if order.FillableTakerAmount == nil || order.FillableTakerAmount.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(order.FillableMakerAmount, takerFillable)
	return out.Div(out, order.FillableTakerAmount)
}

// pathSources collects the dex sources used by a result's path so phase two
// can skip re-optimizing venues phase one already discarded. A nil result
// places no restriction.
func pathSources(result *OptimizerResult) domain.SourceFilter {
	if result == nil || result.Path == nil {
		return nil
	}
	filter := make(domain.SourceFilter)
	for _, fill := range result.Path.Fills {
		filter[fill.Source] = struct{}{}
		if fill.Source == domain.SourceMultiHop {
			if d, ok := fill.Data.(*domain.TwoHopFillData); ok {
				filter[d.FirstHop.Source] = struct{}{}
				filter[d.SecondHop.Source] = struct{}{}
			}
		}
	}
	return filter
}
