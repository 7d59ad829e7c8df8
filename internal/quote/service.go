// Package quote is the top-level facade service: it owns the market
// operations wiring and exposes the one-call quoting API the HTTP layer
// serves.
package quote

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/quote-engine/internal/adapters/sampler"
	"github.com/hxuan190/quote-engine/internal/config"
	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/metrics"
	"github.com/hxuan190/quote-engine/internal/services/market"
	"github.com/hxuan190/quote-engine/internal/services/router"
)

const QUOTE_SERVICE = "quote-service"

// Error aliases
var (
	ErrNoOptimalPath   = router.ErrNoOptimalPath
	ErrInvalidSlippage = router.ErrInvalidSlippage
)

const poolsCacheTTL = 10 * time.Minute

// QuoteRequest is one quoting call. Exactly one of SellAmount/BuyAmount must
// be set.
type QuoteRequest struct {
	SellToken common.Address
	BuyToken  common.Address

	SellAmount *big.Int
	BuyAmount  *big.Int

	// Slippage is the maximum acceptable slippage in [0, 1].
	Slippage float64

	// Sources restricts the venues considered; nil allows all.
	Sources domain.SourceFilter

	// Rfq enables the maker round trip for this request.
	Rfq *market.RfqOptions
}

// QuoteResult pairs the optimizer's answer with slippage-protected orders
// and resolved sell/buy amounts.
type QuoteResult struct {
	Side       domain.Side
	SellAmount *big.Int
	BuyAmount  *big.Int

	Result *market.OptimizerResult
	Orders domain.OrdersByType
}

type Service struct {
	container.BaseDIInstance

	config     *config.QuoteConfig
	samplerSvc *sampler.Service
	ops        *market.OperationUtils
}

func (svc *Service) ID() string {
	return QUOTE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.config = c.GetConfig(config.QUOTE_CONFIG_KEY).(*config.QuoteConfig)
	svc.samplerSvc = c.Instance(sampler.SAMPLER_SERVICE).(*sampler.Service)

	gasPrice := new(big.Int).Mul(big.NewInt(svc.config.GasPriceGwei), big.NewInt(1e9))
	svc.ops = market.NewOperationUtils(
		svc.config.ChainID,
		gasPrice,
		svc.samplerSvc.Sampler(),
		router.NewGreedySolver(),
		svc.config.NumSamples,
	)
	// Registry-style sources cannot enumerate pools on demand; give them
	// background refresh.
	svc.ops.PoolsCaches = map[domain.Source]market.PoolsCache{
		domain.SourceBalancer:   sampler.NewPoolsCache(svc.samplerSvc, domain.SourceBalancer, poolsCacheTTL),
		domain.SourceBalancerV2: sampler.NewPoolsCache(svc.samplerSvc, domain.SourceBalancerV2, poolsCacheTTL),
	}
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

// SetQuoteRequestor attaches an RFQ maker-network client. Without one, every
// quote is on-chain only.
func (svc *Service) SetQuoteRequestor(r market.QuoteRequestor, v market.RfqFirmQuoteValidator) {
	svc.ops.QuoteRequestor = r
	svc.ops.FirmQuoteValidator = v
}

// Operations exposes the underlying facade, mainly for tests and custom
// wiring.
func (svc *Service) Operations() *market.OperationUtils {
	return svc.ops
}

// GetQuote runs the full pipeline: liquidity collection, (two-phase)
// optimization and slippage application.
func (svc *Service) GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResult, error) {
	side := domain.SideSell
	if req.SellAmount == nil {
		side = domain.SideBuy
	}

	start := time.Now()
	result, err := svc.getQuote(ctx, side, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.QuoteRequests.WithLabelValues(side.String(), status).Inc()
	metrics.QuoteDuration.WithLabelValues(side.String()).Observe(time.Since(start).Seconds())
	return result, err
}

func (svc *Service) getQuote(ctx context.Context, side domain.Side, req *QuoteRequest) (*QuoteResult, error) {
	var liquidity *domain.MarketSideLiquidity
	var err error
	if side == domain.SideSell {
		liquidity, err = svc.ops.GetMarketSellLiquidity(ctx, nil, req.BuyToken, req.SellToken, req.SellAmount, req.Sources)
	} else {
		liquidity, err = svc.ops.GetMarketBuyLiquidity(ctx, nil, req.BuyToken, req.SellToken, req.BuyAmount, req.Sources)
	}
	if err != nil {
		return nil, err
	}

	rfqOpts := req.Rfq
	if !svc.config.RfqEnabled {
		rfqOpts = nil
	}
	result, err := svc.ops.GetOptimizerResult(ctx, liquidity, rfqOpts)
	if err != nil {
		return nil, err
	}

	orders, err := result.Path.SlippedOrdersByType(req.Slippage)
	if err != nil {
		return nil, err
	}

	size := result.Path.AdjustedSize()
	out := &QuoteResult{
		Side:   side,
		Result: result,
		Orders: orders,
	}
	if side == domain.SideSell {
		out.SellAmount, out.BuyAmount = size.Input, size.Output
	} else {
		out.SellAmount, out.BuyAmount = size.Output, size.Input
	}
	return out, nil
}
