package http

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/http/httputil"
	"github.com/hxuan190/quote-engine/internal/quote"
	"github.com/hxuan190/quote-engine/internal/services/market"
)

type QuoteHandler struct {
	quoteSvc *quote.Service
}

func NewQuoteHandler(quoteSvc *quote.Service) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc}
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

func (h *QuoteHandler) SetRoutes(api *gin.RouterGroup) {
	api.GET("", h.getQuote)
}

// QuoteRequest represents the parameters for requesting a swap quote
type QuoteRequest struct {
	// Token being sold (hex address)
	// Example: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2" (WETH)
	SellToken string `form:"sellToken" binding:"required" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Token being bought (hex address)
	// Example: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48" (USDC)
	BuyToken string `form:"buyToken" binding:"required" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`

	// Exact amount to sell, in base units. Exactly one of sellAmount/buyAmount
	// must be set.
	SellAmount string `form:"sellAmount" example:"1000000000000000000"`

	// Exact amount to buy, in base units.
	BuyAmount string `form:"buyAmount" example:"1000000"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Default: 50 bps (0.5%)
	SlippageBps uint16 `form:"slippageBps" example:"50"`

	// Comma-free repeated source names to restrict routing, e.g.
	// ?source=Uniswap_V3&source=Curve. Empty allows all sources.
	Sources []string `form:"source" example:"Uniswap_V3"`
}

// OrderInfo describes one executable order of the quote.
type OrderInfo struct {
	Type        string `json:"type" enums:"Bridge,Native" example:"Bridge"`
	Source      string `json:"source" example:"Uniswap_V3"`
	MakerToken  string `json:"makerToken" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`
	TakerToken  string `json:"takerToken" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`
	MakerAmount string `json:"makerAmount" example:"1745320000"`
	TakerAmount string `json:"takerAmount" example:"1000000000000000000"`
}

// QuoteResponse contains the optimized quote.
type QuoteResponse struct {
	SellToken string `json:"sellToken" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`
	BuyToken  string `json:"buyToken" example:"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"`

	// Resolved amounts after optimization, in base units.
	SellAmount string `json:"sellAmount" example:"1000000000000000000"`
	BuyAmount  string `json:"buyAmount" example:"1745320000"`

	// Gas-adjusted price (buy units per sell unit on sells, inverted on buys).
	AdjustedPrice string `json:"adjustedPrice" example:"1745.32"`

	// Sources participating in the winning path.
	Sources []string `json:"sources" example:"Uniswap_V3,Curve"`

	// Orders to execute, slippage protection applied.
	Orders []OrderInfo `json:"orders"`

	// Routing audit trail: what was considered versus delivered.
	Report *market.QuoteReport `json:"report,omitempty"`
}

type parsedQuoteRequest struct {
	raw *QuoteRequest
	req *quote.QuoteRequest
}

func (h *QuoteHandler) parseQuoteRequest(c *gin.Context) (*parsedQuoteRequest, bool) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return nil, false
	}

	if !common.IsHexAddress(req.SellToken) {
		httputil.BadRequest(c, "invalid sellToken address")
		return nil, false
	}
	if !common.IsHexAddress(req.BuyToken) {
		httputil.BadRequest(c, "invalid buyToken address")
		return nil, false
	}

	if (req.SellAmount == "") == (req.BuyAmount == "") {
		httputil.BadRequest(c, "exactly one of sellAmount or buyAmount must be set")
		return nil, false
	}

	parsed := &quote.QuoteRequest{
		SellToken: common.HexToAddress(req.SellToken),
		BuyToken:  common.HexToAddress(req.BuyToken),
	}
	if req.SellAmount != "" {
		amount, ok := new(big.Int).SetString(req.SellAmount, 10)
		if !ok || amount.Sign() <= 0 {
			httputil.BadRequest(c, "invalid sellAmount: must be a positive integer")
			return nil, false
		}
		parsed.SellAmount = amount
	} else {
		amount, ok := new(big.Int).SetString(req.BuyAmount, 10)
		if !ok || amount.Sign() <= 0 {
			httputil.BadRequest(c, "invalid buyAmount: must be a positive integer")
			return nil, false
		}
		parsed.BuyAmount = amount
	}

	slippageBps := req.SlippageBps
	if slippageBps == 0 {
		slippageBps = 50
	}
	if slippageBps > 10000 {
		httputil.BadRequest(c, "invalid slippageBps: must not exceed 10000")
		return nil, false
	}
	parsed.Slippage = float64(slippageBps) / 10000

	if len(req.Sources) > 0 {
		filter := make(domain.SourceFilter)
		for _, name := range req.Sources {
			source, ok := sourceByName(name)
			if !ok {
				httputil.BadRequest(c, "unknown source: "+name)
				return nil, false
			}
			filter[source] = struct{}{}
		}
		parsed.Sources = filter
	}

	return &parsedQuoteRequest{raw: &req, req: parsed}, true
}

func sourceByName(name string) (domain.Source, bool) {
	for s := domain.Source(0); int(s) < domain.NumSources; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

func buildQuoteResponse(raw *QuoteRequest, result *quote.QuoteResult) QuoteResponse {
	orders := result.Orders.All()
	orderViews := make([]OrderInfo, 0, len(orders))
	for _, order := range orders {
		orderViews = append(orderViews, OrderInfo{
			Type:        orderTypeName(order.Type),
			Source:      order.Source.String(),
			MakerToken:  order.MakerToken.Hex(),
			TakerToken:  order.TakerToken.Hex(),
			MakerAmount: order.MakerAmount.String(),
			TakerAmount: order.TakerAmount.String(),
		})
	}

	seen := make(map[domain.Source]struct{})
	var sources []string
	for _, fill := range result.Result.Path.Fills {
		if _, ok := seen[fill.Source]; ok {
			continue
		}
		seen[fill.Source] = struct{}{}
		sources = append(sources, fill.Source.String())
	}

	return QuoteResponse{
		SellToken:     raw.SellToken,
		BuyToken:      raw.BuyToken,
		SellAmount:    result.SellAmount.String(),
		BuyAmount:     result.BuyAmount.String(),
		AdjustedPrice: result.Result.AdjustedRate.String(),
		Sources:       sources,
		Orders:        orderViews,
		Report:        result.Result.QuoteReport,
	}
}

func orderTypeName(t domain.OrderType) string {
	if t == domain.OrderTypeNative {
		return "Native"
	}
	return "Bridge"
}

// @Summary Get swap quote
// @Description Find the best execution across all liquidity sources for a token pair.
// @Description The optimizer may split the trade across multiple venues and route
// @Description through an intermediate token when that beats any direct route.
// @Description
// @Description **Amount Format:**
// @Description - Use base token units (wei-style integers)
// @Description - Set exactly one of sellAmount (sell side) or buyAmount (buy side)
// @Tags quote
// @Produce json
// @Param sellToken query string true "Token being sold (hex address)"
// @Param buyToken query string true "Token being bought (hex address)"
// @Param sellAmount query string false "Exact sell amount in base units"
// @Param buyAmount query string false "Exact buy amount in base units"
// @Param slippageBps query int false "Slippage tolerance in basis points. Default: 50" default(50)
// @Param source query []string false "Restrict to these sources (repeatable)"
// @Success 200 {object} QuoteResponse "Optimized quote with executable orders"
// @Failure 400 {object} httputil.Response "Invalid request parameters"
// @Failure 404 {object} httputil.Response "No viable path for the pair and size"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	parsed, ok := h.parseQuoteRequest(c)
	if !ok {
		return
	}

	result, err := h.quoteSvc.GetQuote(c.Request.Context(), parsed.req)
	if err != nil {
		if errors.Is(err, quote.ErrNoOptimalPath) {
			httputil.NotFound(c, "no path found: "+err.Error())
			return
		}
		httputil.FromError(c, err)
		return
	}

	httputil.Success(c, buildQuoteResponse(parsed.raw, result))
}
