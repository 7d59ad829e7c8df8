package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/http/httputil"
	"github.com/hxuan190/quote-engine/internal/quote"
)

type SourcesHandler struct {
	quoteSvc *quote.Service
}

func NewSourcesHandler(quoteSvc *quote.Service) *SourcesHandler {
	return &SourcesHandler{quoteSvc: quoteSvc}
}

func (h *SourcesHandler) Root() string {
	return "/sources"
}

func (h *SourcesHandler) SetRoutes(api *gin.RouterGroup) {
	api.GET("", h.listSources)
}

// SourceInfo describes one routable liquidity source.
type SourceInfo struct {
	Name string `json:"name" example:"Uniswap_V3"`
	// VIP sources can settle through the cheap direct route on this chain.
	VIP bool `json:"vip" example:"true"`
}

// @Summary List liquidity sources
// @Description List every source the optimizer can route through, with its
// @Description VIP status on the configured chain.
// @Tags sources
// @Produce json
// @Success 200 {object} httputil.Response
// @Router /api/v1/sources [get]
func (h *SourcesHandler) listSources(c *gin.Context) {
	vip := domain.VIPSourcesForChain(h.quoteSvc.Operations().ChainID)

	out := make([]SourceInfo, 0, domain.NumSources)
	for s := domain.Source(0); int(s) < domain.NumSources; s++ {
		_, isVIP := vip[s]
		out = append(out, SourceInfo{Name: s.String(), VIP: isVIP})
	}
	httputil.Success(c, out)
}
