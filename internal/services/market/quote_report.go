package market

import (
	"math/big"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/services/router"
)

// QuoteReportEntry is one piece of liquidity that was considered or
// delivered, flattened for telemetry.
type QuoteReportEntry struct {
	Source      domain.Source `json:"source"`
	Input       *big.Int      `json:"input"`
	Output      *big.Int      `json:"output"`
	IsRfq       bool          `json:"isRfq"`
	MakerURI    string        `json:"makerUri,omitempty"`
	FillPathID  string        `json:"fillPathId,omitempty"`
}

// QuoteReport records what the optimizer saw versus what it chose; consumers
// use it to audit routing quality per request.
type QuoteReport struct {
	SourcesConsidered []QuoteReportEntry `json:"sourcesConsidered"`
	SourcesDelivered  []QuoteReportEntry `json:"sourcesDelivered"`
}

// buildQuoteReport summarizes the considered liquidity (best sample per dex
// source plus every native order) and the winning path's fills.
func buildQuoteReport(liquidity *domain.MarketSideLiquidity, path *router.Path, makerURIs map[string]string) *QuoteReport {
	report := &QuoteReport{}

	for _, series := range liquidity.Quotes.DexQuotes {
		if len(series) == 0 {
			continue
		}
		best := series[len(series)-1]
		report.SourcesConsidered = append(report.SourcesConsidered, QuoteReportEntry{
			Source: best.Source,
			Input:  best.Input,
			Output: best.Output,
		})
	}
	for _, order := range liquidity.Quotes.NativeOrders {
		report.SourcesConsidered = append(report.SourcesConsidered, QuoteReportEntry{
			Source:   domain.SourceNative,
			Input:    order.FillableTakerAmount,
			Output:   order.FillableMakerAmount,
			IsRfq:    order.Order.Type != domain.NativeOrderTypeLimit,
			MakerURI: makerURIs[order.Order.Signature],
		})
	}

	if path != nil {
		for _, fill := range path.Fills {
			entry := QuoteReportEntry{
				Source:     fill.Source,
				Input:      fill.Input,
				Output:     fill.Output,
				FillPathID: fill.SourcePathID,
			}
			if fill.Source == domain.SourceNative {
				if order, ok := fill.Data.(*domain.NativeOrderWithFillableAmounts); ok {
					entry.IsRfq = order.Order.Type != domain.NativeOrderTypeLimit
					entry.MakerURI = makerURIs[order.Order.Signature]
				}
			}
			report.SourcesDelivered = append(report.SourcesDelivered, entry)
		}
	}
	return report
}
