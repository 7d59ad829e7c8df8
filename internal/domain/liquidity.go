package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// DexSample is one sampled point on a source's bonding curve: Input base units
// in, Output base units out. Samples for one source arrive sorted ascending by
// input.
type DexSample struct {
	Source Source
	Input  *big.Int
	Output *big.Int
	Data   interface{}
}

// TwoHopSample is a sampled synthetic route through an intermediate token.
// A reverted or unavailable hop leaves Output nil/zero.
type TwoHopSample struct {
	Input  *big.Int
	Output *big.Int
	Data   *TwoHopFillData
}

// IndicativeQuote is a non-binding RFQ price signal.
type IndicativeQuote struct {
	MakerToken  common.Address
	TakerToken  common.Address
	MakerAmount *big.Int
	TakerAmount *big.Int
	Expiry      uint64
}

// ToNativeOrder casts an indicative quote into a placeholder RFQ order so it
// can participate in optimization alongside real orders.
func (q IndicativeQuote) ToNativeOrder() *NativeOrderWithFillableAmounts {
	return &NativeOrderWithFillableAmounts{
		Order: NativeOrder{
			Type:                NativeOrderTypeRfq,
			MakerToken:          q.MakerToken,
			TakerToken:          q.TakerToken,
			MakerAmount:         q.MakerAmount,
			TakerAmount:         q.TakerAmount,
			TakerTokenFeeAmount: big.NewInt(0),
			Expiry:              q.Expiry,
		},
		FillableMakerAmount:    q.MakerAmount,
		FillableTakerAmount:    q.TakerAmount,
		FillableTakerFeeAmount: big.NewInt(0),
	}
}

// SourceFilter is the set of sources a request is allowed to touch. A nil
// filter allows everything.
type SourceFilter map[Source]struct{}

func NewSourceFilter(sources ...Source) SourceFilter {
	f := make(SourceFilter, len(sources))
	for _, s := range sources {
		f[s] = struct{}{}
	}
	return f
}

// IsAllowed reports whether s passes the filter.
func (f SourceFilter) IsAllowed(s Source) bool {
	if f == nil {
		return true
	}
	_, ok := f[s]
	return ok
}

// RawQuotes is every piece of liquidity collected for one request.
type RawQuotes struct {
	NativeOrders         []*NativeOrderWithFillableAmounts
	RfqtIndicativeQuotes []IndicativeQuote
	TwoHopQuotes         []TwoHopSample
	// DexQuotes holds one ascending sample series per source.
	DexQuotes [][]DexSample
}

// MarketSideLiquidity is the liquidity snapshot for one quote request. The
// two-phase RFQ flow derives an augmented copy rather than mutating one
// snapshot in place.
type MarketSideLiquidity struct {
	Side        Side
	InputAmount *big.Int
	InputToken  common.Address
	OutputToken common.Address

	// Conversion rates are output/input token base units per wei. A zero rate
	// is a data-quality signal, not an error; penalty math falls back to the
	// other rate.
	OutputAmountPerEth decimal.Decimal
	InputAmountPerEth  decimal.Decimal

	QuoteSourceFilters SourceFilter

	MakerTokenDecimals int
	TakerTokenDecimals int

	Quotes RawQuotes

	IsRfqSupported bool
	BlockNumber    uint64

	GasLeft *big.Int
}

// MakerToken and TakerToken resolve the pair from the side convention:
// selling trades taker token in for maker token out.
func (m *MarketSideLiquidity) MakerToken() common.Address {
	if m.Side == SideSell {
		return m.OutputToken
	}
	return m.InputToken
}

func (m *MarketSideLiquidity) TakerToken() common.Address {
	if m.Side == SideSell {
		return m.InputToken
	}
	return m.OutputToken
}

// WithRfqLiquidity derives the phase-2 snapshot: extra native orders are
// prepended, indicative quotes appended, and dex quotes restricted to
// allowedSources (nil keeps all). The receiver is left untouched.
func (m *MarketSideLiquidity) WithRfqLiquidity(
	nativeOrders []*NativeOrderWithFillableAmounts,
	indicatives []IndicativeQuote,
	allowedSources SourceFilter,
) *MarketSideLiquidity {
	out := *m

	out.Quotes.NativeOrders = make([]*NativeOrderWithFillableAmounts, 0, len(nativeOrders)+len(m.Quotes.NativeOrders))
	out.Quotes.NativeOrders = append(out.Quotes.NativeOrders, nativeOrders...)
	out.Quotes.NativeOrders = append(out.Quotes.NativeOrders, m.Quotes.NativeOrders...)

	out.Quotes.RfqtIndicativeQuotes = make([]IndicativeQuote, 0, len(m.Quotes.RfqtIndicativeQuotes)+len(indicatives))
	out.Quotes.RfqtIndicativeQuotes = append(out.Quotes.RfqtIndicativeQuotes, m.Quotes.RfqtIndicativeQuotes...)
	out.Quotes.RfqtIndicativeQuotes = append(out.Quotes.RfqtIndicativeQuotes, indicatives...)

	if allowedSources == nil {
		out.Quotes.DexQuotes = m.Quotes.DexQuotes
	} else {
		filtered := make([][]DexSample, 0, len(m.Quotes.DexQuotes))
		for _, series := range m.Quotes.DexQuotes {
			if len(series) > 0 && allowedSources.IsAllowed(series[0].Source) {
				filtered = append(filtered, series)
			}
		}
		out.Quotes.DexQuotes = filtered
	}
	return &out
}
