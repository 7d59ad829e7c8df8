package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// AltRfqOffering advertises one pair a maker on the alternative RFQ protocol
// serves.
type AltRfqOffering struct {
	BaseAsset  common.Address
	QuoteAsset common.Address
}

// RfqOptions is the per-request RFQ configuration forwarded by the caller.
type RfqOptions struct {
	// TakerAddress is the end taker; makers price against it.
	TakerAddress common.Address
	// TxOrigin is the address that will submit the fill transaction.
	TxOrigin common.Address
	// IntentOnFilling distinguishes price discovery from a real fill intent.
	IntentOnFilling bool
	// IsIndicative selects non-binding price signals over firm signed orders.
	IsIndicative bool
	// AltRfqAssetOfferings maps maker URIs to the pairs they serve on the
	// alternative protocol.
	AltRfqAssetOfferings map[string][]AltRfqOffering
}

// RfqRequest is one round trip to the maker network.
type RfqRequest struct {
	MakerToken      common.Address
	TakerToken      common.Address
	AssetFillAmount *big.Int
	Side            domain.Side
	Options         RfqOptions

	// ComparisonPrice is the best on-chain adjusted rate found so far; makers
	// use it to decide whether to quote at all. Zero when no on-chain path
	// exists.
	ComparisonPrice decimal.Decimal
}

// FirmQuote is a signed, fillable order from one maker plus the URI it came
// from, kept for fill telemetry.
type FirmQuote struct {
	Order    *domain.NativeOrderWithFillableAmounts
	MakerURI string
}

// filterAltRfqOfferings keeps only the offerings serving the requested pair,
// in either asset orientation; makers with nothing matching drop out of the
// map so the round trip never addresses them.
func filterAltRfqOfferings(offerings map[string][]AltRfqOffering, makerToken, takerToken common.Address) map[string][]AltRfqOffering {
	if len(offerings) == 0 {
		return offerings
	}
	filtered := make(map[string][]AltRfqOffering)
	for uri, offs := range offerings {
		for _, off := range offs {
			if (off.BaseAsset == makerToken && off.QuoteAsset == takerToken) ||
				(off.BaseAsset == takerToken && off.QuoteAsset == makerToken) {
				filtered[uri] = append(filtered[uri], off)
			}
		}
	}
	return filtered
}

// QuoteRequestor talks to the RFQ maker network.
type QuoteRequestor interface {
	RequestFirmQuotes(ctx context.Context, req *RfqRequest) ([]FirmQuote, error)
	RequestIndicativeQuotes(ctx context.Context, req *RfqRequest) ([]domain.IndicativeQuote, error)
}

// RfqFirmQuoteValidator checks how much of each firm quote is actually
// fillable (maker balance, allowance). A nil validator means firm quotes are
// trusted as fully fillable.
type RfqFirmQuoteValidator interface {
	GetTakerFillableAmounts(ctx context.Context, orders []domain.NativeOrder) ([]*big.Int, error)
}
