package market

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/services/router"
)

var (
	wethToken = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdcToken = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	poolAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type fakeSampler struct {
	result  *SampleResult
	err     error
	lastReq *SampleRequest
}

func (f *fakeSampler) Execute(_ context.Context, req *SampleRequest) (*SampleResult, error) {
	f.lastReq = req
	return f.result, f.err
}

type fakeRequestor struct {
	firm       []FirmQuote
	indicative []domain.IndicativeQuote
	firmErr    error
	lastReq    *RfqRequest
	firmCalls  int
	indCalls   int
}

func (f *fakeRequestor) RequestFirmQuotes(_ context.Context, req *RfqRequest) ([]FirmQuote, error) {
	f.firmCalls++
	f.lastReq = req
	return f.firm, f.firmErr
}

func (f *fakeRequestor) RequestIndicativeQuotes(_ context.Context, req *RfqRequest) ([]domain.IndicativeQuote, error) {
	f.indCalls++
	f.lastReq = req
	return f.indicative, nil
}

type fakeValidator struct {
	fillable []*big.Int
	err      error
}

func (f *fakeValidator) GetTakerFillableAmounts(context.Context, []domain.NativeOrder) ([]*big.Int, error) {
	return f.fillable, f.err
}

func newTestUtils(sampler Sampler) *OperationUtils {
	// zero gas price keeps penalty math out of the way
	return NewOperationUtils(1, big.NewInt(0), sampler, router.NewGreedySolver(), 3)
}

func balancerSeries(rate int64) []domain.DexSample {
	series := make([]domain.DexSample, 3)
	for i := int64(1); i <= 3; i++ {
		input := i * 500
		series[i-1] = domain.DexSample{
			Source: domain.SourceBalancer,
			Input:  big.NewInt(input),
			Output: big.NewInt(input * rate),
			Data:   &domain.PoolFillData{PoolAddress: poolAddr},
		}
	}
	return series
}

func curveSeries(rate int64) []domain.DexSample {
	series := make([]domain.DexSample, 3)
	for i := int64(1); i <= 3; i++ {
		input := i * 500
		series[i-1] = domain.DexSample{
			Source: domain.SourceCurve,
			Input:  big.NewInt(input),
			Output: big.NewInt(input * rate),
			Data:   &domain.CurveFillData{PoolAddress: poolAddr, FromTokenIdx: 0, ToTokenIdx: 1},
		}
	}
	return series
}

func sellLiquidity(dexQuotes [][]domain.DexSample, rfqSupported bool) *domain.MarketSideLiquidity {
	return &domain.MarketSideLiquidity{
		Side:           domain.SideSell,
		InputAmount:    big.NewInt(1000),
		InputToken:     wethToken,
		OutputToken:    usdcToken,
		Quotes:         domain.RawQuotes{DexQuotes: dexQuotes},
		IsRfqSupported: rfqSupported,
	}
}

func firmQuote(taker, maker int64, signature, uri string) FirmQuote {
	return FirmQuote{
		Order: &domain.NativeOrderWithFillableAmounts{
			Order: domain.NativeOrder{
				Type:       domain.NativeOrderTypeRfq,
				MakerToken: usdcToken,
				TakerToken: wethToken,
				Signature:  signature,
			},
			FillableMakerAmount: big.NewInt(maker),
			FillableTakerAmount: big.NewInt(taker),
		},
		MakerURI: uri,
	}
}

// TestGetMarketSideLiquidity verifies the snapshot orientation on both sides
// and that RFQ support tracks the presence of a requestor.
func TestGetMarketSideLiquidity(t *testing.T) {
	sampler := &fakeSampler{result: &SampleResult{
		BlockNumber:        7,
		GasLeft:            big.NewInt(30e6),
		OutputAmountPerEth: decimal.NewFromInt(1),
		InputAmountPerEth:  decimal.NewFromInt(2),
		DexQuotes:          [][]domain.DexSample{balancerSeries(2)},
	}}
	o := newTestUtils(sampler)

	liquidity, err := o.GetMarketSellLiquidity(context.Background(), nil, usdcToken, wethToken, big.NewInt(1000), nil)
	if err != nil {
		t.Fatalf("GetMarketSellLiquidity: %v", err)
	}
	if liquidity.InputToken != wethToken || liquidity.OutputToken != usdcToken {
		t.Errorf("sell orientation: input %s output %s", liquidity.InputToken, liquidity.OutputToken)
	}
	if liquidity.MakerToken() != usdcToken || liquidity.TakerToken() != wethToken {
		t.Errorf("sell pair resolution: maker %s taker %s", liquidity.MakerToken(), liquidity.TakerToken())
	}
	if liquidity.IsRfqSupported {
		t.Error("no requestor attached, RFQ must be unsupported")
	}
	if liquidity.BlockNumber != 7 {
		t.Errorf("block number: got %d", liquidity.BlockNumber)
	}
	if sampler.lastReq.Side != domain.SideSell || sampler.lastReq.NumSamples != 3 {
		t.Errorf("sample request: %+v", sampler.lastReq)
	}

	o.QuoteRequestor = &fakeRequestor{}
	liquidity, err = o.GetMarketBuyLiquidity(context.Background(), nil, usdcToken, wethToken, big.NewInt(1000), nil)
	if err != nil {
		t.Fatalf("GetMarketBuyLiquidity: %v", err)
	}
	if liquidity.InputToken != usdcToken || liquidity.OutputToken != wethToken {
		t.Errorf("buy orientation: input %s output %s", liquidity.InputToken, liquidity.OutputToken)
	}
	if liquidity.MakerToken() != usdcToken || liquidity.TakerToken() != wethToken {
		t.Errorf("buy pair resolution: maker %s taker %s", liquidity.MakerToken(), liquidity.TakerToken())
	}
	if !liquidity.IsRfqSupported {
		t.Error("requestor attached, RFQ must be supported")
	}
}

// TestGenerateOptimizedOrdersNoPath verifies empty liquidity maps to
// ErrNoOptimalPath at the facade boundary.
func TestGenerateOptimizedOrdersNoPath(t *testing.T) {
	o := newTestUtils(nil)
	_, err := o.GenerateOptimizedOrders(context.Background(), sellLiquidity(nil, false))
	if !errors.Is(err, router.ErrNoOptimalPath) {
		t.Errorf("got %v, want ErrNoOptimalPath", err)
	}
}

// TestGenerateOptimizedOrders verifies a plain single-phase optimization over
// dex liquidity.
func TestGenerateOptimizedOrders(t *testing.T) {
	o := newTestUtils(nil)
	result, err := o.GenerateOptimizedOrders(context.Background(), sellLiquidity([][]domain.DexSample{balancerSeries(2)}, false))
	if err != nil {
		t.Fatalf("GenerateOptimizedOrders: %v", err)
	}
	if result.Path.AdjustedSize().Input.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("path input: got %s, want 1000", result.Path.AdjustedSize().Input)
	}
	if len(result.OptimizedOrders) == 0 {
		t.Error("expected materialized orders")
	}
	if !domain.HasSourceFlag(result.SourceFlags, domain.SourceBalancer) {
		t.Error("source flags missing the routed source")
	}
	if !result.AdjustedRate.Equal(decimal.NewFromInt(2)) {
		t.Errorf("adjusted rate: got %s, want 2", result.AdjustedRate)
	}
}

// TestGetOptimizerResultPhase1FailureSwallowed verifies a phase-one
// no-path outcome still lets RFQ makers rescue the quote.
func TestGetOptimizerResultPhase1FailureSwallowed(t *testing.T) {
	requestor := &fakeRequestor{firm: []FirmQuote{firmQuote(1000, 2000, "sig-1", "https://maker.example")}}
	o := newTestUtils(nil)
	o.QuoteRequestor = requestor

	result, err := o.GetOptimizerResult(context.Background(), sellLiquidity(nil, true), &RfqOptions{})
	if err != nil {
		t.Fatalf("GetOptimizerResult: %v", err)
	}
	if requestor.firmCalls != 1 {
		t.Fatalf("firm calls: got %d, want 1", requestor.firmCalls)
	}
	// no on-chain path means no comparison price for the makers
	if !requestor.lastReq.ComparisonPrice.IsZero() {
		t.Errorf("comparison price: got %s, want zero", requestor.lastReq.ComparisonPrice)
	}
	if len(result.Path.Fills) != 1 || result.Path.Fills[0].Source != domain.SourceNative {
		t.Errorf("expected a native-only path, got %+v", result.Path.Fills)
	}
	if result.MakerURIs["sig-1"] != "https://maker.example" {
		t.Errorf("maker uri side channel: got %v", result.MakerURIs)
	}
	if result.QuoteReport == nil || len(result.QuoteReport.SourcesDelivered) != 1 {
		t.Errorf("quote report: %+v", result.QuoteReport)
	}
}

// TestGetOptimizerResultNoPathAnywhere verifies the error surfaces when
// neither phase finds a route.
func TestGetOptimizerResultNoPathAnywhere(t *testing.T) {
	o := newTestUtils(nil)
	o.QuoteRequestor = &fakeRequestor{}

	_, err := o.GetOptimizerResult(context.Background(), sellLiquidity(nil, true), &RfqOptions{})
	if !errors.Is(err, router.ErrNoOptimalPath) {
		t.Errorf("got %v, want ErrNoOptimalPath", err)
	}
}

// TestGetOptimizerResultIndicative verifies the indicative flow restricts
// phase-two dex liquidity to the sources phase one actually used and feeds
// the phase-one rate to the makers.
func TestGetOptimizerResultIndicative(t *testing.T) {
	requestor := &fakeRequestor{indicative: []domain.IndicativeQuote{{
		MakerToken:  usdcToken,
		TakerToken:  wethToken,
		MakerAmount: big.NewInt(1500),
		TakerAmount: big.NewInt(1000),
	}}}
	o := newTestUtils(nil)
	o.QuoteRequestor = requestor

	liquidity := sellLiquidity([][]domain.DexSample{balancerSeries(2), curveSeries(1)}, true)
	result, err := o.GetOptimizerResult(context.Background(), liquidity, &RfqOptions{IsIndicative: true})
	if err != nil {
		t.Fatalf("GetOptimizerResult: %v", err)
	}
	if requestor.indCalls != 1 || requestor.firmCalls != 0 {
		t.Fatalf("expected one indicative call, got ind=%d firm=%d", requestor.indCalls, requestor.firmCalls)
	}
	if !requestor.lastReq.ComparisonPrice.Equal(decimal.NewFromInt(2)) {
		t.Errorf("comparison price: got %s, want phase-one rate 2", requestor.lastReq.ComparisonPrice)
	}

	// phase one routed everything through Balancer, so Curve is dropped from
	// the phase-two universe
	final := result.Liquidity
	if len(final.Quotes.DexQuotes) != 1 || final.Quotes.DexQuotes[0][0].Source != domain.SourceBalancer {
		t.Errorf("phase-two dex universe not restricted: %d series", len(final.Quotes.DexQuotes))
	}
	if len(final.Quotes.RfqtIndicativeQuotes) != 1 {
		t.Errorf("indicative quotes missing from phase-two liquidity")
	}
	// the original snapshot stays untouched
	if len(liquidity.Quotes.DexQuotes) != 2 || len(liquidity.Quotes.RfqtIndicativeQuotes) != 0 {
		t.Error("phase-one liquidity snapshot was mutated")
	}
}

// TestGetOptimizerResultFirmValidation verifies unfillable firm quotes are
// dropped (including their maker URI) and partially fillable ones scaled.
func TestGetOptimizerResultFirmValidation(t *testing.T) {
	requestor := &fakeRequestor{firm: []FirmQuote{
		firmQuote(1000, 3000, "sig-dead", "https://dead.example"),
		firmQuote(1000, 2500, "sig-live", "https://live.example"),
	}}
	o := newTestUtils(nil)
	o.QuoteRequestor = requestor
	o.FirmQuoteValidator = &fakeValidator{fillable: []*big.Int{
		big.NewInt(0),   // maker can no longer fill
		big.NewInt(500), // half fillable
	}}

	result, err := o.GetOptimizerResult(context.Background(), sellLiquidity(nil, true), &RfqOptions{})
	if err != nil {
		t.Fatalf("GetOptimizerResult: %v", err)
	}
	if _, ok := result.MakerURIs["sig-dead"]; ok {
		t.Error("rejected quote's maker uri should be dropped")
	}
	if result.MakerURIs["sig-live"] != "https://live.example" {
		t.Errorf("surviving maker uri missing: %v", result.MakerURIs)
	}

	orders := result.Liquidity.Quotes.NativeOrders
	if len(orders) != 1 {
		t.Fatalf("expected one validated order, got %d", len(orders))
	}
	if orders[0].FillableTakerAmount.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("taker amount not reduced: %s", orders[0].FillableTakerAmount)
	}
	// maker side scales proportionally, floored: 2500 * 500/1000
	if orders[0].FillableMakerAmount.Cmp(big.NewInt(1250)) != 0 {
		t.Errorf("maker amount not scaled: %s", orders[0].FillableMakerAmount)
	}
}

// TestGetOptimizerResultPolicySkip verifies the chain policy can veto the RFQ
// round trip entirely.
func TestGetOptimizerResultPolicySkip(t *testing.T) {
	requestor := &fakeRequestor{}
	o := newTestUtils(nil)
	o.QuoteRequestor = requestor
	o.Policy = MicroSwapPolicy{MinRfqInput: big.NewInt(1_000_000)}

	result, err := o.GetOptimizerResult(context.Background(), sellLiquidity([][]domain.DexSample{balancerSeries(2)}, true), &RfqOptions{})
	if err != nil {
		t.Fatalf("GetOptimizerResult: %v", err)
	}
	if requestor.firmCalls != 0 || requestor.indCalls != 0 {
		t.Errorf("policy skip should suppress rfq, got firm=%d ind=%d", requestor.firmCalls, requestor.indCalls)
	}
	if result.Path == nil {
		t.Error("on-chain result should still be returned")
	}
}

// TestGetOptimizerResultNativeExcluded verifies a source filter without Native
// vetoes the maker round trip, since RFQ orders would enter the path as
// Native fills.
func TestGetOptimizerResultNativeExcluded(t *testing.T) {
	requestor := &fakeRequestor{firm: []FirmQuote{firmQuote(1000, 2000, "sig-1", "https://maker.example")}}
	o := newTestUtils(nil)
	o.QuoteRequestor = requestor

	liquidity := sellLiquidity([][]domain.DexSample{balancerSeries(2)}, true)
	liquidity.QuoteSourceFilters = domain.NewSourceFilter(domain.SourceBalancer)

	result, err := o.GetOptimizerResult(context.Background(), liquidity, &RfqOptions{})
	if err != nil {
		t.Fatalf("GetOptimizerResult: %v", err)
	}
	if requestor.firmCalls != 0 || requestor.indCalls != 0 {
		t.Errorf("excluded Native should suppress rfq, got firm=%d ind=%d", requestor.firmCalls, requestor.indCalls)
	}
	if !domain.HasSourceFlag(result.SourceFlags, domain.SourceBalancer) {
		t.Error("on-chain path should still be returned")
	}
}

// TestGetOptimizerResultAltOfferingsFiltered verifies the alt-RFQ offerings
// forwarded to the makers are narrowed to the requested pair first.
func TestGetOptimizerResultAltOfferingsFiltered(t *testing.T) {
	daiToken := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	requestor := &fakeRequestor{firm: []FirmQuote{firmQuote(1000, 2000, "sig-1", "https://maker.example")}}
	o := newTestUtils(nil)
	o.QuoteRequestor = requestor

	opts := &RfqOptions{AltRfqAssetOfferings: map[string][]AltRfqOffering{
		"https://maker.example": {
			{BaseAsset: usdcToken, QuoteAsset: wethToken},
			{BaseAsset: daiToken, QuoteAsset: wethToken},
		},
		"https://other.example": {
			{BaseAsset: daiToken, QuoteAsset: usdcToken},
		},
	}}
	_, err := o.GetOptimizerResult(context.Background(), sellLiquidity(nil, true), opts)
	if err != nil {
		t.Fatalf("GetOptimizerResult: %v", err)
	}

	forwarded := requestor.lastReq.Options.AltRfqAssetOfferings
	if len(forwarded) != 1 {
		t.Fatalf("forwarded makers: got %d, want 1", len(forwarded))
	}
	offs := forwarded["https://maker.example"]
	if len(offs) != 1 || offs[0].BaseAsset != usdcToken || offs[0].QuoteAsset != wethToken {
		t.Errorf("forwarded offerings not narrowed to the pair: %+v", offs)
	}
	// the caller's map stays intact
	if len(opts.AltRfqAssetOfferings) != 2 || len(opts.AltRfqAssetOfferings["https://maker.example"]) != 2 {
		t.Error("caller's offerings map was mutated")
	}
}

// TestGetOptimizerResultRfqErrorFallsBack verifies a failed maker round trip
// degrades to the phase-one answer instead of failing the quote.
func TestGetOptimizerResultRfqErrorFallsBack(t *testing.T) {
	requestor := &fakeRequestor{firmErr: errors.New("maker network down")}
	o := newTestUtils(nil)
	o.QuoteRequestor = requestor

	result, err := o.GetOptimizerResult(context.Background(), sellLiquidity([][]domain.DexSample{balancerSeries(2)}, true), &RfqOptions{})
	if err != nil {
		t.Fatalf("GetOptimizerResult: %v", err)
	}
	if !domain.HasSourceFlag(result.SourceFlags, domain.SourceBalancer) {
		t.Error("phase-one path should survive the rfq failure")
	}
}

// TestPathSourcesIncludesTwoHopLegs verifies the phase-two source restriction
// opens up both legs of a routed two-hop fill.
func TestPathSourcesIncludesTwoHopLegs(t *testing.T) {
	result := &OptimizerResult{Path: &router.Path{Fills: []*domain.Fill{{
		Source: domain.SourceMultiHop,
		Data: &domain.TwoHopFillData{
			FirstHop:  domain.DexSample{Source: domain.SourceUniswapV2},
			SecondHop: domain.DexSample{Source: domain.SourceCurve},
		},
	}}}}

	filter := pathSources(result)
	for _, s := range []domain.Source{domain.SourceMultiHop, domain.SourceUniswapV2, domain.SourceCurve} {
		if !filter.IsAllowed(s) {
			t.Errorf("filter missing %s", s)
		}
	}
	if filter.IsAllowed(domain.SourceBalancer) {
		t.Error("filter should exclude unrouted sources")
	}

	if pathSources(nil) != nil {
		t.Error("nil result must place no restriction")
	}
}

// TestBuildQuoteReport verifies considered covers the best dex sample per
// source plus native orders, and delivered mirrors the path's fills.
func TestBuildQuoteReport(t *testing.T) {
	o := newTestUtils(nil)
	liquidity := sellLiquidity([][]domain.DexSample{balancerSeries(2)}, false)
	liquidity.Quotes.NativeOrders = []*domain.NativeOrderWithFillableAmounts{{
		Order:               domain.NativeOrder{Type: domain.NativeOrderTypeRfq, Signature: "sig-9"},
		FillableMakerAmount: big.NewInt(100),
		FillableTakerAmount: big.NewInt(100),
	}}

	result, err := o.GenerateOptimizedOrders(context.Background(), liquidity)
	if err != nil {
		t.Fatalf("GenerateOptimizedOrders: %v", err)
	}
	report := buildQuoteReport(liquidity, result.Path, map[string]string{"sig-9": "https://maker.example"})
	if len(report.SourcesConsidered) != 2 {
		t.Fatalf("considered: got %d entries, want 2", len(report.SourcesConsidered))
	}
	if report.SourcesConsidered[0].Source != domain.SourceBalancer ||
		report.SourcesConsidered[0].Input.Cmp(big.NewInt(1500)) != 0 {
		t.Errorf("best dex sample entry wrong: %+v", report.SourcesConsidered[0])
	}
	native := report.SourcesConsidered[1]
	if !native.IsRfq || native.MakerURI != "https://maker.example" {
		t.Errorf("native entry wrong: %+v", native)
	}
	if len(report.SourcesDelivered) != len(result.Path.Fills) {
		t.Errorf("delivered: got %d, want %d", len(report.SourcesDelivered), len(result.Path.Fills))
	}
}
