package sampler

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/services/market"
)

var (
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func newPool(source domain.Source, token0, token1 common.Address, r0, r1 int64, feeBps uint16) *domain.Pool {
	return &domain.Pool{
		Source:   source,
		Address:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Token0:   token0,
		Token1:   token1,
		Reserve0: big.NewInt(r0),
		Reserve1: big.NewInt(r1),
		FeeBps:   feeBps,
	}
}

// TestQuotePoolSell verifies the constant-product forward quote on an exact
// feeless case and the fee's price impact.
func TestQuotePoolSell(t *testing.T) {
	s := NewSyntheticSampler()

	feeless := newPool(domain.SourceUniswapV2, weth, usdc, 1000, 1000, 0)
	// 1000 * 100 / (1000 + 100), floored
	if out := s.quotePool(feeless, domain.SideSell, weth, big.NewInt(100)); out.Cmp(big.NewInt(90)) != 0 {
		t.Errorf("feeless quote: got %s, want 90", out)
	}

	fee := newPool(domain.SourceUniswapV2, weth, usdc, 1000, 1000, 30)
	out := s.quotePool(fee, domain.SideSell, weth, big.NewInt(100))
	if out.Cmp(big.NewInt(90)) >= 0 || out.Sign() <= 0 {
		t.Errorf("fee quote should land below the feeless 90, got %s", out)
	}

	// reversed token order resolves the reserves the other way
	reversed := newPool(domain.SourceUniswapV2, usdc, weth, 500, 1000, 0)
	if out := s.quotePool(reversed, domain.SideSell, weth, big.NewInt(100)); out.Cmp(big.NewInt(45)) != 0 {
		t.Errorf("reversed quote: got %s, want 45", out)
	}
}

// TestQuotePoolBuy verifies the inverted quote rounds the required input up
// and refuses amounts at or beyond the reserve.
func TestQuotePoolBuy(t *testing.T) {
	s := NewSyntheticSampler()
	pool := newPool(domain.SourceUniswapV2, weth, usdc, 1000, 1000, 0)

	// buying 100 usdc: ceil(1000 * 100 / 900)
	if in := s.quotePool(pool, domain.SideBuy, usdc, big.NewInt(100)); in.Cmp(big.NewInt(112)) != 0 {
		t.Errorf("buy quote: got %s, want 112", in)
	}
	if in := s.quotePool(pool, domain.SideBuy, usdc, big.NewInt(1000)); in.Sign() != 0 {
		t.Errorf("draining the reserve should quote zero, got %s", in)
	}
}

// TestExecuteSell verifies series shape, source filtering and block-number
// progression across calls.
func TestExecuteSell(t *testing.T) {
	s := NewSyntheticSampler()
	s.SetPools([]*domain.Pool{
		newPool(domain.SourceUniswapV2, weth, usdc, 1e9, 2e9, 30),
		newPool(domain.SourceSushiSwap, weth, usdc, 1e9, 2e9, 30),
		newPool(domain.SourceVelodrome, weth, dai, 1e9, 1e9, 5), // wrong pair
	})
	s.SetTokenDecimals(usdc, 6)
	s.SetTokenPrice(weth, decimal.NewFromInt(1))

	req := &market.SampleRequest{
		Side:        domain.SideSell,
		InputToken:  weth,
		OutputToken: usdc,
		InputAmount: big.NewInt(100_000),
		NumSamples:  4,
	}
	result, err := s.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.DexQuotes) != 2 {
		t.Fatalf("dex series: got %d, want 2", len(result.DexQuotes))
	}
	for _, series := range result.DexQuotes {
		if len(series) != 4 {
			t.Fatalf("series length: got %d, want 4", len(series))
		}
		for i := 1; i < len(series); i++ {
			if series[i].Input.Cmp(series[i-1].Input) <= 0 {
				t.Fatal("series inputs not ascending")
			}
			if series[i].Output.Cmp(series[i-1].Output) < 0 {
				t.Fatal("series outputs decreasing")
			}
		}
		if series[len(series)-1].Input.Cmp(req.InputAmount) != 0 {
			t.Errorf("last sample should sit at the full input, got %s", series[len(series)-1].Input)
		}
	}
	if result.MakerTokenDecimals != 6 || result.TakerTokenDecimals != 18 {
		t.Errorf("decimals: maker %d taker %d", result.MakerTokenDecimals, result.TakerTokenDecimals)
	}
	if !result.InputAmountPerEth.Equal(decimal.NewFromInt(1)) {
		t.Errorf("input conversion rate: got %s", result.InputAmountPerEth)
	}

	first := result.BlockNumber
	result, err = s.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.BlockNumber != first+1 {
		t.Errorf("block number should advance per call: %d then %d", first, result.BlockNumber)
	}

	// restricting sources drops the filtered series
	req.Sources = domain.NewSourceFilter(domain.SourceUniswapV2)
	result, err = s.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.DexQuotes) != 1 || result.DexQuotes[0][0].Source != domain.SourceUniswapV2 {
		t.Errorf("source filter not applied: %d series", len(result.DexQuotes))
	}
}

// TestExecuteTwoHop verifies a pair with no direct pool still quotes through
// an intermediate token, and only on sells.
func TestExecuteTwoHop(t *testing.T) {
	s := NewSyntheticSampler()
	s.SetPools([]*domain.Pool{
		newPool(domain.SourceUniswapV2, weth, dai, 1e9, 1e9, 30),
		newPool(domain.SourceSushiSwap, dai, usdc, 1e9, 1e9, 30),
	})
	s.SetIntermediateTokens([]common.Address{dai})

	req := &market.SampleRequest{
		Side:        domain.SideSell,
		InputToken:  weth,
		OutputToken: usdc,
		InputAmount: big.NewInt(100_000),
		NumSamples:  3,
	}
	result, err := s.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.DexQuotes) != 0 {
		t.Errorf("no direct pool exists, got %d series", len(result.DexQuotes))
	}
	if len(result.TwoHopQuotes) != 1 {
		t.Fatalf("two-hop quotes: got %d, want 1", len(result.TwoHopQuotes))
	}

	hop := result.TwoHopQuotes[0]
	if hop.Output.Sign() <= 0 {
		t.Error("two-hop output should be positive")
	}
	if hop.Data.IntermediateToken != dai {
		t.Errorf("intermediate token: got %s", hop.Data.IntermediateToken)
	}
	if hop.Data.FirstHop.Source != domain.SourceUniswapV2 || hop.Data.SecondHop.Source != domain.SourceSushiSwap {
		t.Errorf("leg sources: %s then %s", hop.Data.FirstHop.Source, hop.Data.SecondHop.Source)
	}

	req.Side = domain.SideBuy
	result, err = s.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.TwoHopQuotes) != 0 {
		t.Errorf("buys must not produce two-hop quotes, got %d", len(result.TwoHopQuotes))
	}
}

// TestFillDataFor verifies the payload family matches the pool's source.
func TestFillDataFor(t *testing.T) {
	s := NewSyntheticSampler()

	v2 := s.fillDataFor(newPool(domain.SourceUniswapV2, weth, usdc, 1, 1, 0), weth, usdc, domain.SideSell)
	v2Data, ok := v2.(*domain.UniswapV2FillData)
	if !ok {
		t.Fatalf("uniswap v2 payload: got %T", v2)
	}
	if len(v2Data.TokenPath) != 2 || v2Data.TokenPath[0] != weth || v2Data.TokenPath[1] != usdc {
		t.Errorf("token path: %v", v2Data.TokenPath)
	}

	// on buys the taker/maker orientation flips
	v2 = s.fillDataFor(newPool(domain.SourceUniswapV2, weth, usdc, 1, 1, 0), weth, usdc, domain.SideBuy)
	if path := v2.(*domain.UniswapV2FillData).TokenPath; path[0] != usdc || path[1] != weth {
		t.Errorf("buy token path: %v", path)
	}

	velo := s.fillDataFor(&domain.Pool{Source: domain.SourceVelodrome, Stable: true}, weth, usdc, domain.SideSell)
	if d, ok := velo.(*domain.VelodromeFillData); !ok || !d.Stable {
		t.Errorf("velodrome payload: %#v", velo)
	}

	curve := s.fillDataFor(newPool(domain.SourceCurve, usdc, weth, 1, 1, 0), weth, usdc, domain.SideSell)
	curveData, ok := curve.(*domain.CurveFillData)
	if !ok {
		t.Fatalf("curve payload: got %T", curve)
	}
	// taker (weth) is token1, so indices run 1 -> 0
	if curveData.FromTokenIdx != 1 || curveData.ToTokenIdx != 0 {
		t.Errorf("curve indices: %d -> %d", curveData.FromTokenIdx, curveData.ToTokenIdx)
	}

	pool := s.fillDataFor(newPool(domain.SourceBalancer, weth, usdc, 1, 1, 0), weth, usdc, domain.SideSell)
	if _, ok := pool.(*domain.PoolFillData); !ok {
		t.Errorf("balancer payload: got %T", pool)
	}
}
