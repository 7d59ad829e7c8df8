package market

import (
	"math/big"
	"testing"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// TestDefaultFeeSchedule verifies flat per-source pricing and the two-leg sum
// for multi-hop fills.
func TestDefaultFeeSchedule(t *testing.T) {
	gasPrice := big.NewInt(10)
	schedule := DefaultFeeSchedule(gasPrice)

	est := schedule[domain.SourceUniswapV2](nil)
	if est.Gas != 90e3 {
		t.Errorf("uniswap v2 gas: got %d, want 90000", est.Gas)
	}
	if est.Fee.Cmp(big.NewInt(900e3)) != 0 {
		t.Errorf("uniswap v2 fee: got %s, want 900000", est.Fee)
	}

	twoHop := schedule[domain.SourceMultiHop](&domain.TwoHopFillData{
		FirstHop:  domain.DexSample{Source: domain.SourceUniswapV2},
		SecondHop: domain.DexSample{Source: domain.SourceCurve},
	})
	// 30k surcharge + 90k + 300k
	if twoHop.Gas != 420e3 {
		t.Errorf("two-hop gas: got %d, want 420000", twoHop.Gas)
	}

	// unknown payloads fall back to two default legs
	fallback := schedule[domain.SourceMultiHop](nil)
	if fallback.Gas != 30e3+2*defaultSourceGas {
		t.Errorf("fallback gas: got %d", fallback.Gas)
	}
}

// TestExchangeProxyOverheadTiers verifies the strategy selection: VIP-only
// paths ride the cheap route, two-hop pays the multiplexer, everything else
// the generic transformer.
func TestExchangeProxyOverheadTiers(t *testing.T) {
	overhead := ExchangeProxyOverheadForChain(1, big.NewInt(1))

	vipOnly := domain.CombineFlags(domain.SourceUniswapV2.Flag(), domain.SourceNative.Flag())
	if got := overhead(vipOnly); got.Cmp(big.NewInt(vipRouteOverheadGas)) != 0 {
		t.Errorf("vip tier: got %s, want %d", got, int64(vipRouteOverheadGas))
	}

	withTwoHop := domain.CombineFlags(domain.SourceMultiHop.Flag(), domain.SourceCurve.Flag())
	if got := overhead(withTwoHop); got.Cmp(big.NewInt(multiplexOverheadGas)) != 0 {
		t.Errorf("multiplex tier: got %s, want %d", got, int64(multiplexOverheadGas))
	}

	mixed := domain.CombineFlags(domain.SourceUniswapV2.Flag(), domain.SourceCurve.Flag())
	if got := overhead(mixed); got.Cmp(big.NewInt(transformErc20OverheadGas)) != 0 {
		t.Errorf("transform tier: got %s, want %d", got, int64(transformErc20OverheadGas))
	}
}

// TestMicroSwapPolicy verifies the input threshold and the nil guards.
func TestMicroSwapPolicy(t *testing.T) {
	p := MicroSwapPolicy{MinRfqInput: big.NewInt(1000)}
	if !p.SkipRfq(domain.SideSell, big.NewInt(999)) {
		t.Error("input below the minimum should skip rfq")
	}
	if p.SkipRfq(domain.SideSell, big.NewInt(1000)) {
		t.Error("input at the minimum should not skip rfq")
	}
	if (MicroSwapPolicy{}).SkipRfq(domain.SideSell, big.NewInt(1)) {
		t.Error("unconfigured policy should never skip")
	}
	if (DefaultChainPolicy{}).SkipRfq(domain.SideBuy, big.NewInt(0)) {
		t.Error("default policy should never skip")
	}
}
