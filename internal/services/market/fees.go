package market

import (
	"math/big"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// Per-fill gas estimates by source family. These are sampling-time
// approximations for ranking, not execution gas limits.
var sourceGasEstimates = map[domain.Source]uint64{
	domain.SourceNative:     100e3,
	domain.SourceUniswap:    90e3,
	domain.SourceUniswapV2:  90e3,
	domain.SourceUniswapV3:  100e3,
	domain.SourceCurve:      300e3,
	domain.SourceCurveV2:    300e3,
	domain.SourceBalancer:   120e3,
	domain.SourceBalancerV2: 100e3,
	domain.SourceBancor:     200e3,
	domain.SourceBancorV3:   250e3,
	domain.SourceKyberDMM:   95e3,
	domain.SourceMStable:    200e3,
	domain.SourceMooniswap:  130e3,
	domain.SourceShell:      170e3,
	domain.SourceDODO:       300e3,
	domain.SourceDODOV2:     100e3,
	domain.SourceLido:       230e3,
	domain.SourceMakerPsm:   230e3,
	domain.SourceAaveV2:     250e3,
	domain.SourceAaveV3:     250e3,
	domain.SourceCompound:   250e3,
	domain.SourceGMX:        450e3,
	domain.SourcePlatypus:   350e3,
	domain.SourceVelodrome:  160e3,
	domain.SourceSolidly:    160e3,
	domain.SourceDystopia:   160e3,
	domain.SourceWOOFi:      150e3,
	domain.SourceClipper:    170e3,
}

const defaultSourceGas uint64 = 120e3

// SourceGasEstimate returns the flat per-fill gas estimate for a source.
func SourceGasEstimate(source domain.Source) uint64 {
	if g, ok := sourceGasEstimates[source]; ok {
		return g
	}
	return defaultSourceGas
}

// DefaultFeeSchedule prices every source's fill at its flat gas estimate
// times the current gas price. MultiHop sums both legs plus a coordination
// surcharge.
func DefaultFeeSchedule(gasPrice *big.Int) domain.FeeSchedule {
	flat := func(source domain.Source) domain.FeeEstimator {
		gas := SourceGasEstimate(source)
		return func(interface{}) domain.FeeEstimate {
			return domain.FeeEstimate{
				Gas: gas,
				Fee: new(big.Int).Mul(big.NewInt(int64(gas)), gasPrice),
			}
		}
	}

	schedule := make(domain.FeeSchedule, domain.NumSources)
	for s := domain.Source(0); int(s) < domain.NumSources; s++ {
		if s == domain.SourceMultiHop {
			continue
		}
		schedule[s] = flat(s)
	}

	schedule[domain.SourceMultiHop] = func(data interface{}) domain.FeeEstimate {
		gas := uint64(30e3)
		if d, ok := data.(*domain.TwoHopFillData); ok {
			gas += SourceGasEstimate(d.FirstHop.Source) + SourceGasEstimate(d.SecondHop.Source)
		} else {
			gas += 2 * defaultSourceGas
		}
		return domain.FeeEstimate{
			Gas: gas,
			Fee: new(big.Int).Mul(big.NewInt(int64(gas)), gasPrice),
		}
	}
	return schedule
}

// Exchange-proxy overhead gas by execution strategy.
const (
	vipRouteOverheadGas       = 5e3
	multiplexOverheadGas      = 15e3
	transformErc20OverheadGas = 150e3
)

// ExchangeProxyOverheadForChain prices the settlement-contract overhead
// implied by a path's source combination: a pure-VIP path takes the cheap
// direct route, a two-hop path goes through the multiplexer and everything
// else pays for the generic transformer.
func ExchangeProxyOverheadForChain(chainID int, gasPrice *big.Int) domain.ExchangeProxyOverhead {
	vipFlags := domain.VIPSourceFlagsForChain(chainID)
	nativeVip := domain.CombineFlags(vipFlags, domain.SourceNative.Flag())

	return func(flags domain.SourceFlags) *big.Int {
		var gas int64
		switch {
		case isFlagSubset(flags, nativeVip):
			gas = vipRouteOverheadGas
		case domain.HasSourceFlag(flags, domain.SourceMultiHop):
			gas = multiplexOverheadGas
		default:
			gas = transformErc20OverheadGas
		}
		return new(big.Int).Mul(big.NewInt(gas), gasPrice)
	}
}

func isFlagSubset(flags, super domain.SourceFlags) bool {
	var and domain.SourceFlags
	and.And(&flags, &super)
	return and.Eq(&flags)
}
