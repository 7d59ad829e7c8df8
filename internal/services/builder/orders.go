package builder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// GetFillTokenAmounts maps a fill's input/output onto maker/taker amounts.
// Rounding always favors the taker: on sells the maker amount is rounded
// down, on buys the taker amount is rounded up. Amounts here are already
// integral, so the direction matters upstream where fills are scaled.
func GetFillTokenAmounts(fill *domain.Fill, side domain.Side) (makerAmount, takerAmount *big.Int) {
	if side == domain.SideSell {
		return fill.Output, fill.Input
	}
	return fill.Input, fill.Output
}

// CreateNativeOptimizedOrder wraps a native-order fill back into executable
// form. The tokens come from the signed order itself.
func CreateNativeOptimizedOrder(fill *domain.Fill, side domain.Side) *domain.OptimizedOrder {
	order, _ := fill.Data.(*domain.NativeOrderWithFillableAmounts)
	makerAmount, takerAmount := GetFillTokenAmounts(fill, side)
	out := &domain.OptimizedOrder{
		Type:        domain.OrderTypeNative,
		Source:      domain.SourceNative,
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Fill:        fill,
		NativeOrder: order,
	}
	if order != nil {
		out.MakerToken = order.Order.MakerToken
		out.TakerToken = order.Order.TakerToken
	}
	return out
}

// CreateBridgeOrder materializes an AMM fill into a bridge order.
func CreateBridgeOrder(fill *domain.Fill, makerToken, takerToken common.Address, side domain.Side) (*domain.OptimizedOrder, error) {
	if fill.Source == domain.SourceNative || fill.Source == domain.SourceMultiHop {
		return nil, fmt.Errorf("%w: %s", ErrNoBridgeForSource, fill.Source)
	}
	bridgeData, err := EncodeBridgeData(fill)
	if err != nil {
		return nil, err
	}
	makerAmount, takerAmount := GetFillTokenAmounts(fill, side)
	return &domain.OptimizedOrder{
		Type:        domain.OrderTypeBridge,
		Source:      fill.Source,
		MakerToken:  makerToken,
		TakerToken:  takerToken,
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Fill:        fill,
		BridgeData:  bridgeData,
	}, nil
}

// CreateOrdersFromTwoHopSample splits a two-hop fill into its two bridge
// legs. The intermediate amount is unknown until execution, so the leg
// consuming it carries sentinels: zero where the intermediate is produced,
// MaxUint256 where the whole intermediate balance is spent.
func CreateOrdersFromTwoHopSample(fill *domain.Fill, makerToken, takerToken common.Address, side domain.Side) (domain.TwoHopOrderPair, error) {
	data, ok := fill.Data.(*domain.TwoHopFillData)
	if !ok {
		return domain.TwoHopOrderPair{}, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}

	intermediate := data.IntermediateToken

	// The taker-side leg converts taker token into the intermediate; the
	// maker-side leg converts the whole intermediate balance into maker token.
	takerLeg := func(takerAmount *big.Int) (*domain.OptimizedOrder, error) {
		return twoHopLegOrder(fill, data.FirstHop, intermediate, takerToken, big.NewInt(0), takerAmount)
	}
	makerLeg := func(makerAmount *big.Int) (*domain.OptimizedOrder, error) {
		return twoHopLegOrder(fill, data.SecondHop, makerToken, intermediate, makerAmount, ethmath.MaxBig256)
	}

	var first, second *domain.OptimizedOrder
	var err error
	if side == domain.SideSell {
		if first, err = takerLeg(fill.Input); err != nil {
			return domain.TwoHopOrderPair{}, err
		}
		if second, err = makerLeg(fill.Output); err != nil {
			return domain.TwoHopOrderPair{}, err
		}
	} else {
		if first, err = makerLeg(fill.Input); err != nil {
			return domain.TwoHopOrderPair{}, err
		}
		if second, err = takerLeg(fill.Output); err != nil {
			return domain.TwoHopOrderPair{}, err
		}
	}
	return domain.TwoHopOrderPair{FirstHop: first, SecondHop: second}, nil
}

// twoHopLegOrder builds one leg from its sampled sub-fill. The leg's bridge
// payload is encoded against the sub-sample's own size, not the parent
// fill's.
func twoHopLegOrder(parent *domain.Fill, leg domain.DexSample, makerToken, takerToken common.Address, makerAmount, takerAmount *big.Int) (*domain.OptimizedOrder, error) {
	legFill := &domain.Fill{
		Source:       leg.Source,
		Input:        leg.Input,
		Output:       leg.Output,
		Data:         leg.Data,
		Flags:        leg.Source.Flag(),
		SourcePathID: parent.SourcePathID,
	}
	bridgeData, err := EncodeBridgeData(legFill)
	if err != nil {
		return nil, err
	}
	return &domain.OptimizedOrder{
		Type:        domain.OrderTypeBridge,
		Source:      leg.Source,
		MakerToken:  makerToken,
		TakerToken:  takerToken,
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Fill:        parent,
		BridgeData:  bridgeData,
	}, nil
}
