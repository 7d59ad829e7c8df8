package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
	"github.com/hxuan190/quote-engine/internal/services/builder"
)

// PathContext fixes the trade direction and token pair a path executes.
type PathContext struct {
	Side        domain.Side
	InputToken  common.Address
	OutputToken common.Address
}

// PathSize is an accumulated input/output pair.
type PathSize struct {
	Input  *big.Int
	Output *big.Int
}

// PathPenaltyOpts carries everything needed to price gas overhead in
// output-token units.
type PathPenaltyOpts struct {
	InputAmountPerEth     decimal.Decimal
	OutputAmountPerEth    decimal.Decimal
	ExchangeProxyOverhead domain.ExchangeProxyOverhead
}

// Path is one complete execution plan: an ordered set of fills satisfying (up
// to) a target input. Immutable once constructed; every query is pure.
type Path struct {
	Context PathContext
	Fills   []*domain.Fill

	targetInput  *big.Int
	penaltyOpts  PathPenaltyOpts
	sourceFlags  domain.SourceFlags
	size         PathSize
	adjustedSize PathSize
	orders       domain.OrdersByType
}

// NewPath builds a path over fills for the given target input. It derives the
// combined source flags, the adjusted size and the materialized order
// partition. An error here means a fill could not be materialized (missing
// bridge encoder, malformed fill data) — a programming/data error that must
// propagate, unlike "no path".
func NewPath(ctx PathContext, fills []*domain.Fill, targetInput *big.Int, opts PathPenaltyOpts) (*Path, error) {
	p := &Path{
		Context:     ctx,
		Fills:       fills,
		targetInput: targetInput,
		penaltyOpts: opts,
	}

	flagSlices := make([]domain.SourceFlags, len(fills))
	for i, f := range fills {
		flagSlices[i] = f.Flags
	}
	p.sourceFlags = domain.CombineFlags(flagSlices...)

	p.size, p.adjustedSize = accumulateFills(ctx.Side, fills, targetInput)

	orders, err := materializeOrders(ctx, fills)
	if err != nil {
		return nil, err
	}
	p.orders = orders
	return p, nil
}

// accumulateFills walks the fills up to targetInput. The last fill crossing
// the boundary contributes a proportionally interpolated output, but its
// penalty stays whole: a fixed fee does not shrink with a partial fill.
func accumulateFills(side domain.Side, fills []*domain.Fill, targetInput *big.Int) (size, adjusted PathSize) {
	input := big.NewInt(0)
	output := big.NewInt(0)
	adjustedOutput := big.NewInt(0)

	for _, fill := range fills {
		remaining := new(big.Int).Sub(targetInput, input)
		if remaining.Sign() <= 0 {
			break
		}
		penalty := new(big.Int).Sub(fill.Output, fill.AdjustedOutput)
		penalty.Abs(penalty)

		if fill.Input.Cmp(remaining) <= 0 {
			input.Add(input, fill.Input)
			output.Add(output, fill.Output)
			adjustedOutput.Add(adjustedOutput, fill.AdjustedOutput)
			continue
		}

		scaledOutput := decimal.NewFromBigInt(fill.Output, 0).
			Mul(decimal.NewFromBigInt(remaining, 0)).
			Div(decimal.NewFromBigInt(fill.Input, 0)).
			Floor().BigInt()
		input.Set(targetInput)
		output.Add(output, scaledOutput)
		adjustedOutput.Add(adjustedOutput, AdjustOutput(side, scaledOutput, penalty))
		break
	}

	return PathSize{Input: input, Output: output},
		PathSize{Input: new(big.Int).Set(input), Output: adjustedOutput}
}

func materializeOrders(ctx PathContext, fills []*domain.Fill) (domain.OrdersByType, error) {
	var out domain.OrdersByType

	makerToken, takerToken := ctx.OutputToken, ctx.InputToken
	if ctx.Side == domain.SideBuy {
		makerToken, takerToken = ctx.InputToken, ctx.OutputToken
	}

	for _, fill := range fills {
		switch fill.Source {
		case domain.SourceNative:
			out.NativeOrders = append(out.NativeOrders, builder.CreateNativeOptimizedOrder(fill, ctx.Side))
		case domain.SourceMultiHop:
			pair, err := builder.CreateOrdersFromTwoHopSample(fill, makerToken, takerToken, ctx.Side)
			if err != nil {
				return domain.OrdersByType{}, err
			}
			out.TwoHopOrders = append(out.TwoHopOrders, pair)
		default:
			order, err := builder.CreateBridgeOrder(fill, makerToken, takerToken, ctx.Side)
			if err != nil {
				return domain.OrdersByType{}, err
			}
			out.BridgeOrders = append(out.BridgeOrders, order)
		}
	}
	return out, nil
}

// TargetInput returns the requested total input amount.
func (p *Path) TargetInput() *big.Int { return p.targetInput }

// Size returns the accumulated nominal input/output.
func (p *Path) Size() PathSize { return p.size }

// AdjustedSize returns the penalty-adjusted accumulated size. Its input never
// exceeds the target input.
func (p *Path) AdjustedSize() PathSize { return p.adjustedSize }

// SourceFlags is the OR of every fill's flags.
func (p *Path) SourceFlags() domain.SourceFlags { return p.sourceFlags }

// HasTwoHop reports whether any fill routes through a two-hop leg.
func (p *Path) HasTwoHop() bool {
	return domain.HasSourceFlag(p.sourceFlags, domain.SourceMultiHop)
}

// OrdersByType returns the materialized order partition, unslipped.
func (p *Path) OrdersByType() domain.OrdersByType { return p.orders }

// Orders returns all materialized orders flattened.
func (p *Path) Orders() []*domain.OptimizedOrder { return p.orders.All() }

func (p *Path) overheadAdjustedOutput() *big.Int {
	overhead := big.NewInt(0)
	if p.penaltyOpts.ExchangeProxyOverhead != nil {
		overhead = p.penaltyOpts.ExchangeProxyOverhead(p.sourceFlags)
	}
	penalty := EthToOutputAmount(
		p.adjustedSize.Input, p.adjustedSize.Output, overhead,
		p.penaltyOpts.InputAmountPerEth, p.penaltyOpts.OutputAmountPerEth,
	)
	return AdjustOutput(p.Context.Side, p.adjustedSize.Output, penalty)
}

// AdjustedRate is the path's rate after fill penalties and the
// exchange-proxy overhead of the chosen source combination.
func (p *Path) AdjustedRate() decimal.Decimal {
	return GetRate(p.Context.Side, p.adjustedSize.Input, p.overheadAdjustedOutput())
}

// AdjustedCompleteRate additionally penalizes any shortfall against the
// target input.
func (p *Path) AdjustedCompleteRate() decimal.Decimal {
	return GetCompleteRate(p.Context.Side, p.adjustedSize.Input, p.overheadAdjustedOutput(), p.targetInput)
}

// IsAdjustedBetterThan compares two candidate paths for the same target
// input. Liquidity completeness dominates price: when either path cannot
// realize the full target, the one realizing more input wins outright.
func (p *Path) IsAdjustedBetterThan(other *Path) (bool, error) {
	if p.targetInput.Cmp(other.targetInput) != 0 {
		return false, ErrTargetInputMismatch
	}
	input := p.adjustedSize.Input
	otherInput := other.adjustedSize.Input
	if input.Cmp(p.targetInput) < 0 || otherInput.Cmp(p.targetInput) < 0 {
		return input.Cmp(otherInput) > 0, nil
	}
	return p.AdjustedCompleteRate().GreaterThan(other.AdjustedCompleteRate()), nil
}

// SlippedOrdersByType applies maximum-slippage protection to every non-native
// order: maker amounts scale down on sells, taker amounts scale up on buys.
// Native orders are firm and untouched, and MaxUint256 sentinel amounts (the
// unknown intermediate leg of a two-hop) are preserved unscaled.
func (p *Path) SlippedOrdersByType(maxSlippage float64) (domain.OrdersByType, error) {
	if maxSlippage < 0 || maxSlippage > 1 {
		return domain.OrdersByType{}, ErrInvalidSlippage
	}
	if maxSlippage == 0 {
		return p.orders, nil
	}

	slipped := domain.OrdersByType{
		NativeOrders: p.orders.NativeOrders,
	}
	for _, pair := range p.orders.TwoHopOrders {
		slipped.TwoHopOrders = append(slipped.TwoHopOrders, domain.TwoHopOrderPair{
			FirstHop:  slipOrder(pair.FirstHop, p.Context.Side, maxSlippage),
			SecondHop: slipOrder(pair.SecondHop, p.Context.Side, maxSlippage),
		})
	}
	for _, order := range p.orders.BridgeOrders {
		slipped.BridgeOrders = append(slipped.BridgeOrders, slipOrder(order, p.Context.Side, maxSlippage))
	}
	return slipped, nil
}

// SlippedOrders is SlippedOrdersByType flattened.
func (p *Path) SlippedOrders(maxSlippage float64) ([]*domain.OptimizedOrder, error) {
	byType, err := p.SlippedOrdersByType(maxSlippage)
	if err != nil {
		return nil, err
	}
	return byType.All(), nil
}

func slipOrder(order *domain.OptimizedOrder, side domain.Side, maxSlippage float64) *domain.OptimizedOrder {
	out := *order
	if side == domain.SideSell {
		if order.MakerAmount.Cmp(ethmath.MaxBig256) != 0 {
			out.MakerAmount = decimal.NewFromBigInt(order.MakerAmount, 0).
				Mul(decimal.NewFromFloat(1 - maxSlippage)).
				Floor().BigInt()
		}
		return &out
	}
	if order.TakerAmount.Cmp(ethmath.MaxBig256) != 0 {
		out.TakerAmount = decimal.NewFromBigInt(order.TakerAmount, 0).
			Mul(decimal.NewFromFloat(1 + maxSlippage)).
			Ceil().BigInt()
	}
	return &out
}
