package router

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// EthToOutputAmount converts a wei-denominated fee into output-token units.
// It prefers outputAmountPerEth; when that rate is zero (a known data-quality
// gap) it prices through the input side instead, scaled by the fill's own
// output/input ratio. Fees round up so a penalty is never understated.
func EthToOutputAmount(input, output, ethAmount *big.Int, inputAmountPerEth, outputAmountPerEth decimal.Decimal) *big.Int {
	if ethAmount == nil || ethAmount.Sign() == 0 {
		return big.NewInt(0)
	}
	eth := decimal.NewFromBigInt(ethAmount, 0)
	if !outputAmountPerEth.IsZero() {
		return outputAmountPerEth.Mul(eth).Ceil().BigInt()
	}
	if inputAmountPerEth.IsZero() || input == nil || input.Sign() == 0 || output == nil {
		return big.NewInt(0)
	}
	ratio := decimal.NewFromBigInt(output, 0).Div(decimal.NewFromBigInt(input, 0))
	return inputAmountPerEth.Mul(eth).Mul(ratio).Ceil().BigInt()
}

// AdjustOutput applies a penalty with the canonical sign convention: output
// shrinks on sells and grows on buys.
func AdjustOutput(side domain.Side, output, penalty *big.Int) *big.Int {
	if side == domain.SideSell {
		return new(big.Int).Sub(output, penalty)
	}
	return new(big.Int).Add(output, penalty)
}

func estimateFee(fees domain.FeeSchedule, source domain.Source, data interface{}) domain.FeeEstimate {
	est, ok := fees[source]
	if !ok || est == nil {
		return domain.FeeEstimate{Fee: big.NewInt(0)}
	}
	fe := est(data)
	if fe.Fee == nil {
		fe.Fee = big.NewInt(0)
	}
	return fe
}

// NativeOrderToFill converts a native order into a fill clipped to
// targetInput. The order's fee is fixed: a partial fill carries the full
// penalty, exactly as if the order were exercised completely. When
// filterNegativeAdjustedRateOrders is set, an order whose fee-adjusted rate
// comes out non-positive yields no fill at all; callers treat the nil return
// as expected, not as an error.
func NativeOrderToFill(
	side domain.Side,
	order *domain.NativeOrderWithFillableAmounts,
	targetInput *big.Int,
	outputAmountPerEth, inputAmountPerEth decimal.Decimal,
	fees domain.FeeSchedule,
	filterNegativeAdjustedRateOrders bool,
) *domain.Fill {
	takerFee := order.FillableTakerFeeAmount
	if takerFee == nil {
		takerFee = big.NewInt(0)
	}

	var input, output *big.Int
	if side == domain.SideSell {
		input = new(big.Int).Add(order.FillableTakerAmount, takerFee)
		output = order.FillableMakerAmount
	} else {
		input = order.FillableMakerAmount
		output = new(big.Int).Add(order.FillableTakerAmount, takerFee)
	}
	if input.Sign() <= 0 || output.Sign() <= 0 {
		return nil
	}

	clippedInput := input
	clippedOutput := output
	if targetInput != nil && targetInput.Cmp(input) < 0 {
		clippedInput = targetInput
		scaled := decimal.NewFromBigInt(output, 0).
			Mul(decimal.NewFromBigInt(targetInput, 0)).
			Div(decimal.NewFromBigInt(input, 0))
		// Sells round the received amount down; buys round the taker amount
		// up so the order never asks for less input than the fill needs.
		if side == domain.SideBuy {
			clippedOutput = scaled.Ceil().BigInt()
		} else {
			clippedOutput = scaled.Floor().BigInt()
		}
	}

	fee := estimateFee(fees, domain.SourceNative, order)
	penalty := EthToOutputAmount(clippedInput, clippedOutput, fee.Fee, inputAmountPerEth, outputAmountPerEth)
	adjustedOutput := AdjustOutput(side, clippedOutput, penalty)

	if filterNegativeAdjustedRateOrders {
		rate := GetRate(side, clippedInput, adjustedOutput)
		if adjustedOutput.Sign() <= 0 || rate.Sign() <= 0 {
			return nil
		}
	}

	return &domain.Fill{
		Source:         domain.SourceNative,
		Input:          clippedInput,
		Output:         clippedOutput,
		AdjustedOutput: adjustedOutput,
		Gas:            fee.Gas,
		Flags:          domain.SourceNative.Flag(),
		Data:           order,
		SourcePathID:   uuid.NewString(),
	}
}

// DexSampleToFill converts one sampled curve point into a fill. Samples are
// already sized to the request, so no clipping happens here.
func DexSampleToFill(
	side domain.Side,
	sample domain.DexSample,
	outputAmountPerEth, inputAmountPerEth decimal.Decimal,
	fees domain.FeeSchedule,
) *domain.Fill {
	fee := estimateFee(fees, sample.Source, sample.Data)
	penalty := EthToOutputAmount(sample.Input, sample.Output, fee.Fee, inputAmountPerEth, outputAmountPerEth)
	return &domain.Fill{
		Source:         sample.Source,
		Input:          sample.Input,
		Output:         sample.Output,
		AdjustedOutput: AdjustOutput(side, sample.Output, penalty),
		Gas:            fee.Gas,
		Flags:          sample.Source.Flag(),
		Data:           sample.Data,
		SourcePathID:   uuid.NewString(),
	}
}

// TwoHopSampleToFill converts a two-hop sample into a single fill flagged
// with MultiHop plus both leg sources. The penalty is estimated once by the
// multihop-specific estimator rather than per leg.
func TwoHopSampleToFill(
	side domain.Side,
	sample domain.TwoHopSample,
	outputAmountPerEth decimal.Decimal,
	multihopFee domain.FeeEstimator,
) *domain.Fill {
	var fee domain.FeeEstimate
	if multihopFee != nil {
		fee = multihopFee(sample.Data)
	}
	if fee.Fee == nil {
		fee.Fee = big.NewInt(0)
	}
	penalty := EthToOutputAmount(sample.Input, sample.Output, fee.Fee, decimal.Zero, outputAmountPerEth)
	return &domain.Fill{
		Source:         domain.SourceMultiHop,
		Input:          sample.Input,
		Output:         sample.Output,
		AdjustedOutput: AdjustOutput(side, sample.Output, penalty),
		Gas:            fee.Gas,
		Flags: domain.CombineFlags(
			domain.SourceMultiHop.Flag(),
			sample.Data.FirstHop.Source.Flag(),
			sample.Data.SecondHop.Source.Flag(),
		),
		Data:         sample.Data,
		SourcePathID: uuid.NewString(),
	}
}
