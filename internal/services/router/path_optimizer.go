package router

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
)

const (
	// minDexSamples is the minimum usable sample count for a dex candidate;
	// fewer points give the kernel nothing to interpolate over.
	minDexSamples = 3

	// nativeOrderFanOutSamples is how many synthetic points a single native
	// order is expanded into so the kernel can take it partially.
	nativeOrderFanOutSamples = 13
)

// FillAdjustor post-processes reconstructed fills, e.g. to model expected
// slippage between sampling and execution.
type FillAdjustor interface {
	AdjustFills(side domain.Side, fills []*domain.Fill, targetInput *big.Int) []*domain.Fill
}

// IdentityFillAdjustor leaves fills untouched.
type IdentityFillAdjustor struct{}

func (IdentityFillAdjustor) AdjustFills(_ domain.Side, fills []*domain.Fill, _ *big.Int) []*domain.Fill {
	return fills
}

// PathOptimizer turns raw per-source liquidity into the single best execution
// path for one request. It serializes every source into kernel candidates,
// runs the routing kernel once (which answers for both the unrestricted and
// the VIP-only universe), reconstructs exact big-integer paths from the
// kernel's float allocations and picks the better of the two.
type PathOptimizer struct {
	Side         domain.Side
	ChainID      int
	InputToken   common.Address
	OutputToken  common.Address
	FeeSchedule  domain.FeeSchedule
	PenaltyOpts  PathPenaltyOpts
	Solver       Solver
	NumSamples   int
	FillAdjustor FillAdjustor
}

type candidateKind uint8

const (
	candidateDex candidateKind = iota
	candidateTwoHop
	candidateNative
)

type candidate struct {
	kind       candidateKind
	serialized *SerializedPath
	pathID     string

	samples []domain.DexSample                     // dex
	twoHop  domain.TwoHopSample                    // two-hop
	order   *domain.NativeOrderWithFillableAmounts // native
}

// FindOptimalPathFromSamples routes targetInput across the supplied liquidity.
// A nil path with a nil error means no viable route exists; errors are
// reserved for malformed data.
func (o *PathOptimizer) FindOptimalPathFromSamples(
	dexQuotes [][]domain.DexSample,
	twoHopQuotes []domain.TwoHopSample,
	nativeOrders []*domain.NativeOrderWithFillableAmounts,
	targetInput *big.Int,
) (*Path, error) {
	// Dust-sized inputs cannot be split or rounded meaningfully.
	if targetInput == nil || targetInput.Cmp(big.NewInt(1)) <= 0 {
		return nil, nil
	}

	candidates := o.buildCandidates(dexQuotes, twoHopQuotes, nativeOrders, targetInput)
	if len(candidates) == 0 {
		return nil, nil
	}

	problem := &RoutingProblem{
		Side:        o.Side,
		TargetInput: bigToFloat(targetInput),
		Paths:       make([]*SerializedPath, len(candidates)),
	}
	for i, c := range candidates {
		problem.Paths[i] = c.serialized
	}

	var alloc Allocations
	o.Solver.Route(problem, &alloc, o.NumSamples)

	allPath, err := o.reconstruct(candidates, alloc.AllInputs, alloc.AllOutputs, targetInput)
	if err != nil {
		return nil, err
	}
	vipPath, err := o.reconstruct(candidates, alloc.VipInputs, alloc.VipOutputs, targetInput)
	if err != nil {
		return nil, err
	}

	if allPath == nil {
		return vipPath, nil
	}
	if vipPath != nil {
		betterVip, err := vipPath.IsAdjustedBetterThan(allPath)
		if err != nil {
			return nil, err
		}
		if betterVip {
			return vipPath, nil
		}
	}
	return allPath, nil
}

func (o *PathOptimizer) buildCandidates(
	dexQuotes [][]domain.DexSample,
	twoHopQuotes []domain.TwoHopSample,
	nativeOrders []*domain.NativeOrderWithFillableAmounts,
	targetInput *big.Int,
) []*candidate {
	vipSources := domain.VIPSourcesForChain(o.ChainID)
	var out []*candidate

	for _, series := range dexQuotes {
		if c := o.dexCandidate(series, vipSources); c != nil {
			out = append(out, c)
		}
	}
	for _, sample := range twoHopQuotes {
		if c := o.twoHopCandidate(sample); c != nil {
			out = append(out, c)
		}
	}
	for _, order := range nativeOrders {
		if c := o.nativeCandidate(order, targetInput); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// dexCandidate serializes one source's sample series. Trailing zero outputs
// (reverted or empty-pool samples) are stripped; too-short series are dropped
// entirely.
func (o *PathOptimizer) dexCandidate(series []domain.DexSample, vipSources map[domain.Source]struct{}) *candidate {
	end := len(series)
	for end > 0 && (series[end-1].Output == nil || series[end-1].Output.Sign() == 0) {
		end--
	}
	series = series[:end]
	if len(series) < minDexSamples {
		return nil
	}

	pathID := uuid.NewString()
	sp := &SerializedPath{
		IDs:        make([]string, len(series)),
		Inputs:     make([]float64, len(series)),
		Outputs:    make([]float64, len(series)),
		OutputFees: make([]float64, len(series)),
	}
	_, isVIP := vipSources[series[0].Source]
	sp.IsVIP = isVIP

	for i, s := range series {
		fill := DexSampleToFill(o.Side, s, o.PenaltyOpts.OutputAmountPerEth, o.PenaltyOpts.InputAmountPerEth, o.FeeSchedule)
		sp.IDs[i] = pathID
		sp.Inputs[i] = bigToFloat(s.Input)
		sp.Outputs[i] = bigToFloat(s.Output)
		sp.OutputFees[i] = bigToFloat(fillPenalty(fill))
	}

	return &candidate{kind: candidateDex, serialized: sp, pathID: pathID, samples: series}
}

// twoHopCandidate serializes a single-point two-hop route. Two-hop routes are
// never VIP: they always execute through the multiplex path.
func (o *PathOptimizer) twoHopCandidate(sample domain.TwoHopSample) *candidate {
	if sample.Output == nil || sample.Output.Sign() == 0 || sample.Data == nil {
		return nil
	}
	fill := TwoHopSampleToFill(o.Side, sample, o.PenaltyOpts.OutputAmountPerEth, o.FeeSchedule[domain.SourceMultiHop])
	pathID := uuid.NewString()
	sp := &SerializedPath{
		IDs:        []string{pathID},
		Inputs:     []float64{bigToFloat(sample.Input)},
		Outputs:    []float64{bigToFloat(sample.Output)},
		OutputFees: []float64{bigToFloat(fillPenalty(fill))},
	}
	return &candidate{kind: candidateTwoHop, serialized: sp, pathID: pathID, twoHop: sample}
}

// nativeCandidate fans a single order out into a synthetic linear curve so
// the kernel can allocate it partially. The curve is capped at the smaller of
// the order size and the target input; the fee does not scale down with a
// partial take.
func (o *PathOptimizer) nativeCandidate(order *domain.NativeOrderWithFillableAmounts, targetInput *big.Int) *candidate {
	fill := NativeOrderToFill(o.Side, order, nil, o.PenaltyOpts.OutputAmountPerEth, o.PenaltyOpts.InputAmountPerEth, o.FeeSchedule, false)
	if fill == nil {
		return nil
	}

	input := bigToFloat(fill.Input)
	output := bigToFloat(fill.Output)
	fee := bigToFloat(fillPenalty(fill))
	scaleToInput := math.Min(bigToFloat(targetInput)/input, 1)

	pathID := uuid.NewString()
	sp := &SerializedPath{
		IDs:        make([]string, nativeOrderFanOutSamples),
		Inputs:     make([]float64, nativeOrderFanOutSamples),
		Outputs:    make([]float64, nativeOrderFanOutSamples),
		OutputFees: make([]float64, nativeOrderFanOutSamples),
		IsVIP:      order.Order.Type != domain.NativeOrderTypeLimit,
	}
	for i := 0; i < nativeOrderFanOutSamples; i++ {
		frac := scaleToInput * float64(i+1) / nativeOrderFanOutSamples
		sp.IDs[i] = pathID
		sp.Inputs[i] = input * frac
		sp.Outputs[i] = output * frac
		sp.OutputFees[i] = fee
	}
	return &candidate{kind: candidateNative, serialized: sp, pathID: pathID, order: order}
}

// reconstruct converts one kernel allocation vector back into an exact path.
// The kernel works in float64, so allocated inputs rarely sum to the target
// exactly; each allocation is scaled by the residual ratio, ceil-rounded and
// clamped so the path's total never exceeds the target.
func (o *PathOptimizer) reconstruct(candidates []*candidate, inputs, outputs []float64, targetInput *big.Int) (*Path, error) {
	totalInput := 0.0
	for i := range inputs {
		if inputs[i] <= 0 {
			continue
		}
		if math.IsNaN(inputs[i]) || math.IsInf(inputs[i], 0) ||
			math.IsNaN(outputs[i]) || math.IsInf(outputs[i], 0) {
			return nil, nil
		}
		totalInput += inputs[i]
	}
	if totalInput <= 0 {
		return nil, nil
	}

	// precision-error scalar: stretch the float allocations back onto the
	// exact target.
	scalar := decimal.NewFromBigInt(targetInput, 0).Div(decimal.NewFromFloat(totalInput))

	var fills []*domain.Fill
	for i, cand := range candidates {
		if inputs[i] <= 0 {
			continue
		}
		adjInput := decimal.NewFromFloat(inputs[i]).Mul(scalar).Ceil().BigInt()
		if adjInput.Cmp(targetInput) > 0 {
			adjInput = new(big.Int).Set(targetInput)
		}
		if adjInput.Sign() <= 0 {
			continue
		}

		var fill *domain.Fill
		switch cand.kind {
		case candidateNative:
			fill = NativeOrderToFill(o.Side, cand.order, adjInput, o.PenaltyOpts.OutputAmountPerEth, o.PenaltyOpts.InputAmountPerEth, o.FeeSchedule, false)
			if fill != nil {
				fill.SourcePathID = cand.pathID
			}
		case candidateDex:
			correctedOutput := correctedOutputAmount(outputs[i], scalar, cand.samples)
			bracket := upperBracketSample(cand.samples, adjInput)
			sample := domain.DexSample{
				Source: bracket.Source,
				Input:  adjInput,
				Output: correctedOutput,
				Data:   bracket.Data,
			}
			fill = DexSampleToFill(o.Side, sample, o.PenaltyOpts.OutputAmountPerEth, o.PenaltyOpts.InputAmountPerEth, o.FeeSchedule)
			fill.SourcePathID = cand.pathID
		case candidateTwoHop:
			correctedOutput := decimal.NewFromFloat(outputs[i]).Mul(scalar).Round(0).BigInt()
			if correctedOutput.Sign() < 1 {
				correctedOutput = big.NewInt(1)
			}
			sample := domain.TwoHopSample{
				Input:  adjInput,
				Output: correctedOutput,
				Data:   cand.twoHop.Data,
			}
			fill = TwoHopSampleToFill(o.Side, sample, o.PenaltyOpts.OutputAmountPerEth, o.FeeSchedule[domain.SourceMultiHop])
			fill.SourcePathID = cand.pathID
		}
		if fill != nil {
			fills = append(fills, fill)
		}
	}
	if len(fills) == 0 {
		return nil, nil
	}
	if o.FillAdjustor != nil {
		fills = o.FillAdjustor.AdjustFills(o.Side, fills, targetInput)
	}

	ctx := PathContext{Side: o.Side, InputToken: o.InputToken, OutputToken: o.OutputToken}
	return NewPath(ctx, fills, targetInput, o.PenaltyOpts)
}

// correctedOutputAmount scales a kernel output back onto exact integers and
// clamps it to [1, max sampled output] so float drift can neither zero an
// allocation out nor promise more than the curve ever showed.
func correctedOutputAmount(output float64, scalar decimal.Decimal, samples []domain.DexSample) *big.Int {
	corrected := decimal.NewFromFloat(output).Mul(scalar).Round(0).BigInt()
	maxOutput := big.NewInt(0)
	for _, s := range samples {
		if s.Output != nil && s.Output.Cmp(maxOutput) > 0 {
			maxOutput = s.Output
		}
	}
	if corrected.Sign() < 1 {
		return big.NewInt(1)
	}
	if maxOutput.Sign() > 0 && corrected.Cmp(maxOutput) > 0 {
		return new(big.Int).Set(maxOutput)
	}
	return corrected
}

// upperBracketSample finds the first sample at or above the allocated input;
// its payload is the one valid for executing at that size.
func upperBracketSample(samples []domain.DexSample, input *big.Int) domain.DexSample {
	for _, s := range samples {
		if s.Input.Cmp(input) >= 0 {
			return s
		}
	}
	return samples[len(samples)-1]
}

func fillPenalty(f *domain.Fill) *big.Int {
	p := new(big.Int).Sub(f.Output, f.AdjustedOutput)
	return p.Abs(p)
}

func bigToFloat(x *big.Int) float64 {
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
