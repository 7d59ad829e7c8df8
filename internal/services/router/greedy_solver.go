package router

import (
	"math"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// GreedySolver is the default routing kernel: it interpolates each candidate's
// sampled curve piecewise-linearly from the origin and allocates the target
// input in fixed chunks, each chunk to the candidate with the best marginal
// fee-adjusted output. Deterministic and allocation-free in the hot loop.
type GreedySolver struct {
	// ChunksPerSample controls allocation granularity: the target input is
	// split into numSamples*ChunksPerSample chunks. Higher is finer and slower.
	ChunksPerSample int
}

func NewGreedySolver() *GreedySolver {
	return &GreedySolver{ChunksPerSample: 4}
}

func (s *GreedySolver) Route(p *RoutingProblem, out *Allocations, numSamples int) {
	out.AllInputs = make([]float64, len(p.Paths))
	out.AllOutputs = make([]float64, len(p.Paths))
	out.VipInputs = make([]float64, len(p.Paths))
	out.VipOutputs = make([]float64, len(p.Paths))

	chunks := numSamples * s.ChunksPerSample
	if chunks < 1 {
		chunks = 1
	}

	s.solve(p, out.AllInputs, out.AllOutputs, chunks, false)
	s.solve(p, out.VipInputs, out.VipOutputs, chunks, true)
}

func (s *GreedySolver) solve(p *RoutingProblem, inputs, outputs []float64, chunks int, vipOnly bool) {
	if p.TargetInput <= 0 || len(p.Paths) == 0 {
		return
	}
	chunk := p.TargetInput / float64(chunks)
	if chunk <= 0 || math.IsInf(chunk, 0) || math.IsNaN(chunk) {
		return
	}

	allocated := 0.0
	for allocated < p.TargetInput {
		remaining := p.TargetInput - allocated
		step := math.Min(chunk, remaining)

		bestIdx := -1
		bestScore := 0.0
		for i, cand := range p.Paths {
			if vipOnly && !cand.IsVIP {
				continue
			}
			capacity := candidateCapacity(cand)
			headroom := capacity - inputs[i]
			if headroom <= 0 {
				continue
			}
			take := math.Min(step, headroom)
			marginal := adjustedAt(p.Side, cand, inputs[i]+take) - adjustedAt(p.Side, cand, inputs[i])
			score := marginal / take
			if math.IsNaN(score) || math.IsInf(score, 0) {
				continue
			}
			if bestIdx == -1 || better(p.Side, score, bestScore) {
				bestIdx = i
				bestScore = score
			}
		}
		if bestIdx == -1 {
			break
		}

		cand := p.Paths[bestIdx]
		take := math.Min(step, candidateCapacity(cand)-inputs[bestIdx])
		inputs[bestIdx] += take
		allocated += take
	}

	for i, cand := range p.Paths {
		if inputs[i] > 0 {
			outputs[i] = interpolate(cand.Inputs, cand.Outputs, inputs[i])
		}
	}
}

// better orders marginal scores: sells want the most output per unit input,
// buys the least.
func better(side domain.Side, score, best float64) bool {
	if side == domain.SideSell {
		return score > best
	}
	return score < best
}

func candidateCapacity(c *SerializedPath) float64 {
	if len(c.Inputs) == 0 {
		return 0
	}
	return c.Inputs[len(c.Inputs)-1]
}

// adjustedAt is the fee-adjusted curve value at x: output minus fee on sells,
// output plus fee on buys.
func adjustedAt(side domain.Side, c *SerializedPath, x float64) float64 {
	out := interpolate(c.Inputs, c.Outputs, x)
	fee := interpolate(c.Inputs, c.OutputFees, x)
	if side == domain.SideSell {
		return out - fee
	}
	return out + fee
}

// interpolate evaluates a piecewise-linear curve through (0,0) and the sample
// points. Beyond the last sample the curve is flat.
func interpolate(xs, ys []float64, x float64) float64 {
	if len(xs) == 0 || x <= 0 {
		return 0
	}
	prevX, prevY := 0.0, 0.0
	for i := range xs {
		if x <= xs[i] {
			dx := xs[i] - prevX
			if dx <= 0 {
				return ys[i]
			}
			return prevY + (ys[i]-prevY)*(x-prevX)/dx
		}
		prevX, prevY = xs[i], ys[i]
	}
	return ys[len(ys)-1]
}
