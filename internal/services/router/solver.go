package router

import "github.com/hxuan190/quote-engine/internal/domain"

// SerializedPath is one candidate in kernel form: a sampled liquidity curve
// flattened to float64 so the routing kernel can interpolate freely. IDs holds
// the source-path id shared by every sample of the candidate.
type SerializedPath struct {
	IDs        []string
	Inputs     []float64
	Outputs    []float64
	OutputFees []float64
	IsVIP      bool
}

// RoutingProblem is the full input to one kernel run.
type RoutingProblem struct {
	Side        domain.Side
	TargetInput float64
	Paths       []*SerializedPath
}

// Allocations receives the kernel's answer: per-candidate allocated input and
// the raw (un-penalized) curve output at that input, once over all candidates
// and once restricted to VIP candidates. Slices are index-aligned with
// RoutingProblem.Paths.
type Allocations struct {
	AllInputs  []float64
	AllOutputs []float64
	VipInputs  []float64
	VipOutputs []float64
}

// Solver is the routing kernel. It never errors: an unsolvable problem comes
// back as all-zero (or non-finite) allocations and the caller treats that as
// "no solution".
type Solver interface {
	Route(p *RoutingProblem, out *Allocations, numSamples int)
}
