package router

import (
	"math"
	"testing"

	"github.com/hxuan190/quote-engine/internal/domain"
)

func linearCandidate(rate float64, capacity float64, isVIP bool) *SerializedPath {
	return &SerializedPath{
		IDs:        []string{"a", "b"},
		Inputs:     []float64{capacity / 2, capacity},
		Outputs:    []float64{rate * capacity / 2, rate * capacity},
		OutputFees: []float64{0, 0},
		IsVIP:      isVIP,
	}
}

// TestGreedySolverSplitsAcrossCandidates verifies the kernel exhausts the
// better-priced candidate before spilling into the worse one.
func TestGreedySolverSplitsAcrossCandidates(t *testing.T) {
	problem := &RoutingProblem{
		Side:        domain.SideSell,
		TargetInput: 200,
		Paths: []*SerializedPath{
			linearCandidate(3, 100, false),
			linearCandidate(1, 1000, false),
		},
	}

	var alloc Allocations
	NewGreedySolver().Route(problem, &alloc, 2)

	if math.Abs(alloc.AllInputs[0]-100) > 1e-9 {
		t.Errorf("best candidate input: got %f, want 100 (its full capacity)", alloc.AllInputs[0])
	}
	if math.Abs(alloc.AllInputs[1]-100) > 1e-9 {
		t.Errorf("spillover input: got %f, want 100", alloc.AllInputs[1])
	}
	if math.Abs(alloc.AllOutputs[0]-300) > 1e-9 {
		t.Errorf("best candidate output: got %f, want 300", alloc.AllOutputs[0])
	}
	if math.Abs(alloc.AllOutputs[1]-100) > 1e-9 {
		t.Errorf("spillover output: got %f, want 100", alloc.AllOutputs[1])
	}
}

// TestGreedySolverVipRestriction verifies the VIP pass only allocates to VIP
// candidates while the unrestricted pass uses everything.
func TestGreedySolverVipRestriction(t *testing.T) {
	problem := &RoutingProblem{
		Side:        domain.SideSell,
		TargetInput: 100,
		Paths: []*SerializedPath{
			linearCandidate(3, 1000, false),
			linearCandidate(2, 1000, true),
		},
	}

	var alloc Allocations
	NewGreedySolver().Route(problem, &alloc, 2)

	if math.Abs(alloc.AllInputs[0]-100) > 1e-9 {
		t.Errorf("unrestricted pass should pick the better non-VIP candidate, got %f", alloc.AllInputs[0])
	}
	if alloc.VipInputs[0] != 0 {
		t.Errorf("VIP pass allocated %f to a non-VIP candidate", alloc.VipInputs[0])
	}
	if math.Abs(alloc.VipInputs[1]-100) > 1e-9 {
		t.Errorf("VIP pass input: got %f, want 100", alloc.VipInputs[1])
	}
}

// TestGreedySolverBuySide verifies buys minimize marginal cost instead of
// maximizing output.
func TestGreedySolverBuySide(t *testing.T) {
	problem := &RoutingProblem{
		Side:        domain.SideBuy,
		TargetInput: 100,
		Paths: []*SerializedPath{
			linearCandidate(2, 1000, false), // costs 2 per unit bought
			linearCandidate(1, 1000, false), // costs 1 per unit bought
		},
	}

	var alloc Allocations
	NewGreedySolver().Route(problem, &alloc, 2)

	if alloc.AllInputs[0] != 0 {
		t.Errorf("expensive candidate got %f, want 0", alloc.AllInputs[0])
	}
	if math.Abs(alloc.AllInputs[1]-100) > 1e-9 {
		t.Errorf("cheap candidate input: got %f, want 100", alloc.AllInputs[1])
	}
}

// TestGreedySolverFeeAware verifies per-sample fees tip the marginal choice:
// a nominally better curve loses once its fee is charged.
func TestGreedySolverFeeAware(t *testing.T) {
	feeless := linearCandidate(1.0, 1000, false)
	pricey := &SerializedPath{
		IDs:        []string{"x", "y"},
		Inputs:     []float64{500, 1000},
		Outputs:    []float64{550, 1100},
		OutputFees: []float64{400, 400},
	}
	problem := &RoutingProblem{
		Side:        domain.SideSell,
		TargetInput: 100,
		Paths:       []*SerializedPath{pricey, feeless},
	}

	var alloc Allocations
	NewGreedySolver().Route(problem, &alloc, 2)

	if alloc.AllInputs[0] != 0 {
		t.Errorf("fee-heavy candidate got %f, want 0", alloc.AllInputs[0])
	}
	if math.Abs(alloc.AllInputs[1]-100) > 1e-9 {
		t.Errorf("feeless candidate input: got %f, want 100", alloc.AllInputs[1])
	}
}

// TestGreedySolverEmptyProblem verifies degenerate inputs produce empty
// allocations instead of panicking.
func TestGreedySolverEmptyProblem(t *testing.T) {
	var alloc Allocations
	NewGreedySolver().Route(&RoutingProblem{Side: domain.SideSell, TargetInput: 0}, &alloc, 13)
	if len(alloc.AllInputs) != 0 {
		t.Errorf("expected empty allocation vectors, got %d entries", len(alloc.AllInputs))
	}

	NewGreedySolver().Route(&RoutingProblem{
		Side:        domain.SideSell,
		TargetInput: 100,
		Paths:       []*SerializedPath{linearCandidate(1, 1000, false)},
	}, &alloc, 0)
	if alloc.AllInputs[0] <= 0 {
		t.Errorf("zero numSamples should still allocate via the single-chunk fallback, got %f", alloc.AllInputs[0])
	}
}

// TestInterpolate verifies the piecewise-linear curve passes through the
// origin, the sample points and stays flat beyond the last one.
func TestInterpolate(t *testing.T) {
	xs := []float64{100, 200}
	ys := []float64{300, 400}

	tests := []struct {
		x, want float64
	}{
		{0, 0},
		{50, 150},
		{100, 300},
		{150, 350},
		{200, 400},
		{500, 400},
	}
	for _, tt := range tests {
		if got := interpolate(xs, ys, tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("interpolate(%f): got %f, want %f", tt.x, got, tt.want)
		}
	}
}
