// Package router implements the liquidity aggregation core: fill
// normalization, path math and the path optimizer that turns per-source
// samples into one globally near-optimal execution plan.
package router

import "errors"

var (
	// ErrNoOptimalPath is raised at the market facade boundary when no
	// execution path exists after every optimization phase. Inside this
	// package "no path" travels as a nil result, never as an error.
	ErrNoOptimalPath = errors.New("no optimal path found")

	// ErrTargetInputMismatch means two paths built for different target
	// inputs were compared. Programming error, not recoverable.
	ErrTargetInputMismatch = errors.New("paths have different target inputs")

	// ErrInvalidSlippage means a max-slippage outside [0, 1] was supplied.
	ErrInvalidSlippage = errors.New("max slippage must be within [0, 1]")
)
