package router

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// GetRate is the nominal exchange rate of a fill or path: output per input on
// sells, input per output on buys, so that bigger is always better.
func GetRate(side domain.Side, input, output *big.Int) decimal.Decimal {
	if input == nil || output == nil || input.Sign() == 0 || output.Sign() == 0 {
		return decimal.Zero
	}
	in := decimal.NewFromBigInt(input, 0)
	out := decimal.NewFromBigInt(output, 0)
	if side == domain.SideSell {
		return out.Div(in)
	}
	return in.Div(out)
}

// GetCompleteRate penalizes a partial fill against the requested target input:
// an incomplete path's rate shrinks with its shortfall.
func GetCompleteRate(side domain.Side, input, output, targetInput *big.Int) decimal.Decimal {
	if input == nil || output == nil || targetInput == nil ||
		input.Sign() == 0 || output.Sign() == 0 || targetInput.Sign() == 0 {
		return decimal.Zero
	}
	in := decimal.NewFromBigInt(input, 0)
	out := decimal.NewFromBigInt(output, 0)
	target := decimal.NewFromBigInt(targetInput, 0)
	if side == domain.SideSell {
		return out.Div(target)
	}
	return in.Div(out).Mul(in.Div(target))
}
