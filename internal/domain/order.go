package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NativeOrderType distinguishes the off-chain order flavors. Limit orders
// route through a different execution transformer and are not VIP-eligible.
type NativeOrderType uint8

const (
	NativeOrderTypeLimit NativeOrderType = iota
	NativeOrderTypeRfq
	NativeOrderTypeOtc
)

func (t NativeOrderType) String() string {
	switch t {
	case NativeOrderTypeLimit:
		return "Limit"
	case NativeOrderTypeRfq:
		return "Rfq"
	case NativeOrderTypeOtc:
		return "Otc"
	default:
		return "UNKNOWN"
	}
}

// NativeOrder is an off-chain signed order.
type NativeOrder struct {
	Type                NativeOrderType
	Maker               common.Address
	Taker               common.Address
	MakerToken          common.Address
	TakerToken          common.Address
	MakerAmount         *big.Int
	TakerAmount         *big.Int
	TakerTokenFeeAmount *big.Int
	Expiry              uint64
	Signature           string
}

// NativeOrderWithFillableAmounts pairs an order with its currently fillable
// amounts, as resolved by the order book / balance checks.
type NativeOrderWithFillableAmounts struct {
	Order NativeOrder

	FillableMakerAmount    *big.Int
	FillableTakerAmount    *big.Int
	FillableTakerFeeAmount *big.Int
}

// OrderType tags a materialized order.
type OrderType uint8

const (
	OrderTypeBridge OrderType = iota
	OrderTypeNative
)

// OptimizedOrder is the executable form of one chosen fill.
type OptimizedOrder struct {
	Type   OrderType
	Source Source

	MakerToken  common.Address
	TakerToken  common.Address
	MakerAmount *big.Int
	TakerAmount *big.Int

	// Fill is the fill this order was materialized from.
	Fill *Fill

	// BridgeData is the ABI-encoded source-specific payload; set for bridge
	// orders only.
	BridgeData []byte

	// NativeOrder is set for native orders only.
	NativeOrder *NativeOrderWithFillableAmounts
}

// TwoHopOrderPair is the two legs of a two-hop route, in execution order.
type TwoHopOrderPair struct {
	FirstHop  *OptimizedOrder
	SecondHop *OptimizedOrder
}

// OrdersByType partitions a path's materialized orders. Computed on demand,
// never stored independently of the path.
type OrdersByType struct {
	NativeOrders []*OptimizedOrder
	TwoHopOrders []TwoHopOrderPair
	BridgeOrders []*OptimizedOrder
}

// All flattens the partition back into one slice, two-hop legs in execution
// order.
func (o OrdersByType) All() []*OptimizedOrder {
	out := make([]*OptimizedOrder, 0, len(o.NativeOrders)+len(o.BridgeOrders)+2*len(o.TwoHopOrders))
	out = append(out, o.NativeOrders...)
	for _, pair := range o.TwoHopOrders {
		out = append(out, pair.FirstHop, pair.SecondHop)
	}
	out = append(out, o.BridgeOrders...)
	return out
}
