package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Side is the direction of a quote request.
type Side uint8

const (
	SideSell Side = iota
	SideBuy
)

func (s Side) String() string {
	switch s {
	case SideSell:
		return "Sell"
	case SideBuy:
		return "Buy"
	default:
		return "UNKNOWN"
	}
}

// Fill is the normalized unit of liquidity the optimizer works with: this much
// input converts to this much output via one source. Input and output are
// always expressed input-side/output-side regardless of buy/sell direction.
//
// Fills are never mutated after construction; adjustments produce new values.
type Fill struct {
	Source Source

	Input  *big.Int
	Output *big.Int

	// AdjustedOutput is Output minus the fee/gas penalty on sells, plus it on
	// buys, denominated in output-token units.
	AdjustedOutput *big.Int

	// Gas is the estimated cost of exercising this fill. Zero for two-hop
	// sub-legs pending scaling, informational elsewhere.
	Gas uint64

	// Flags identifies the source(s) composing this fill; used for
	// exchange-proxy-overhead lookup and VIP classification.
	Flags SourceFlags

	// Data is the source-specific payload (pool address, router, curve
	// indices, ...) needed later to materialize an executable order.
	Data interface{}

	// SourcePathID links the fill back to the sampled path it came from so the
	// optimizer can track precision corrections.
	SourcePathID string
}

// FeeEstimate is the cost of exercising one fill: gas units plus an
// ETH(wei)-denominated fee.
type FeeEstimate struct {
	Gas uint64
	Fee *big.Int
}

// FeeEstimator prices a fill given its source-specific payload.
type FeeEstimator func(data interface{}) FeeEstimate

// FeeSchedule maps each source to its fee estimator.
type FeeSchedule map[Source]FeeEstimator

// ExchangeProxyOverhead prices the extra on-chain overhead (in wei) of the
// execution strategy implied by a combination of source flags.
type ExchangeProxyOverhead func(flags SourceFlags) *big.Int

// Source-specific fill payloads. These are opaque to the optimizer and only
// interpreted by the bridge-data encoders at order-materialization time.

type PoolFillData struct {
	PoolAddress common.Address
}

type UniswapV2FillData struct {
	Router    common.Address
	TokenPath []common.Address
}

// UniswapV3PathAmount maps a sampled input amount to the best pre-encoded pool
// path for that size. Entries are sorted ascending by InputAmount.
type UniswapV3PathAmount struct {
	InputAmount *big.Int
	EncodedPath []byte
	GasUsed     uint64
}

type UniswapV3FillData struct {
	Router      common.Address
	PathAmounts []UniswapV3PathAmount
}

type CurveFillData struct {
	PoolAddress      common.Address
	ExchangeSelector [4]byte
	FromTokenIdx     int64
	ToTokenIdx       int64
}

type BalancerV2FillData struct {
	Vault  common.Address
	PoolID [32]byte
}

type DODOFillData struct {
	Helper      common.Address
	PoolAddress common.Address
	IsSellBase  bool
}

type BancorFillData struct {
	NetworkAddress common.Address
	Path           []common.Address
}

type LidoFillData struct {
	StEthToken  common.Address
	WstEthToken common.Address
}

type MakerPsmFillData struct {
	PsmAddress common.Address
	GemToken   common.Address
}

// AaveV3L2Param is one pre-encoded calldata blob valid for exactly one order
// amount on an L2 deployment.
type AaveV3L2Param struct {
	Amount        *big.Int
	EncodedParams []byte
}

type AaveV3FillData struct {
	Pool            common.Address
	AToken          common.Address
	UnderlyingToken common.Address
	L2EncodedParams []AaveV3L2Param
}

type KyberDMMFillData struct {
	Router    common.Address
	Pools     []common.Address
	TokenPath []common.Address
}

type GMXFillData struct {
	Router    common.Address
	Reader    common.Address
	Vault     common.Address
	TokenPath []common.Address
}

type PlatypusFillData struct {
	Router    common.Address
	Pools     []common.Address
	TokenPath []common.Address
}

type VelodromeFillData struct {
	Router common.Address
	Stable bool
}

// TwoHopFillData carries both legs of a synthetic two-hop route plus the
// intermediate token they meet at.
type TwoHopFillData struct {
	FirstHop          DexSample
	SecondHop         DexSample
	IntermediateToken common.Address
}
