package builder

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/hxuan190/quote-engine/internal/domain"
)

var (
	// ErrInvalidFillData means a fill's payload does not match what its
	// source's encoder expects. Data corruption upstream, never recoverable.
	ErrInvalidFillData = errors.New("fill data does not match source")

	// ErrNoAaveL2Params means an Aave V3 L2 fill has no pre-encoded calldata
	// for the order's exact amount.
	ErrNoAaveL2Params = errors.New("no aave v3 l2 params for order amount")
)

func mustABIType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var (
	typAddress      = mustABIType("address")
	typAddressSlice = mustABIType("address[]")
	typBytes        = mustABIType("bytes")
	typBytes4       = mustABIType("bytes4")
	typBytes32      = mustABIType("bytes32")
	typBool         = mustABIType("bool")
	typInt128       = mustABIType("int128")
)

type bridgeDataEncoder func(fill *domain.Fill) ([]byte, error)

var bridgeDataEncoders map[BridgeProtocol]bridgeDataEncoder

func init() {
	bridgeDataEncoders = map[BridgeProtocol]bridgeDataEncoder{
		protocolCurve:        encodeCurve,
		protocolUniswapV2:    encodeUniswapV2,
		protocolUniswap:      encodePool,
		protocolUniswapV3:    encodeUniswapV3,
		protocolKyberElastic: encodeUniswapV3,
		protocolBalancer:     encodePool,
		protocolBalancerV2:   encodeBalancerV2,
		protocolMStable:      encodePool,
		protocolMooniswap:    encodePool,
		protocolShell:        encodePool,
		protocolDodo:         encodeDodo,
		protocolDodoV2:       encodeDodo,
		protocolBancor:       encodeBancor,
		protocolBancorV3:     encodeBancor,
		protocolKyber:        encodePool,
		protocolKyberDMM:     encodeKyberDMM,
		protocolLido:         encodeLido,
		protocolMakerPsm:     encodeMakerPsm,
		protocolAaveV2:       encodePool,
		protocolAaveV3:       encodeAaveV3,
		protocolCompound:     encodePool,
		protocolGMX:          encodeGMX,
		protocolPlatypus:     encodePlatypus,
		protocolWOOFi:        encodePool,
		protocolVelodrome:    encodeVelodrome,
		protocolClipper:      encodePool,
	}
}

// EncodeBridgeData produces the adapter payload for one fill.
func EncodeBridgeData(fill *domain.Fill) ([]byte, error) {
	protocol, ok := bridgeProtocols[fill.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBridgeForSource, fill.Source)
	}
	enc, ok := bridgeDataEncoders[protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBridgeForSource, fill.Source)
	}
	return enc(fill)
}

func encodeCurve(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.CurveFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typBytes4}, {Type: typInt128}, {Type: typInt128}}
	return args.Pack(d.PoolAddress, d.ExchangeSelector, big.NewInt(d.FromTokenIdx), big.NewInt(d.ToTokenIdx))
}

func encodeUniswapV2(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.UniswapV2FillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddressSlice}}
	return args.Pack(d.Router, d.TokenPath)
}

func encodePool(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.PoolFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}}
	return args.Pack(d.PoolAddress)
}

// encodeUniswapV3 picks the pre-encoded pool path sampled closest above the
// fill's size; executing a big fill over a path sampled for a small one can
// blow through a shallow pool.
func encodeUniswapV3(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.UniswapV3FillData)
	if !ok || len(d.PathAmounts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	path := d.PathAmounts[len(d.PathAmounts)-1].EncodedPath
	if fill.Input != nil {
		for _, pa := range d.PathAmounts {
			if pa.InputAmount.Cmp(fill.Input) >= 0 {
				path = pa.EncodedPath
				break
			}
		}
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typBytes}}
	return args.Pack(d.Router, path)
}

func encodeBalancerV2(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.BalancerV2FillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typBytes32}}
	return args.Pack(d.Vault, d.PoolID)
}

func encodeDodo(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.DODOFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddress}, {Type: typBool}}
	return args.Pack(d.Helper, d.PoolAddress, d.IsSellBase)
}

func encodeBancor(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.BancorFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddressSlice}}
	return args.Pack(d.NetworkAddress, d.Path)
}

func encodeKyberDMM(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.KyberDMMFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddressSlice}, {Type: typAddressSlice}}
	return args.Pack(d.Router, d.Pools, d.TokenPath)
}

func encodeLido(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.LidoFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddress}}
	return args.Pack(d.StEthToken, d.WstEthToken)
}

func encodeMakerPsm(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.MakerPsmFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddress}}
	return args.Pack(d.PsmAddress, d.GemToken)
}

// encodeAaveV3 requires an exact-amount match on L2 deployments: the
// pre-encoded calldata binds the amount, so a near miss is unusable.
func encodeAaveV3(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.AaveV3FillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	if len(d.L2EncodedParams) == 0 {
		args := abi.Arguments{{Type: typAddress}, {Type: typAddress}}
		return args.Pack(d.Pool, d.AToken)
	}
	for _, p := range d.L2EncodedParams {
		if p.Amount != nil && p.Amount.Cmp(fill.Input) == 0 {
			args := abi.Arguments{{Type: typAddress}, {Type: typAddress}, {Type: typBytes}}
			return args.Pack(d.Pool, d.AToken, p.EncodedParams)
		}
	}
	return nil, fmt.Errorf("%w: amount %s", ErrNoAaveL2Params, fill.Input)
}

func encodeGMX(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.GMXFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddress}, {Type: typAddress}, {Type: typAddressSlice}}
	return args.Pack(d.Router, d.Reader, d.Vault, d.TokenPath)
}

func encodePlatypus(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.PlatypusFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typAddressSlice}, {Type: typAddressSlice}}
	return args.Pack(d.Router, d.Pools, d.TokenPath)
}

func encodeVelodrome(fill *domain.Fill) ([]byte, error) {
	d, ok := fill.Data.(*domain.VelodromeFillData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFillData, fill.Source)
	}
	args := abi.Arguments{{Type: typAddress}, {Type: typBool}}
	return args.Pack(d.Router, d.Stable)
}
