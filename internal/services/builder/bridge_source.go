// Package builder materializes optimizer fills into executable orders: native
// orders pass through with resolved amounts, AMM fills become bridge orders
// carrying an ABI-encoded source payload.
package builder

import (
	"errors"
	"fmt"

	"github.com/hxuan190/quote-engine/internal/domain"
)

// ErrNoBridgeForSource means a fill's source has no on-chain bridge: either it
// is not an AMM at all (Native, MultiHop) or no adapter exists for it.
var ErrNoBridgeForSource = errors.New("no bridge adapter for source")

// BridgeProtocol identifies the on-chain adapter family a bridge order
// executes through. Values are part of the encoded bridge source id and must
// stay stable.
type BridgeProtocol uint8

const (
	protocolUnknown BridgeProtocol = iota
	protocolCurve
	protocolUniswapV2
	protocolUniswap
	protocolUniswapV3
	protocolBalancer
	protocolBalancerV2
	protocolMStable
	protocolMooniswap
	protocolShell
	protocolDodo
	protocolDodoV2
	protocolBancor
	protocolBancorV3
	protocolKyber
	protocolKyberDMM
	protocolKyberElastic
	protocolLido
	protocolMakerPsm
	protocolAaveV2
	protocolAaveV3
	protocolCompound
	protocolGMX
	protocolPlatypus
	protocolWOOFi
	protocolVelodrome
	protocolClipper
)

// bridgeProtocols maps each AMM source to its adapter family. Sources sharing
// an adapter share a payload layout; the encoders in bridge_data.go follow
// this table.
var bridgeProtocols = map[domain.Source]BridgeProtocol{
	domain.SourceUniswap: protocolUniswap,

	domain.SourceUniswapV2:     protocolUniswapV2,
	domain.SourceSushiSwap:     protocolUniswapV2,
	domain.SourceShibaSwap:     protocolUniswapV2,
	domain.SourceCryptoCom:     protocolUniswapV2,
	domain.SourceLinkswap:      protocolUniswapV2,
	domain.SourcePancakeSwap:   protocolUniswapV2,
	domain.SourcePancakeSwapV2: protocolUniswapV2,
	domain.SourceBakerySwap:    protocolUniswapV2,
	domain.SourceApeSwap:       protocolUniswapV2,
	domain.SourceCheeseSwap:    protocolUniswapV2,
	domain.SourceJulSwap:       protocolUniswapV2,
	domain.SourceQuickSwap:     protocolUniswapV2,
	domain.SourceComethSwap:    protocolUniswapV2,
	domain.SourceDfyn:          protocolUniswapV2,
	domain.SourceWaultSwap:     protocolUniswapV2,
	domain.SourcePolydex:       protocolUniswapV2,
	domain.SourceJetSwap:       protocolUniswapV2,
	domain.SourcePangolin:      protocolUniswapV2,
	domain.SourceTraderJoe:     protocolUniswapV2,
	domain.SourceSpiritSwap:    protocolUniswapV2,
	domain.SourceSpookySwap:    protocolUniswapV2,
	domain.SourceBiSwap:        protocolUniswapV2,
	domain.SourceMDex:          protocolUniswapV2,
	domain.SourceKnightSwap:    protocolUniswapV2,
	domain.SourceMorpheusSwap:  protocolUniswapV2,

	domain.SourceCurve:           protocolCurve,
	domain.SourceCurveV2:         protocolCurve,
	domain.SourceSwerve:          protocolCurve,
	domain.SourceSnowSwap:        protocolCurve,
	domain.SourceNerve:           protocolCurve,
	domain.SourceBelt:            protocolCurve,
	domain.SourceEllipsis:        protocolCurve,
	domain.SourceSmoothy:         protocolCurve,
	domain.SourceSaddle:          protocolCurve,
	domain.SourceIronSwap:        protocolCurve,
	domain.SourceXSigma:          protocolCurve,
	domain.SourceACryptoS:        protocolCurve,
	domain.SourceSynapse:         protocolCurve,
	domain.SourceFirebirdOneSwap: protocolCurve,
	domain.SourceMobiusMoney:     protocolCurve,

	domain.SourceUniswapV3:    protocolUniswapV3,
	domain.SourceKyberElastic: protocolKyberElastic,

	domain.SourceBalancer:   protocolBalancer,
	domain.SourceBalancerV2: protocolBalancerV2,
	domain.SourceBeethovenX: protocolBalancerV2,

	domain.SourceKyber:    protocolKyber,
	domain.SourceKyberDMM: protocolKyberDMM,

	domain.SourceBancor:   protocolBancor,
	domain.SourceBancorV3: protocolBancorV3,

	domain.SourceMStable:   protocolMStable,
	domain.SourceMooniswap: protocolMooniswap,
	domain.SourceShell:     protocolShell,
	domain.SourceComponent: protocolShell,

	domain.SourceDODO:   protocolDodo,
	domain.SourceDODOV2: protocolDodoV2,

	domain.SourceLido:     protocolLido,
	domain.SourceMakerPsm: protocolMakerPsm,
	domain.SourceAaveV2:   protocolAaveV2,
	domain.SourceAaveV3:   protocolAaveV3,
	domain.SourceCompound: protocolCompound,

	domain.SourceGMX:      protocolGMX,
	domain.SourcePlatypus: protocolPlatypus,
	domain.SourceWOOFi:    protocolWOOFi,

	domain.SourceVelodrome: protocolVelodrome,
	domain.SourceSolidly:   protocolVelodrome,
	domain.SourceDystopia:  protocolVelodrome,

	domain.SourceClipper: protocolClipper,
}

// Payload-shape predicates for liquidity collectors that synthesize fill
// data without knowing the adapter table.

// UsesRouterPath reports whether the source's adapter takes a router plus
// token-path payload.
func UsesRouterPath(source domain.Source) bool {
	return bridgeProtocols[source] == protocolUniswapV2
}

// UsesStableFlag reports whether the source's adapter takes a router plus
// stable-curve flag payload.
func UsesStableFlag(source domain.Source) bool {
	return bridgeProtocols[source] == protocolVelodrome
}

// UsesCurveIndices reports whether the source's adapter takes a curve-style
// pool/selector/index payload.
func UsesCurveIndices(source domain.Source) bool {
	return bridgeProtocols[source] == protocolCurve
}

// BridgeSourceID packs the adapter family and the source name into a bytes32:
// family id in the top 16 bytes, ASCII source name (truncated) in the bottom
// 16. The on-chain side only dispatches on the family; the name is for
// tracing.
func BridgeSourceID(source domain.Source) ([32]byte, error) {
	var id [32]byte
	protocol, ok := bridgeProtocols[source]
	if !ok {
		return id, fmt.Errorf("%w: %s", ErrNoBridgeForSource, source)
	}
	id[15] = byte(protocol)
	name := source.String()
	if len(name) > 16 {
		name = name[:16]
	}
	copy(id[16:], name)
	return id, nil
}
