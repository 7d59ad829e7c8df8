package domain

import (
	"github.com/holiman/uint256"
)

// Source identifies a liquidity venue. Native is the off-chain signed-order
// book, MultiHop marks a synthetic two-hop route; everything else is an AMM.
//
// The ordinal doubles as the bit index inside a SourceFlags mask, so new
// sources must only ever be appended.
type Source uint8

const (
	SourceNative Source = iota
	SourceMultiHop

	SourceUniswap
	SourceUniswapV2
	SourceUniswapV3
	SourceSushiSwap
	SourceShibaSwap
	SourceCryptoCom
	SourceLinkswap
	SourcePancakeSwap
	SourcePancakeSwapV2
	SourceBakerySwap
	SourceApeSwap
	SourceCheeseSwap
	SourceJulSwap
	SourceQuickSwap
	SourceComethSwap
	SourceDfyn
	SourceWaultSwap
	SourcePolydex
	SourceJetSwap
	SourcePangolin
	SourceTraderJoe
	SourceSpiritSwap
	SourceSpookySwap
	SourceBiSwap
	SourceMDex
	SourceKnightSwap
	SourceMorpheusSwap

	SourceCurve
	SourceCurveV2
	SourceSwerve
	SourceSnowSwap
	SourceNerve
	SourceBelt
	SourceEllipsis
	SourceSmoothy
	SourceSaddle
	SourceIronSwap
	SourceXSigma
	SourceACryptoS
	SourceSynapse
	SourceFirebirdOneSwap
	SourceMobiusMoney

	SourceKyber
	SourceKyberDMM
	SourceKyberElastic
	SourceBalancer
	SourceBalancerV2
	SourceBeethovenX
	SourceBancor
	SourceBancorV3
	SourceMStable
	SourceMooniswap
	SourceShell
	SourceComponent
	SourceDODO
	SourceDODOV2
	SourceLido
	SourceMakerPsm
	SourceAaveV2
	SourceAaveV3
	SourceCompound
	SourceGMX
	SourcePlatypus
	SourceWOOFi
	SourceVelodrome
	SourceSolidly
	SourceDystopia
	SourceClipper

	numSources
)

var sourceNames = [numSources]string{
	SourceNative:          "Native",
	SourceMultiHop:        "MultiHop",
	SourceUniswap:         "Uniswap",
	SourceUniswapV2:       "Uniswap_V2",
	SourceUniswapV3:       "Uniswap_V3",
	SourceSushiSwap:       "SushiSwap",
	SourceShibaSwap:       "ShibaSwap",
	SourceCryptoCom:       "CryptoCom",
	SourceLinkswap:        "Linkswap",
	SourcePancakeSwap:     "PancakeSwap",
	SourcePancakeSwapV2:   "PancakeSwap_V2",
	SourceBakerySwap:      "BakerySwap",
	SourceApeSwap:         "ApeSwap",
	SourceCheeseSwap:      "CheeseSwap",
	SourceJulSwap:         "JulSwap",
	SourceQuickSwap:       "QuickSwap",
	SourceComethSwap:      "ComethSwap",
	SourceDfyn:            "Dfyn",
	SourceWaultSwap:       "WaultSwap",
	SourcePolydex:         "Polydex",
	SourceJetSwap:         "JetSwap",
	SourcePangolin:        "Pangolin",
	SourceTraderJoe:       "TraderJoe",
	SourceSpiritSwap:      "SpiritSwap",
	SourceSpookySwap:      "SpookySwap",
	SourceBiSwap:          "BiSwap",
	SourceMDex:            "MDex",
	SourceKnightSwap:      "KnightSwap",
	SourceMorpheusSwap:    "MorpheusSwap",
	SourceCurve:           "Curve",
	SourceCurveV2:         "Curve_V2",
	SourceSwerve:          "Swerve",
	SourceSnowSwap:        "SnowSwap",
	SourceNerve:           "Nerve",
	SourceBelt:            "Belt",
	SourceEllipsis:        "Ellipsis",
	SourceSmoothy:         "Smoothy",
	SourceSaddle:          "Saddle",
	SourceIronSwap:        "IronSwap",
	SourceXSigma:          "xSigma",
	SourceACryptoS:        "ACryptoS",
	SourceSynapse:         "Synapse",
	SourceFirebirdOneSwap: "FirebirdOneSwap",
	SourceMobiusMoney:     "MobiusMoney",
	SourceKyber:           "Kyber",
	SourceKyberDMM:        "KyberDMM",
	SourceKyberElastic:    "KyberElastic",
	SourceBalancer:        "Balancer",
	SourceBalancerV2:      "Balancer_V2",
	SourceBeethovenX:      "Beethovenx",
	SourceBancor:          "Bancor",
	SourceBancorV3:        "BancorV3",
	SourceMStable:         "mStable",
	SourceMooniswap:       "Mooniswap",
	SourceShell:           "Shell",
	SourceComponent:       "Component",
	SourceDODO:            "DODO",
	SourceDODOV2:          "DODO_V2",
	SourceLido:            "Lido",
	SourceMakerPsm:        "MakerPsm",
	SourceAaveV2:          "Aave_V2",
	SourceAaveV3:          "Aave_V3",
	SourceCompound:        "Compound",
	SourceGMX:             "GMX",
	SourcePlatypus:        "Platypus",
	SourceWOOFi:           "WOOFi",
	SourceVelodrome:       "Velodrome",
	SourceSolidly:         "Solidly",
	SourceDystopia:        "Dystopia",
	SourceClipper:         "Clipper",
}

func (s Source) String() string {
	if s >= numSources {
		return "UNKNOWN"
	}
	return sourceNames[s]
}

// NumSources is the number of defined sources, exported for sizing tables.
const NumSources = int(numSources)

// SourceFlags is a wide bitmask over sources. A 256-bit field leaves plenty of
// headroom above the current source count; never truncate this to a machine
// integer.
type SourceFlags = uint256.Int

// Flag returns the single-bit mask for s.
func (s Source) Flag() SourceFlags {
	var f uint256.Int
	f.Lsh(uint256.NewInt(1), uint(s))
	return f
}

// CombineFlags ORs any number of flag masks together.
func CombineFlags(flags ...SourceFlags) SourceFlags {
	var out uint256.Int
	for i := range flags {
		out.Or(&out, &flags[i])
	}
	return out
}

// HasSourceFlag reports whether the bit for s is set in flags.
func HasSourceFlag(flags SourceFlags, s Source) bool {
	f := s.Flag()
	var and uint256.Int
	return !and.And(&flags, &f).IsZero()
}

// vipSourcesByChain lists sources whose fills can bypass the generic
// transformer path on a given chain. Native RFQ/OTC orders are VIP-classified
// separately (limit orders are not VIP-eligible).
var vipSourcesByChain = map[int][]Source{
	1:     {SourceUniswapV2, SourceSushiSwap, SourceUniswapV3, SourcePancakeSwapV2},
	56:    {SourcePancakeSwap, SourcePancakeSwapV2, SourceBakerySwap, SourceSushiSwap, SourceApeSwap},
	137:   {SourceQuickSwap, SourceSushiSwap, SourceUniswapV3},
	10:    {SourceUniswapV3},
	42161: {SourceUniswapV3, SourceSushiSwap},
}

// VIPSourcesForChain returns the VIP source set for a chain id. Unknown chains
// get an empty set.
func VIPSourcesForChain(chainID int) map[Source]struct{} {
	out := make(map[Source]struct{})
	for _, s := range vipSourcesByChain[chainID] {
		out[s] = struct{}{}
	}
	return out
}

// VIPSourceFlagsForChain is the union of VIP source flags for a chain id.
func VIPSourceFlagsForChain(chainID int) SourceFlags {
	var out uint256.Int
	for _, s := range vipSourcesByChain[chainID] {
		f := s.Flag()
		out.Or(&out, &f)
	}
	return out
}
