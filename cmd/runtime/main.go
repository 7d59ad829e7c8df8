package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/quote-engine/internal/adapters/sampler"
	"github.com/hxuan190/quote-engine/internal/common"
	"github.com/hxuan190/quote-engine/internal/config"
	"github.com/hxuan190/quote-engine/internal/http"
	"github.com/hxuan190/quote-engine/internal/quote"
)

// @title Quote Engine API
// @version 1.0-beta
// @description DEX aggregation quoting engine: samples every liquidity source for a
// @description token pair, splits the trade optimally across them and returns
// @description executable orders.
// @description
// @description ## - Features
// @description - **Multi-DEX Aggregation**: Routes across Uniswap, Curve, Balancer and dozens more
// @description - **Trade Splitting**: One request may fill through several venues at once
// @description - **Two-Hop Routing**: Automatic routing through intermediate tokens
// @description - **RFQ Integration**: Folds maker quotes into the optimization when enabled
// @description - **Gas-Aware Pricing**: Every candidate is ranked net of execution gas
// @description - **Slippage Protection**: Configurable tolerance baked into returned orders
// @description
// @description ## - API Status
// @description - **Version**: 1.0-beta
// @description - **Rate Limit**: 10 requests/second (burst: 20)
// @description
// @description ## - Usage Tips
// @description - Amounts are base token units (18 decimals for most ERC-20s)
// @description - Set exactly one of sellAmount / buyAmount per request
// @description - Default slippage is 50 bps (0.5%)
// @BasePath /
// @schemes https http
// @tag.name quote
// @tag.description Get optimized swap quotes with executable orders
// @tag.name sources
// @tag.description Discover routable liquidity sources

func main() {
	common.InitRuntimeForLowLatency()

	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	lvl, err := zerolog.ParseLevel(common.GetEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		log.Error().Err(err).Msg("invalid LOG_LEVEL")
		return
	}
	zerolog.SetGlobalLevel(lvl)

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.QuoteConfig{},
	)

	// di container
	dic, err := container.New(
		conf,

		&sampler.Service{},
		&quote.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
