package config

import (
	"errors"

	"github.com/hxuan190/quote-engine/internal/common"
)

type QuoteConfig struct {
	// ChainID selects the VIP source set and chain policy.
	// Default: 1 (mainnet)
	ChainID int

	// DBPath is the path to the BoltDB file for pool persistence.
	// Default: "./data/quote-engine.db"
	DBPath string

	// PersistenceEnabled controls whether pools are persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// PersistInterval is how often pools are batch-saved to disk (in seconds).
	// Default: 30
	PersistInterval int

	// NumSamples is how many points each source's curve is sampled at.
	// Default: 13
	NumSamples int

	// GasPriceGwei prices gas penalties until a live gas oracle is wired.
	// Default: 20
	GasPriceGwei int64

	// RfqEnabled gates the maker round trip globally.
	// Default: false
	RfqEnabled bool
}

func (c *QuoteConfig) Key() string {
	return QUOTE_CONFIG_KEY
}

func (c *QuoteConfig) Load() error {
	c.ChainID = common.GetEnvOrDefaultInt("QUOTE_CHAIN_ID", 1)
	c.DBPath = common.GetEnvOrDefault("QUOTE_DB_PATH", "./data/quote-engine.db")
	c.PersistenceEnabled = common.GetEnvOrDefaultBool("QUOTE_PERSISTENCE_ENABLED", true)
	c.PersistInterval = common.GetEnvOrDefaultInt("QUOTE_PERSIST_INTERVAL", 30)
	c.NumSamples = common.GetEnvOrDefaultInt("QUOTE_NUM_SAMPLES", 13)
	c.GasPriceGwei = common.GetEnvOrDefaultInt64("QUOTE_GAS_PRICE_GWEI", 20)
	c.RfqEnabled = common.GetEnvOrDefaultBool("QUOTE_RFQ_ENABLED", false)
	return nil
}

func (c *QuoteConfig) Validate() error {
	if c.NumSamples < 3 {
		return errors.New("quote config: num samples must be at least 3")
	}
	if c.GasPriceGwei < 0 {
		return errors.New("quote config: gas price must not be negative")
	}
	return nil
}
