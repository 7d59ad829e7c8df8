package config

import (
	"fmt"

	"github.com/hxuan190/quote-engine/internal/common"
)

const (
	DevEnv     = "dev"
	StagingEnv = "staging"
	ProdEnv    = "prod"
)

const (
	GENERAL_CONFIG_KEY = "general-config"
	QUOTE_CONFIG_KEY   = "quote-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "0.0.0.0")
	gc.Env = common.GetEnvOrDefault("ENV", DevEnv)
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" {
		return fmt.Errorf("general config: listen address incomplete: %q:%q", gc.HTTPHost, gc.HTTPPort)
	}
	switch gc.Env {
	case DevEnv, StagingEnv, ProdEnv:
	default:
		return fmt.Errorf("general config: unknown env %q", gc.Env)
	}
	return nil
}
