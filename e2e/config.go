// Package e2e drives a running hub from the outside.
package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HUB_URL is the base URL of a running hub, e.g. http://localhost:8080
	HubURL string `envconfig:"HUB_URL"`
	// HUB_HEALTH_ADDR is the gRPC health address, probing is skipped when empty
	HealthAddr string `envconfig:"HUB_HEALTH_ADDR"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
