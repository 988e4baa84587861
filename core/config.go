package core

import (
	"fmt"
	"strings"
	"time"
)

type AppConfig struct {
	ClientID     string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string   `koanf:"client_secret" mapstructure:"client_secret"`
	RedirectURI  string   `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	Scopes       []string `koanf:"scopes" mapstructure:"scopes"`
}

type StateConfig struct {
	TTL           time.Duration `koanf:"ttl" mapstructure:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval" mapstructure:"sweep_interval"`
}

type TokenConfig struct {
	DefaultValidity time.Duration `koanf:"default_validity" mapstructure:"default_validity"`
}

type RedirectConfig struct {
	SuccessURL string `koanf:"success_url" mapstructure:"success_url"`
	FailureURL string `koanf:"failure_url" mapstructure:"failure_url"`
}

type DiagnosticsConfig struct {
	ExposeAccounts bool `koanf:"expose_accounts" mapstructure:"expose_accounts"`
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	App         AppConfig         `koanf:"app" mapstructure:"app"`
	State       StateConfig       `koanf:"state" mapstructure:"state"`
	Tokens      TokenConfig       `koanf:"tokens" mapstructure:"tokens"`
	Redirects   RedirectConfig    `koanf:"redirects" mapstructure:"redirects"`
	Diagnostics DiagnosticsConfig `koanf:"diagnostics" mapstructure:"diagnostics"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "instagram-connect",
		State: StateConfig{
			TTL:           defaultStateTTL,
			SweepInterval: defaultSweepInterval,
		},
		Tokens: TokenConfig{
			DefaultValidity: defaultTokenValidity,
		},
		Redirects: RedirectConfig{
			SuccessURL: "/connect/success",
			FailureURL: "/connect/error",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.State.TTL < 0 {
		return fmt.Errorf("core: state.ttl must not be negative")
	}
	if c.State.SweepInterval < 0 {
		return fmt.Errorf("core: state.sweep_interval must not be negative")
	}
	if c.Tokens.DefaultValidity < 0 {
		return fmt.Errorf("core: tokens.default_validity must not be negative")
	}
	return nil
}
