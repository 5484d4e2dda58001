package core

import (
	"fmt"
	"strings"
	"time"
)

type RefreshConfig struct {
	LeadWindow     time.Duration `koanf:"lead_window" mapstructure:"lead_window"`
	RequestTimeout time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type ConsentConfig struct {
	WatchInterval time.Duration `koanf:"watch_interval" mapstructure:"watch_interval"`
	Timeout       time.Duration `koanf:"timeout" mapstructure:"timeout"`
	AppOrigin     string        `koanf:"app_origin" mapstructure:"app_origin"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Refresh     RefreshConfig `koanf:"refresh" mapstructure:"refresh"`
	Consent     ConsentConfig `koanf:"consent" mapstructure:"consent"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "credentials",
		Refresh: RefreshConfig{
			LeadWindow:     DefaultRefreshLeadWindow,
			RequestTimeout: defaultTokenRequestTimeout,
		},
		Consent: ConsentConfig{
			WatchInterval: defaultConsentWatchInterval,
			Timeout:       defaultConsentTimeout,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Refresh.LeadWindow < 0 {
		return fmt.Errorf("core: refresh lead_window must not be negative")
	}
	if c.Consent.WatchInterval < 0 {
		return fmt.Errorf("core: consent watch_interval must not be negative")
	}
	return nil
}
