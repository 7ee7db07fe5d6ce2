package core

import (
	"fmt"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string `koanf:"addr" mapstructure:"addr"`
}

type WebhookConfig struct {
	Provider         string `koanf:"provider" mapstructure:"provider"`
	Secret           string `koanf:"secret" mapstructure:"secret"`
	VerifySignature  bool   `koanf:"verify_signature" mapstructure:"verify_signature"`
	ToleranceSeconds int    `koanf:"tolerance_seconds" mapstructure:"tolerance_seconds"`
}

// Tolerance is the allowed clock skew between the signature timestamp and
// the local clock.
func (c WebhookConfig) Tolerance() time.Duration {
	if c.ToleranceSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ToleranceSeconds) * time.Second
}

type LedgerConfig struct {
	SeedSampleData bool `koanf:"seed_sample_data" mapstructure:"seed_sample_data"`
}

type JournalConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
}

func (c JournalConfig) Enabled() bool {
	return strings.TrimSpace(c.Driver) != ""
}

type ProviderAPIConfig struct {
	PublishableKey string `koanf:"publishable_key" mapstructure:"publishable_key"`
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	HTTP        HTTPConfig        `koanf:"http" mapstructure:"http"`
	Webhook     WebhookConfig     `koanf:"webhook" mapstructure:"webhook"`
	Ledger      LedgerConfig      `koanf:"ledger" mapstructure:"ledger"`
	Journal     JournalConfig     `koanf:"journal" mapstructure:"journal"`
	ProviderAPI ProviderAPIConfig `koanf:"provider_api" mapstructure:"provider_api"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "payment-ingest",
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Webhook: WebhookConfig{
			Provider:         "stripe",
			VerifySignature:  true,
			ToleranceSeconds: 300,
		},
		Ledger: LedgerConfig{
			SeedSampleData: true,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Webhook.Provider) == "" {
		return fmt.Errorf("core: webhook.provider is required")
	}
	if c.Webhook.ToleranceSeconds < 0 {
		return fmt.Errorf("core: webhook.tolerance_seconds must not be negative")
	}
	if c.Webhook.VerifySignature && strings.TrimSpace(c.Webhook.Secret) == "" {
		return fmt.Errorf("core: webhook.secret is required when signature verification is enabled")
	}
	switch strings.TrimSpace(c.Journal.Driver) {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("core: journal.driver must be sqlite or postgres, got %q", c.Journal.Driver)
	}
	if c.Journal.Enabled() && strings.TrimSpace(c.Journal.DSN) == "" {
		return fmt.Errorf("core: journal.dsn is required when journal.driver is set")
	}
	return nil
}
