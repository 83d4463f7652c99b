package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// Config carries the merchant credentials and the per-operation callback
// URL set. URL fields are validated at build time, not at load time, so a
// client configured for a subset of operations does not need the rest.
type Config struct {
	Environment    Environment `koanf:"environment" mapstructure:"environment"`
	ConsumerKey    string      `koanf:"consumer_key" mapstructure:"consumer_key"`
	ConsumerSecret string      `koanf:"consumer_secret" mapstructure:"consumer_secret"`
	Shortcode      string      `koanf:"shortcode" mapstructure:"shortcode"`

	InitiatorName     string `koanf:"initiator_name" mapstructure:"initiator_name"`
	InitiatorPassword string `koanf:"initiator_password" mapstructure:"initiator_password"`
	Passkey           string `koanf:"passkey" mapstructure:"passkey"`

	SandboxCertificatePath    string `koanf:"sandbox_certificate_path" mapstructure:"sandbox_certificate_path"`
	ProductionCertificatePath string `koanf:"production_certificate_path" mapstructure:"production_certificate_path"`

	STKCallbackURL     string `koanf:"stk_callback_url" mapstructure:"stk_callback_url"`
	C2BValidationURL   string `koanf:"c2b_validation_url" mapstructure:"c2b_validation_url"`
	C2BConfirmationURL string `koanf:"c2b_confirmation_url" mapstructure:"c2b_confirmation_url"`

	BalanceResultURL   string `koanf:"balance_result_url" mapstructure:"balance_result_url"`
	BalanceTimeoutURL  string `koanf:"balance_timeout_url" mapstructure:"balance_timeout_url"`
	StatusResultURL    string `koanf:"status_result_url" mapstructure:"status_result_url"`
	StatusTimeoutURL   string `koanf:"status_timeout_url" mapstructure:"status_timeout_url"`
	B2CResultURL       string `koanf:"b2c_result_url" mapstructure:"b2c_result_url"`
	B2CTimeoutURL      string `koanf:"b2c_timeout_url" mapstructure:"b2c_timeout_url"`
	B2BResultURL       string `koanf:"b2b_result_url" mapstructure:"b2b_result_url"`
	B2BTimeoutURL      string `koanf:"b2b_timeout_url" mapstructure:"b2b_timeout_url"`
	ReversalResultURL  string `koanf:"reversal_result_url" mapstructure:"reversal_result_url"`
	ReversalTimeoutURL string `koanf:"reversal_timeout_url" mapstructure:"reversal_timeout_url"`
	TaxResultURL       string `koanf:"tax_result_url" mapstructure:"tax_result_url"`
	TaxTimeoutURL      string `koanf:"tax_timeout_url" mapstructure:"tax_timeout_url"`

	BillOptInCallbackURL string `koanf:"bill_optin_callback_url" mapstructure:"bill_optin_callback_url"`
}

func DefaultConfig() Config {
	return Config{
		Environment: EnvironmentSandbox,
	}
}

func (c Config) Validate() error {
	if !c.Environment.Valid() {
		return validationError("environment", fmt.Sprintf("must be %q or %q", EnvironmentSandbox, EnvironmentProduction))
	}
	if strings.TrimSpace(c.ConsumerKey) == "" {
		return validationError("consumer_key", "is required")
	}
	if strings.TrimSpace(c.ConsumerSecret) == "" {
		return validationError("consumer_secret", "is required")
	}
	if strings.TrimSpace(c.Shortcode) == "" {
		return validationError("shortcode", "is required")
	}
	return nil
}

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	// Validation waits until every layer has merged; a partial load is
	// allowed to miss required fields.
	cfg, err := cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	set := func(key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = value
		}
	}
	set("environment", string(cfg.Environment))
	set("consumer_key", cfg.ConsumerKey)
	set("consumer_secret", cfg.ConsumerSecret)
	set("shortcode", cfg.Shortcode)
	set("initiator_name", cfg.InitiatorName)
	set("initiator_password", cfg.InitiatorPassword)
	set("passkey", cfg.Passkey)
	set("sandbox_certificate_path", cfg.SandboxCertificatePath)
	set("production_certificate_path", cfg.ProductionCertificatePath)
	set("stk_callback_url", cfg.STKCallbackURL)
	set("c2b_validation_url", cfg.C2BValidationURL)
	set("c2b_confirmation_url", cfg.C2BConfirmationURL)
	set("balance_result_url", cfg.BalanceResultURL)
	set("balance_timeout_url", cfg.BalanceTimeoutURL)
	set("status_result_url", cfg.StatusResultURL)
	set("status_timeout_url", cfg.StatusTimeoutURL)
	set("b2c_result_url", cfg.B2CResultURL)
	set("b2c_timeout_url", cfg.B2CTimeoutURL)
	set("b2b_result_url", cfg.B2BResultURL)
	set("b2b_timeout_url", cfg.B2BTimeoutURL)
	set("reversal_result_url", cfg.ReversalResultURL)
	set("reversal_timeout_url", cfg.ReversalTimeoutURL)
	set("tax_result_url", cfg.TaxResultURL)
	set("tax_timeout_url", cfg.TaxTimeoutURL)
	set("bill_optin_callback_url", cfg.BillOptInCallbackURL)
	return layer
}
