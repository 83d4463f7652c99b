package core

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing environment", func(c *Config) { c.Environment = "" }, "environment"},
		{"unknown environment", func(c *Config) { c.Environment = "staging" }, "environment"},
		{"missing consumer key", func(c *Config) { c.ConsumerKey = "" }, "consumer_key"},
		{"missing consumer secret", func(c *Config) { c.ConsumerSecret = " " }, "consumer_secret"},
		{"missing shortcode", func(c *Config) { c.Shortcode = "" }, "shortcode"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var richErr *goerrors.Error
			if !goerrors.As(err, &richErr) {
				t.Fatalf("expected go-errors type, got %T", err)
			}
			if richErr.TextCode != ClientErrorConfigInvalid {
				t.Fatalf("expected config text code, got %q", richErr.TextCode)
			}
			validation := richErr.AllValidationErrors()
			if len(validation) == 0 || validation[0].Field != tc.field {
				t.Fatalf("expected field error for %q, got %+v", tc.field, validation)
			}
		})
	}

	if err := testConfig().Validate(); err != nil {
		t.Fatalf("expected complete config to validate, got %v", err)
	}
}

func TestCfgxConfigProvider_MergesRawOverDefaults(t *testing.T) {
	provider := NewCfgxConfigProvider(staticRawConfigLoader{Values: map[string]any{
		"consumer_key": "loaded-key",
		"shortcode":    "600000",
	}})

	loaded, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Environment != EnvironmentSandbox {
		t.Fatalf("expected default environment, got %q", loaded.Environment)
	}
	if loaded.ConsumerKey != "loaded-key" || loaded.Shortcode != "600000" {
		t.Fatalf("expected raw values to win, got %+v", loaded)
	}
}

func TestGoOptionsResolver_RuntimeWinsOverLoaded(t *testing.T) {
	loaded := Config{
		ConsumerKey:    "loaded-key",
		ConsumerSecret: "loaded-secret",
		Shortcode:      "600000",
	}
	runtime := Config{
		ConsumerKey: "runtime-key",
	}

	resolved, err := GoOptionsResolver{}.Resolve(DefaultConfig(), loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ConsumerKey != "runtime-key" {
		t.Fatalf("expected runtime consumer key, got %q", resolved.ConsumerKey)
	}
	if resolved.ConsumerSecret != "loaded-secret" {
		t.Fatalf("expected loaded consumer secret, got %q", resolved.ConsumerSecret)
	}
	if resolved.Environment != EnvironmentSandbox {
		t.Fatalf("expected default environment, got %q", resolved.Environment)
	}
}
