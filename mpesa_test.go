package mpesa_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"

	mpesa "github.com/goliatone/go-mpesa"
)

func TestNew_BuildsClientFromRuntimeConfig(t *testing.T) {
	client, err := mpesa.New(mpesa.Config{
		Environment:    mpesa.EnvironmentSandbox,
		ConsumerKey:    "consumer-key",
		ConsumerSecret: "consumer-secret",
		Shortcode:      "174379",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := client.Config().Shortcode; got != "174379" {
		t.Fatalf("expected shortcode to carry through, got %q", got)
	}
	if client.Builder() == nil || client.Tokens() == nil {
		t.Fatalf("expected builder and token manager to be wired")
	}
}

func TestNew_RejectsMissingCredentials(t *testing.T) {
	_, err := mpesa.New(mpesa.Config{Environment: mpesa.EnvironmentSandbox})
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
}
