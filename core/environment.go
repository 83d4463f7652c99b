package core

import (
	"fmt"
	"os"
	"strings"
)

type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
)

func (e Environment) Valid() bool {
	switch e {
	case EnvironmentSandbox, EnvironmentProduction:
		return true
	}
	return false
}

// BaseURL selects the gateway host for the environment. Selection happens
// once at client construction.
func (e Environment) BaseURL() string {
	if e == EnvironmentProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// FileKeyProvider loads per-environment public key material from disk.
type FileKeyProvider struct {
	SandboxPath    string
	ProductionPath string
}

func (p FileKeyProvider) PublicKey(env Environment) ([]byte, error) {
	path := p.SandboxPath
	if env == EnvironmentProduction {
		path = p.ProductionPath
	}
	if strings.TrimSpace(path) == "" {
		return nil, keyLoadError(fmt.Sprintf("core: no certificate path configured for %q environment", env), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, keyLoadError(fmt.Sprintf("core: read certificate for %q environment", env), err)
	}
	return data, nil
}

// StaticKeyProvider serves fixed key bytes per environment.
type StaticKeyProvider map[Environment][]byte

func (p StaticKeyProvider) PublicKey(env Environment) ([]byte, error) {
	data, ok := p[env]
	if !ok || len(data) == 0 {
		return nil, keyLoadError(fmt.Sprintf("core: no key material registered for %q environment", env), nil)
	}
	return data, nil
}
