package core

import (
	glog "github.com/goliatone/go-logger/glog"
)

type serviceBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	httpClient      HTTPDoer
	tokenStore      TokenStore
	tokenIssuer     TokenIssuer
	keyProvider     KeyProvider
	now             Clock
	baseURL         string
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithHTTPClient(client HTTPDoer) Option {
	return func(b *serviceBuilder) {
		b.httpClient = client
	}
}

func WithTokenStore(store TokenStore) Option {
	return func(b *serviceBuilder) {
		b.tokenStore = store
	}
}

// WithTokenIssuer overrides the gateway OAuth issuer; test doubles live
// here.
func WithTokenIssuer(issuer TokenIssuer) Option {
	return func(b *serviceBuilder) {
		b.tokenIssuer = issuer
	}
}

func WithKeyProvider(provider KeyProvider) Option {
	return func(b *serviceBuilder) {
		b.keyProvider = provider
	}
}

// WithBaseURL overrides the environment-derived gateway host. Intended
// for tests and gateway simulators.
func WithBaseURL(baseURL string) Option {
	return func(b *serviceBuilder) {
		b.baseURL = baseURL
	}
}

func WithClock(now Clock) Option {
	return func(b *serviceBuilder) {
		b.now = now
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("mpesa", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}
