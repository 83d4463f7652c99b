package mpesa

import (
	"github.com/goliatone/go-mpesa/core"
)

type (
	Client      = core.Service
	Config      = core.Config
	Environment = core.Environment
	Token       = core.Token
	TokenStore  = core.TokenStore
	KeyProvider = core.KeyProvider
	Response    = core.Response
	Option      = core.Option

	STKPushRequest           = core.STKPushRequest
	B2CRequest               = core.B2CRequest
	B2BRequest               = core.B2BRequest
	TransactionStatusRequest = core.TransactionStatusRequest
	ReversalRequest          = core.ReversalRequest
	DynamicQRRequest         = core.DynamicQRRequest
	TaxRemittanceRequest     = core.TaxRemittanceRequest
	BillManagerOptInRequest  = core.BillManagerOptInRequest
	InvoiceRequest           = core.InvoiceRequest
	InvoiceItem              = core.InvoiceItem
)

const (
	EnvironmentSandbox    = core.EnvironmentSandbox
	EnvironmentProduction = core.EnvironmentProduction
)

var (
	WithLogger         = core.WithLogger
	WithLoggerProvider = core.WithLoggerProvider
	WithHTTPClient     = core.WithHTTPClient
	WithTokenStore     = core.WithTokenStore
	WithTokenIssuer    = core.WithTokenIssuer
	WithKeyProvider    = core.WithKeyProvider
	WithClock          = core.WithClock
	WithBaseURL        = core.WithBaseURL
	WithConfigProvider = core.WithConfigProvider
	WithErrorMapper    = core.WithErrorMapper
)

// New builds a gateway client from runtime configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	return core.NewService(cfg, opts...)
}
