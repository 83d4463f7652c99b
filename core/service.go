package core

import (
	"context"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const defaultRequestTimeout = 30 * time.Second

// Service is the gateway client. Payload construction is stateless and
// reentrant; the token manager is the only shared mutable resource.
type Service struct {
	config      Config
	logger      Logger
	errorMapper ErrorMapper
	builder     *RequestBuilder
	tokens      *TokenManager
	dispatcher  *dispatcher
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	_, logger := glog.Resolve("mpesa", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)

	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}
	if builder.httpClient == nil {
		builder.httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if builder.tokenStore == nil {
		builder.tokenStore = NewMemoryTokenStore()
	}

	loaded, err := builder.configProvider.Load(context.Background(), DefaultConfig())
	if err != nil {
		return nil, builder.errorMapper(err)
	}
	resolved, err := builder.optionsResolver.Resolve(DefaultConfig(), loaded, builder.runtimeConfig)
	if err != nil {
		return nil, builder.errorMapper(err)
	}
	if err := resolved.Validate(); err != nil {
		return nil, builder.errorMapper(err)
	}

	if builder.keyProvider == nil {
		builder.keyProvider = FileKeyProvider{
			SandboxPath:    resolved.SandboxCertificatePath,
			ProductionPath: resolved.ProductionCertificatePath,
		}
	}

	baseURL := resolved.Environment.BaseURL()
	if strings.TrimSpace(builder.baseURL) != "" {
		baseURL = builder.baseURL
	}
	issuer := builder.tokenIssuer
	if issuer == nil {
		issuer = newGatewayTokenIssuer(baseURL, resolved.ConsumerKey, resolved.ConsumerSecret, builder.httpClient, builder.now)
	}
	tokens := NewTokenManager(builder.tokenStore, issuer, logger, builder.now)

	svc := &Service{
		config:      resolved,
		logger:      logger,
		errorMapper: builder.errorMapper,
		builder:     NewRequestBuilder(resolved, builder.keyProvider, builder.now),
		tokens:      tokens,
		dispatcher:  newDispatcher(baseURL, builder.httpClient, tokens, logger),
	}
	return svc, nil
}

func (s *Service) Config() Config {
	return s.config
}

// Tokens exposes the token manager so callers can invalidate the slot.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Builder exposes the request builder for callers that dispatch through
// their own transport wrapper.
func (s *Service) Builder() *RequestBuilder {
	return s.builder
}

func (s *Service) send(ctx context.Context, req OperationRequest, err error) (Response, error) {
	if err != nil {
		return Response{}, s.errorMapper(err)
	}
	res, err := s.dispatcher.Send(ctx, req)
	if err != nil {
		return res, s.errorMapper(err)
	}
	return res, nil
}

func (s *Service) AccountBalance(ctx context.Context, remarks string) (Response, error) {
	req, err := s.builder.AccountBalance(remarks)
	return s.send(ctx, req, err)
}

func (s *Service) RegisterC2BURLs(ctx context.Context) (Response, error) {
	req, err := s.builder.RegisterC2BURLs()
	return s.send(ctx, req, err)
}

func (s *Service) SimulateC2B(ctx context.Context, amount float64, phoneNumber, billReference string) (Response, error) {
	req, err := s.builder.SimulateC2B(amount, phoneNumber, billReference)
	return s.send(ctx, req, err)
}

func (s *Service) STKPush(ctx context.Context, req STKPushRequest) (Response, error) {
	built, err := s.builder.STKPush(req)
	return s.send(ctx, built, err)
}

func (s *Service) STKPushStatus(ctx context.Context, checkoutRequestID string) (Response, error) {
	built, err := s.builder.STKPushStatus(checkoutRequestID)
	return s.send(ctx, built, err)
}

func (s *Service) B2CPayment(ctx context.Context, req B2CRequest) (Response, error) {
	built, err := s.builder.B2CPayment(req)
	return s.send(ctx, built, err)
}

func (s *Service) B2CPaymentWithValidation(ctx context.Context, req B2CRequest, idType, idNumber string) (Response, error) {
	built, err := s.builder.B2CPaymentWithValidation(req, idType, idNumber)
	return s.send(ctx, built, err)
}

func (s *Service) B2BPayBill(ctx context.Context, req B2BRequest) (Response, error) {
	built, err := s.builder.B2BPayBill(req)
	return s.send(ctx, built, err)
}

func (s *Service) B2BBuyGoods(ctx context.Context, req B2BRequest) (Response, error) {
	built, err := s.builder.B2BBuyGoods(req)
	return s.send(ctx, built, err)
}

func (s *Service) TransactionStatus(ctx context.Context, req TransactionStatusRequest) (Response, error) {
	built, err := s.builder.TransactionStatus(req)
	return s.send(ctx, built, err)
}

func (s *Service) Reversal(ctx context.Context, req ReversalRequest) (Response, error) {
	built, err := s.builder.Reversal(req)
	return s.send(ctx, built, err)
}

func (s *Service) DynamicQR(ctx context.Context, req DynamicQRRequest) (Response, error) {
	built, err := s.builder.DynamicQR(req)
	return s.send(ctx, built, err)
}

func (s *Service) TaxRemittance(ctx context.Context, req TaxRemittanceRequest) (Response, error) {
	built, err := s.builder.TaxRemittance(req)
	return s.send(ctx, built, err)
}

func (s *Service) BillManagerOptIn(ctx context.Context, req BillManagerOptInRequest) (Response, error) {
	built, err := s.builder.BillManagerOptIn(req)
	return s.send(ctx, built, err)
}

func (s *Service) SendInvoice(ctx context.Context, req InvoiceRequest) (Response, error) {
	built, err := s.builder.SendInvoice(req)
	return s.send(ctx, built, err)
}
