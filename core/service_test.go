package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewService_RejectsIncompleteConfig(t *testing.T) {
	_, err := NewService(Config{Environment: EnvironmentSandbox, ConsumerKey: "key"})
	if err == nil {
		t.Fatalf("expected config validation error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ClientErrorConfigInvalid {
		t.Fatalf("expected config text code, got %q", richErr.TextCode)
	}
}

func TestNewService_MergesRuntimeOverDefaults(t *testing.T) {
	cfg := testConfig()
	svc, err := NewService(cfg, WithTokenIssuer(&stubIssuer{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if got := svc.Config().Environment; got != EnvironmentSandbox {
		t.Fatalf("expected sandbox environment, got %q", got)
	}
	if got := svc.Config().ConsumerKey; got != cfg.ConsumerKey {
		t.Fatalf("expected runtime consumer key, got %q", got)
	}
}

func TestService_STKPushRoundTrip(t *testing.T) {
	at := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	var gotPath, gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MerchantRequestID":"29115-34620561-1","ResponseCode":"0"}`))
	}))
	defer server.Close()

	issuer := &stubIssuer{token: Token{
		AccessToken: "gateway-token",
		IssuedAt:    at,
		ExpiresAt:   at.Add(time.Hour),
	}}
	_, publicPEM := testRSAKeyPEM(t)

	svc, err := NewService(testConfig(),
		WithBaseURL(server.URL),
		WithTokenIssuer(issuer),
		WithKeyProvider(StaticKeyProvider{EnvironmentSandbox: publicPEM}),
		WithClock(fixedClock(at)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.STKPush(context.Background(), STKPushRequest{
		Amount:           150,
		PhoneNumber:      "0712345678",
		AccountReference: "order-42",
		Description:      "checkout",
	})
	if err != nil {
		t.Fatalf("stk push: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", res.StatusCode)
	}
	if !strings.Contains(string(res.Body), "MerchantRequestID") {
		t.Fatalf("expected raw gateway body, got %q", res.Body)
	}

	if gotPath != "/mpesa/stkpush/v1/processrequest" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer gateway-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotPayload["BusinessShortCode"] != "174379" {
		t.Fatalf("unexpected shortcode %v", gotPayload["BusinessShortCode"])
	}
	if gotPayload["Timestamp"] != "20250101120000" {
		t.Fatalf("unexpected timestamp %v", gotPayload["Timestamp"])
	}
	if issuer.callCount() != 1 {
		t.Fatalf("expected one token issuance, got %d", issuer.callCount())
	}
}

func TestService_BuilderErrorShortCircuitsDispatch(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	at := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	issuer := &stubIssuer{token: Token{AccessToken: "tok", IssuedAt: at, ExpiresAt: at.Add(time.Hour)}}
	_, publicPEM := testRSAKeyPEM(t)

	svc, err := NewService(testConfig(),
		WithBaseURL(server.URL),
		WithTokenIssuer(issuer),
		WithKeyProvider(StaticKeyProvider{EnvironmentSandbox: publicPEM}),
		WithClock(fixedClock(at)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.STKPush(context.Background(), STKPushRequest{Amount: -5, PhoneNumber: "0712345678"})
	if err == nil {
		t.Fatalf("expected amount error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ClientErrorAmountInvalid {
		t.Fatalf("expected amount text code, got %q", richErr.TextCode)
	}
	if requests != 0 {
		t.Fatalf("expected no gateway requests, got %d", requests)
	}
}

func TestService_GatewayErrorBodySurvivesMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorCode":"400.002.02","errorMessage":"Bad Request - Invalid Timestamp"}`))
	}))
	defer server.Close()

	at := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	issuer := &stubIssuer{token: Token{AccessToken: "tok", IssuedAt: at, ExpiresAt: at.Add(time.Hour)}}

	svc, err := NewService(testConfig(),
		WithBaseURL(server.URL),
		WithTokenIssuer(issuer),
		WithClock(fixedClock(at)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.STKPushStatus(context.Background(), "ws_CO_123456789")
	if err == nil {
		t.Fatalf("expected gateway status error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != ClientErrorGatewayStatus {
		t.Fatalf("expected gateway text code, got %q", richErr.TextCode)
	}
	if richErr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", richErr.Code)
	}
	if !strings.Contains(string(res.Body), "400.002.02") {
		t.Fatalf("expected raw error body, got %q", res.Body)
	}
}
