package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	tokenEndpointPath         = "/oauth/v1/generate?grant_type=client_credentials"
	maxTokenResponseBodyBytes = 1 << 20
	defaultTokenLifetime      = 3600 * time.Second
)

// gatewayTokenIssuer calls the gateway's OAuth endpoint with basic auth.
// This is the only GET in the client and the only call without a bearer
// token.
type gatewayTokenIssuer struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     HTTPDoer
	now            Clock
}

func newGatewayTokenIssuer(baseURL, consumerKey, consumerSecret string, httpClient HTTPDoer, now Clock) *gatewayTokenIssuer {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &gatewayTokenIssuer{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     httpClient,
		now:            now,
	}
}

func (i *gatewayTokenIssuer) Issue(ctx context.Context) (Token, error) {
	if i == nil || i.httpClient == nil {
		return Token{}, tokenIssuanceError("core: token issuer is not configured", nil, nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.baseURL+tokenEndpointPath, nil)
	if err != nil {
		return Token{}, tokenIssuanceError("core: build token request", err, nil)
	}
	req.SetBasicAuth(i.consumerKey, i.consumerSecret)
	req.Header.Set("Accept", "application/json")

	res, err := i.httpClient.Do(req)
	if err != nil {
		return Token{}, tokenIssuanceError("core: token request failed", err, nil)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxTokenResponseBodyBytes+1))
	if err != nil {
		return Token{}, tokenIssuanceError("core: read token response", err, nil)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return Token{}, tokenIssuanceError(
			fmt.Sprintf("core: token endpoint returned status %d", res.StatusCode),
			nil,
			map[string]any{"status_code": res.StatusCode, "body": string(body)},
		)
	}

	payload := struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   any    `json:"expires_in"`
	}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Token{}, tokenIssuanceError("core: decode token response", err,
			map[string]any{"status_code": res.StatusCode})
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return Token{}, tokenIssuanceError("core: token response missing access token", nil,
			map[string]any{"status_code": res.StatusCode})
	}

	lifetime := parseExpirySeconds(payload.ExpiresIn)
	issuedAt := i.now().UTC()
	return Token{
		AccessToken: payload.AccessToken,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(lifetime),
	}, nil
}

// parseExpirySeconds tolerates both numeric and string encodings; the
// gateway returns expires_in as a quoted string.
func parseExpirySeconds(value any) time.Duration {
	seconds := int64(0)
	switch typed := value.(type) {
	case float64:
		seconds = int64(typed)
	case int:
		seconds = int64(typed)
	case int64:
		seconds = typed
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			seconds = parsed
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err == nil {
			seconds = parsed
		}
	}
	if seconds <= 0 {
		return defaultTokenLifetime
	}
	return time.Duration(seconds) * time.Second
}
