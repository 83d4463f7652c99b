package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const maxResponseBodyBytes = 1 << 20

// dispatcher is the single point where gateway calls leave the process.
// It attaches the bearer token, serializes the payload and surfaces
// transport failures; it never interprets gateway result codes.
type dispatcher struct {
	baseURL    string
	httpClient HTTPDoer
	tokens     *TokenManager
	logger     Logger
}

func newDispatcher(baseURL string, httpClient HTTPDoer, tokens *TokenManager, logger Logger) *dispatcher {
	return &dispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     glog.Ensure(logger),
	}
}

func (d *dispatcher) Send(ctx context.Context, req OperationRequest) (Response, error) {
	if d == nil || d.httpClient == nil || d.tokens == nil {
		return Response{}, internalError("core: dispatcher is not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	token, err := d.tokens.GetValidToken(ctx)
	if err != nil {
		return Response{}, err
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return Response{}, internalError("core: encode request payload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+req.Path, bytes.NewReader(body))
	if err != nil {
		return Response{}, internalError("core: build gateway request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	startedAt := time.Now().UTC()
	httpRes, err := d.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, networkError("core: gateway request failed", err,
			map[string]any{"path": req.Path})
	}
	defer httpRes.Body.Close()

	resBody, err := io.ReadAll(io.LimitReader(httpRes.Body, maxResponseBodyBytes+1))
	if err != nil {
		return Response{}, networkError("core: read gateway response", err,
			map[string]any{"path": req.Path, "status_code": httpRes.StatusCode})
	}

	response := Response{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       resBody,
	}
	d.logger.Debug("gateway call completed",
		"path", req.Path,
		"status_code", httpRes.StatusCode,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)

	if httpRes.StatusCode < http.StatusOK || httpRes.StatusCode >= http.StatusMultipleChoices {
		return response, gatewayStatusError(
			fmt.Sprintf("core: gateway returned status %d for %s", httpRes.StatusCode, req.Path),
			httpRes.StatusCode,
			map[string]any{"path": req.Path, "body": string(resBody)},
		)
	}
	return response, nil
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}
