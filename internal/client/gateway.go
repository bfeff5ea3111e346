// Package client talks to the checkout gateway on behalf of a shopper.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/metinatakli/pcbuilder/api"
	"github.com/metinatakli/pcbuilder/internal/domain"
)

const (
	checkoutPath     = "/api/create-checkout-session"
	maxErrorBodySize = 1 << 20
)

// GatewayError is a non-2xx answer from the gateway.
type GatewayError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("checkout gateway returned status %d: %s: %s", e.StatusCode, e.Message, e.Detail)
	}

	return fmt.Sprintf("checkout gateway returned status %d: %s", e.StatusCode, e.Message)
}

type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Gateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// CreateCheckoutSession posts the cart items and returns the payment page URL.
// The request is sent once; failures are not retried.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, items []domain.CartItem, idempotencyKey string) (string, error) {
	payload := api.CreateCheckoutSessionRequest{
		Items: make([]api.CartItem, len(items)),
	}

	for i, item := range items {
		payload.Items[i] = api.CartItem{
			Id:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			Quantity: item.Quantity,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+checkoutPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create checkout request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseGatewayError(resp)
	}

	var session api.CheckoutSessionResponse

	err = json.NewDecoder(resp.Body).Decode(&session)
	if err != nil {
		return "", fmt.Errorf("decode checkout response: %w", err)
	}

	if session.Url == "" {
		return "", domain.ErrMissingCheckoutURL
	}

	return session.Url, nil
}

func parseGatewayError(resp *http.Response) error {
	gatewayErr := &GatewayError{StatusCode: resp.StatusCode}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		gatewayErr.Message = fmt.Sprintf("failed to read body: %v", err)
		return gatewayErr
	}

	var errorResp api.ErrorResponse
	if json.Unmarshal(bodyBytes, &errorResp) == nil && errorResp.Message != "" {
		gatewayErr.Message = errorResp.Message
		gatewayErr.Detail = errorResp.Error
		return gatewayErr
	}

	gatewayErr.Message = strings.TrimSpace(string(bodyBytes))
	if gatewayErr.Message == "" {
		gatewayErr.Message = http.StatusText(resp.StatusCode)
	}

	return gatewayErr
}

// UserMessage is the text shown to the shopper when checkout fails.
func UserMessage(err error) string {
	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		if gatewayErr.Detail != "" {
			return gatewayErr.Detail
		}
		return gatewayErr.Message
	}

	return err.Error()
}
