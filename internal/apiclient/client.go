// Package apiclient talks to the storefront HTTP API on behalf of the CLI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     *logrus.Logger
}

func New(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
		log: logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		c.log.Errorf("APIClient: Failed to create %s %s request: %v", method, path, err)
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debugf("APIClient: %s %s", method, path)
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("APIClient: Failed to execute %s %s: %v", method, path, err)
		return fmt.Errorf("failed to communicate with storefront API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(bodyBytes, &eb) == nil && eb.Error != "" {
			apiErr.Message, apiErr.Code = eb.Error, eb.Code
		}
		c.log.Warnf("APIClient: %s %s failed with status %d", method, path, resp.StatusCode)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Errorf("APIClient: Failed to decode %s %s response: %v", method, path, err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	var created domain.Product
	if err := c.do(ctx, http.MethodPost, "/api/admin/products", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	var res usecase.CheckoutResult
	if err := c.do(ctx, http.MethodPost, "/api/create-checkout-session", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) VerifyPayment(ctx context.Context, sessionID string) (*usecase.OrderView, error) {
	var view usecase.OrderView
	body := map[string]string{"sessionId": sessionID}
	if err := c.do(ctx, http.MethodPost, "/api/verify-payment", body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}
