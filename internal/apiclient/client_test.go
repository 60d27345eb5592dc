package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(srv.URL+"/", "tok", time.Second, log)
}

func TestGetProduct(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/abc", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"64b7f0c2a1b2c3d4e5f60799","name":"Tea","price":12.50,"stock":4}`))
	})
	p, err := c.GetProduct(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Tea", p.Name)
	assert.Equal(t, domain.Money(1250), p.Price)
}

func TestErrorBodyIsDecoded(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"only 2 left of Tea","code":"InsufficientStock"}`))
	})
	_, err := c.CreateCheckoutSession(context.Background(), usecase.CheckoutRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, domain.CodeInsufficientStock, apiErr.Code)
	assert.Equal(t, "only 2 left of Tea", apiErr.Message)
}

func TestErrorWithoutBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.GetProduct(context.Background(), "abc")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestVerifyPaymentSendsSessionID(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cs_42", body["sessionId"])
		_, _ = w.Write([]byte(`{"orderNumber":"ORD-1","totalAmount":40.00,"items":[{"name":"Tea","quantity":2,"price":20.00}]}`))
	})
	view, err := c.VerifyPayment(context.Background(), "cs_42")
	require.NoError(t, err)
	require.NotNil(t, view.Order)
	assert.Equal(t, "ORD-1", view.OrderNumber)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}
