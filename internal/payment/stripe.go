package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"storefront-backend/internal/domain"
)

var (
	_ Gateway         = (*StripeGateway)(nil)
	_ WebhookVerifier = (*StripeGateway)(nil)
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	log           *logrus.Logger
}

// NewStripeGateway builds a client whose HTTP calls time out after timeout
// and are never retried by the SDK; callers own retries.
func NewStripeGateway(secretKey, webhookSecret string, timeout time.Duration, logger *logrus.Logger) *StripeGateway {
	httpClient := &http.Client{Timeout: timeout}
	backendConfig := func() *stripe.BackendConfig {
		return &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
		}
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig()),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig()),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig()),
	}

	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api, webhookSecret: webhookSecret, log: logger}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, line := range req.Lines {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(line.Name),
		}
		if line.Description != "" {
			productData.Description = stripe.String(line.Description)
		}
		if line.Image != "" {
			productData.Images = stripe.StringSlice([]string{line.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(line.UnitAmount.Cents()),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                lineItems,
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
		CustomerEmail:            stripe.String(req.CustomerEmail),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.log.Errorf("Stripe: create checkout session failed: %v", err)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	g.log.WithFields(logrus.Fields{"session_id": s.ID, "amount_total": s.AmountTotal}).Info("Stripe: checkout session created")
	return toSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		g.log.Warnf("Stripe: retrieve checkout session %s failed: %v", id, err)
		return nil, fmt.Errorf("retrieve checkout session %s: %w", id, err)
	}
	return toSession(s), nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeStripeEvent(evt)
}

func decodeStripeEvent(evt stripe.Event) (Event, error) {
	eventType := string(evt.Type)
	switch eventType {
	case EventSessionCompleted, EventAsyncPaymentSucceeded, EventAsyncPaymentFailed, EventSessionExpired:
	default:
		return Ignored{ID: evt.ID, Type: eventType}, nil
	}

	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, fmt.Errorf("event %s (%s) has no data object", evt.ID, eventType)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("decode checkout session for event %s: %w", evt.ID, err)
	}
	if cs.ID == "" {
		return nil, fmt.Errorf("event %s (%s) carries a session without id", evt.ID, eventType)
	}
	session := *toSession(&cs)

	switch eventType {
	case EventSessionCompleted:
		return SessionCompleted{ID: evt.ID, Session: session}, nil
	case EventAsyncPaymentSucceeded:
		return AsyncPaymentSucceeded{ID: evt.ID, Session: session}, nil
	case EventAsyncPaymentFailed:
		return AsyncPaymentFailed{ID: evt.ID, Session: session}, nil
	default:
		return SessionExpired{ID: evt.ID, Session: session}, nil
	}
}

func toSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   domain.Money(s.AmountTotal),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
