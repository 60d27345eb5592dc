package payment

import (
	"context"

	"storefront-backend/internal/domain"
)

const (
	SessionPaid              = "paid"
	SessionUnpaid            = "unpaid"
	SessionNoPaymentRequired = "no_payment_required"
)

type LineItem struct {
	Name        string
	Description string
	Image       string
	UnitAmount  domain.Money
	Quantity    int
}

type SessionRequest struct {
	CustomerEmail string
	Currency      string
	Lines         []LineItem
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Session is the gateway's view of a hosted checkout session.
type Session struct {
	ID              string
	URL             string
	PaymentStatus   string
	AmountTotal     domain.Money
	PaymentIntentID string
	CustomerEmail   string
	Metadata        map[string]string
}

func (s *Session) Paid() bool { return s.PaymentStatus == SessionPaid }

// Gateway creates and re-fetches hosted checkout sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, id string) (*Session, error)
}

// WebhookVerifier authenticates a pushed event and narrows it to a known kind.
type WebhookVerifier interface {
	ParseEvent(payload []byte, signature string) (Event, error)
}
