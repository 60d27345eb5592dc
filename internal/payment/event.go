package payment

import "errors"

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// Event is a verified gateway notification. The set of implementations is
// closed; anything the service does not act on decodes to Ignored.
type Event interface {
	EventID() string
	isEvent()
}

// SessionCompleted: the buyer finished the hosted checkout. The session may
// still be unpaid for delayed payment methods.
type SessionCompleted struct {
	ID      string
	Session Session
}

// AsyncPaymentSucceeded: a delayed payment for a completed session cleared.
type AsyncPaymentSucceeded struct {
	ID      string
	Session Session
}

type AsyncPaymentFailed struct {
	ID      string
	Session Session
}

type SessionExpired struct {
	ID      string
	Session Session
}

type Ignored struct {
	ID   string
	Type string
}

func (e SessionCompleted) EventID() string      { return e.ID }
func (e AsyncPaymentSucceeded) EventID() string { return e.ID }
func (e AsyncPaymentFailed) EventID() string    { return e.ID }
func (e SessionExpired) EventID() string        { return e.ID }
func (e Ignored) EventID() string               { return e.ID }

func (SessionCompleted) isEvent()      {}
func (AsyncPaymentSucceeded) isEvent() {}
func (AsyncPaymentFailed) isEvent()    {}
func (SessionExpired) isEvent()        {}
func (Ignored) isEvent()               {}

const (
	EventSessionCompleted      = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventSessionExpired        = "checkout.session.expired"
)

// PaidSession returns the session carried by an event that proves payment.
func PaidSession(e Event) (*Session, bool) {
	switch ev := e.(type) {
	case SessionCompleted:
		if ev.Session.Paid() {
			return &ev.Session, true
		}
	case AsyncPaymentSucceeded:
		return &ev.Session, true
	}
	return nil, false
}
