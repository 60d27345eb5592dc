package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/payment"
)

const unavailableProductName = "Unavailable product"

type ReconcileOptions struct {
	GatewayTimeout time.Duration
	Concurrency    int
}

// ReconcileUseCase turns a paid checkout session into exactly one order and
// at most one stock decrement per order line. Both the return path and the
// webhook path funnel into reconcile.
type ReconcileUseCase struct {
	orders    domain.OrderStore
	products  domain.ProductStore
	gateway   payment.Gateway
	verifier  payment.WebhookVerifier
	opts      ReconcileOptions
	log       *logrus.Logger
	now       func() time.Time
	newNumber func(time.Time) string
}

func NewReconcileUseCase(
	orders domain.OrderStore,
	products domain.ProductStore,
	gateway payment.Gateway,
	verifier payment.WebhookVerifier,
	opts ReconcileOptions,
	logger *logrus.Logger,
) *ReconcileUseCase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 10 * time.Second
	}
	return &ReconcileUseCase{
		orders:    orders,
		products:  products,
		gateway:   gateway,
		verifier:  verifier,
		opts:      opts,
		log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
		newNumber: domain.NewOrderNumber,
	}
}

// VerifyPayment is the return-path trigger: the buyer's browser comes back
// with a session id and asks for its order.
func (uc *ReconcileUseCase) VerifyPayment(ctx context.Context, caller domain.Identity, sessionID string) (*OrderView, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthorized("sign in to verify a payment")
	}
	if sessionID == "" {
		return nil, domain.Validation(domain.CodeInvalidInput, "session id is required")
	}
	log := uc.log.WithFields(logrus.Fields{"session_id": sessionID, "caller": caller.Email})

	existing, err := uc.orders.GetBySessionID(ctx, sessionID)
	switch {
	case err == nil:
		if !existing.OwnedBy(caller) {
			log.Warn("Use Case: Caller does not own the order for this session")
			return nil, domain.Forbidden("this order belongs to another account")
		}
		log.Info("Use Case: Session already reconciled, returning existing order")
		return uc.finish(ctx, existing)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("look up order for session %s: %w", sessionID, err)
	}

	gctx, cancel := context.WithTimeout(ctx, uc.opts.GatewayTimeout)
	defer cancel()
	session, err := uc.gateway.GetCheckoutSession(gctx, sessionID)
	if err != nil {
		log.Errorf("Use Case: Gateway failed to retrieve session: %v", err)
		return nil, domain.Upstream(err, "could not verify payment, please try again")
	}
	if !session.Paid() {
		log.Infof("Use Case: Session not paid yet (status %s)", session.PaymentStatus)
		return nil, domain.Conflict(domain.CodePaymentNotCompleted, "payment not completed")
	}

	md, err := payment.DecodeMetadata(session.Metadata)
	if err != nil {
		log.Errorf("Use Case: Session metadata unusable: %v", err)
		return nil, domain.Integrity(domain.CodeMissingSessionMetadata, err, "payment session is missing order details")
	}
	owner := domain.Order{Buyer: md.Buyer}
	if !owner.OwnedBy(caller) {
		log.Warnf("Use Case: Session belongs to %s", md.Buyer.Email)
		return nil, domain.Forbidden("this payment belongs to another account")
	}

	return uc.reconcile(ctx, session, md)
}

// WebhookResult reports what a delivered event led to.
type WebhookResult struct {
	EventID     string
	Action      string
	OrderNumber string
}

const (
	WebhookReconciled = "reconciled"
	WebhookAcked      = "acknowledged"
	WebhookRejected   = "rejected"
	WebhookIgnored    = "ignored"
)

// HandleWebhook is the push trigger. Signature failures return an
// InvalidSignature error and cause no side effects. Events that can never
// succeed on redelivery are acknowledged with WebhookRejected.
func (uc *ReconcileUseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := uc.verifier.ParseEvent(payload, signature)
	if errors.Is(err, payment.ErrInvalidSignature) {
		uc.log.Warnf("Use Case: Webhook signature rejected: %v", err)
		return nil, domain.Integrity(domain.CodeInvalidSignature, err, "invalid webhook signature")
	}
	if err != nil {
		uc.log.Warnf("Use Case: Webhook payload rejected: %v", err)
		return nil, domain.Validation(domain.CodeInvalidInput, "malformed webhook event")
	}

	res := &WebhookResult{EventID: event.EventID()}
	log := uc.log.WithField("event_id", event.EventID())

	if session, paid := payment.PaidSession(event); paid {
		log = log.WithField("session_id", session.ID)
		md, err := payment.DecodeMetadata(session.Metadata)
		if err != nil {
			log.Errorf("Use Case: Paid session without usable metadata, not creating an order: %v", err)
			res.Action = WebhookRejected
			return res, nil
		}
		view, err := uc.reconcile(ctx, session, md)
		if err != nil {
			return nil, err
		}
		res.Action = WebhookReconciled
		res.OrderNumber = view.OrderNumber
		return res, nil
	}

	switch e := event.(type) {
	case payment.SessionCompleted:
		log.Infof("Use Case: Session %s completed with payment status %s, waiting for async result", e.Session.ID, e.Session.PaymentStatus)
		res.Action = WebhookAcked
	case payment.AsyncPaymentFailed:
		log.Warnf("Use Case: Async payment failed for session %s", e.Session.ID)
		res.Action = WebhookAcked
	case payment.SessionExpired:
		log.Infof("Use Case: Session %s expired without payment", e.Session.ID)
		res.Action = WebhookAcked
	case payment.Ignored:
		log.Debugf("Use Case: Ignoring webhook event type %s", e.Type)
		res.Action = WebhookIgnored
	default:
		res.Action = WebhookIgnored
	}
	return res, nil
}

func (uc *ReconcileUseCase) reconcile(ctx context.Context, session *payment.Session, md *payment.CheckoutMetadata) (*OrderView, error) {
	log := uc.log.WithField("session_id", session.ID)

	existing, err := uc.orders.GetBySessionID(ctx, session.ID)
	if err == nil {
		log.Info("Use Case: Session already reconciled")
		return uc.finish(ctx, existing)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("look up order for session %s: %w", session.ID, err)
	}

	order, err := uc.buildOrder(ctx, session, md)
	if err != nil {
		return nil, err
	}

	created, raced, err := insertOrder(ctx, uc.orders, order, func() string { return uc.newNumber(uc.now()) }, log)
	if err != nil {
		log.Errorf("Use Case: Failed to persist order: %v", err)
		return nil, fmt.Errorf("create order for session %s: %w", session.ID, err)
	}
	if raced {
		log.WithField("order_number", created.OrderNumber).Info("Use Case: Lost the insert race, using existing order")
		return uc.finish(ctx, created)
	}

	log.WithFields(logrus.Fields{
		"order_number": created.OrderNumber,
		"total":        created.TotalAmount.String(),
	}).Info("Use Case: Order created from paid session")
	return uc.finish(ctx, created)
}

// finish applies any unclaimed stock on the order and returns its view.
func (uc *ReconcileUseCase) finish(ctx context.Context, o *domain.Order) (*OrderView, error) {
	if err := applyPendingStock(ctx, uc.orders, uc.products, o, uc.log); err != nil {
		return nil, err
	}
	return populateOrder(ctx, uc.products, o, uc.opts.Concurrency, uc.log), nil
}

// buildOrder snapshots the buyer, address and locked prices from the
// session metadata. Lines whose product no longer exists are kept with
// stock state skipped.
func (uc *ReconcileUseCase) buildOrder(ctx context.Context, session *payment.Session, md *payment.CheckoutMetadata) (*domain.Order, error) {
	items := make([]domain.OrderItem, len(md.Lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for i, line := range md.Lines {
		i, line := i, line
		g.Go(func() error {
			item := domain.OrderItem{
				Name:       unavailableProductName,
				Quantity:   line.Quantity,
				Price:      line.Price,
				StockState: domain.StockSkipped,
			}
			id, err := primitive.ObjectIDFromHex(line.ProductID)
			if err != nil {
				uc.log.Warnf("Use Case: Session %s references malformed product id %q", session.ID, line.ProductID)
				items[i] = item
				return nil
			}
			item.ProductID = id

			p, err := uc.products.Get(gctx, id)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				uc.log.Warnf("Use Case: Session %s references deleted product %s; skipping its stock", session.ID, line.ProductID)
			case err != nil:
				return fmt.Errorf("load product %s: %w", line.ProductID, err)
			default:
				item.Name = p.Name
				item.StockState = domain.StockPending
				if p.Price != line.Price {
					uc.log.Warnf("Use Case: Product %s price changed since checkout (%s -> %s); keeping charged price",
						line.ProductID, line.Price, p.Price)
				}
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sum domain.Money
	for _, item := range items {
		sum += item.LineTotal()
	}
	total := session.AmountTotal
	if total <= 0 {
		total = sum
	}

	now := uc.now()
	return &domain.Order{
		OrderNumber:      uc.newNumber(now),
		Buyer:            md.Buyer,
		Items:            items,
		ShippingAddress:  md.ShippingAddress,
		PaymentMethod:    domain.PaymentMethodStripe,
		TotalAmount:      total,
		Status:           domain.StatusConfirmed,
		PaymentStatus:    domain.PaymentPaid,
		PaymentSessionID: session.ID,
		PaymentIntentID:  session.PaymentIntentID,
		CreatedAt:        now,
	}, nil
}
