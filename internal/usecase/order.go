package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storefront-backend/internal/domain"
)

type OrderUseCase struct {
	orders      domain.OrderStore
	products    domain.ProductStore
	concurrency int
	log         *logrus.Logger
	now         func() time.Time
	newNumber   func(time.Time) string
}

func NewOrderUseCase(orders domain.OrderStore, products domain.ProductStore, concurrency int, logger *logrus.Logger) *OrderUseCase {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &OrderUseCase{
		orders:      orders,
		products:    products,
		concurrency: concurrency,
		log:         logger,
		now:         func() time.Time { return time.Now().UTC() },
		newNumber:   domain.NewOrderNumber,
	}
}

// DirectOrderRequest places an order paid outside the card gateway.
type DirectOrderRequest struct {
	Items           []CheckoutLine          `json:"items"`
	ShippingAddress *domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
	// TotalAmount is what the client displayed. The order total is
	// always recomputed from catalog prices.
	TotalAmount *domain.Money `json:"totalAmount,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

// PlaceDirect creates a pending order for a non-gateway payment method.
// Prices come from the catalog and each line's stock is decremented once,
// through the same claim path as paid sessions.
func (uc *OrderUseCase) PlaceDirect(ctx context.Context, caller domain.Identity, req DirectOrderRequest) (*OrderView, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthorized("sign in to place an order")
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentMethodCashOnDelivery
	}
	if !domain.DirectPaymentMethod(method) {
		return nil, domain.Validation(domain.CodeInvalidInput, "payment method %q is not accepted for direct orders", method)
	}
	if len(req.Items) == 0 {
		return nil, domain.Validation(domain.CodeInvalidInput, "no items in order request")
	}
	if req.ShippingAddress == nil {
		return nil, domain.Validation(domain.CodeInvalidInput, "shipping address is required")
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, err
	}

	lines, err := mergeLines(req.Items)
	if err != nil {
		uc.log.Warnf("Use Case: Direct order by %s rejected: %v", caller.Email, err)
		return nil, err
	}
	if err := resolveLines(ctx, uc.products, uc.concurrency, lines); err != nil {
		uc.log.Warnf("Use Case: Direct order by %s rejected: %v", caller.Email, err)
		return nil, err
	}
	items, total := priceLines(lines, uc.log)
	if req.TotalAmount != nil && *req.TotalAmount != total {
		uc.log.Warnf("Use Case: Direct order by %s shows total %s, catalog total is %s", caller.Email, *req.TotalAmount, total)
	}

	now := uc.now()
	order := &domain.Order{
		OrderNumber:     uc.newNumber(now),
		Buyer:           domain.Buyer{ID: caller.UserID, Email: caller.Email, Name: caller.Name},
		Items:           items,
		ShippingAddress: *req.ShippingAddress,
		PaymentMethod:   method,
		TotalAmount:     total,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
	}
	log := uc.log.WithField("buyer", caller.Email)
	created, _, err := insertOrder(ctx, uc.orders, order, func() string { return uc.newNumber(uc.now()) }, log)
	if err != nil {
		log.Errorf("Use Case: Failed to persist direct order: %v", err)
		return nil, fmt.Errorf("create direct order: %w", err)
	}
	if err := applyPendingStock(ctx, uc.orders, uc.products, created, uc.log); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"order_number":   created.OrderNumber,
		"payment_method": method,
		"total":          total.String(),
	}).Info("Use Case: Direct order placed")
	return populateOrder(ctx, uc.products, created, uc.concurrency, uc.log), nil
}

func (uc *OrderUseCase) load(ctx context.Context, idHex string) (*domain.Order, error) {
	id, err := parseID(idHex, "order")
	if err != nil {
		return nil, err
	}
	o, err := uc.orders.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(domain.CodeOrderNotFound, "order not found")
	}
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to get order %s: %v", idHex, err)
		return nil, err
	}
	return o, nil
}

// Get returns an order to its buyer or to an admin.
func (uc *OrderUseCase) Get(ctx context.Context, caller domain.Identity, idHex string) (*OrderView, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthorized("sign in to view orders")
	}
	o, err := uc.load(ctx, idHex)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(caller) {
		uc.log.Warnf("Use Case: %s tried to read order %s", caller.Email, o.OrderNumber)
		return nil, domain.Forbidden("access denied")
	}
	return populateOrder(ctx, uc.products, o, uc.concurrency, uc.log), nil
}

// ListMine returns the caller's orders, newest first.
func (uc *OrderUseCase) ListMine(ctx context.Context, caller domain.Identity, page, limit int) (*OrderPage, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthorized("sign in to view orders")
	}
	return uc.list(ctx, domain.OrderFilter{BuyerID: caller.UserID, Page: page, Limit: limit})
}

func (uc *OrderUseCase) AdminList(ctx context.Context, filter domain.OrderFilter) (*OrderPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Validation(domain.CodeInvalidInput, "invalid status filter: %s", filter.Status)
	}
	return uc.list(ctx, filter)
}

func (uc *OrderUseCase) list(ctx context.Context, filter domain.OrderFilter) (*OrderPage, error) {
	filter.Normalize()
	orders, total, err := uc.orders.List(ctx, filter)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list orders: %v", err)
		return nil, err
	}
	return &OrderPage{Orders: orders, Pagination: domain.NewPagination(filter.Page, filter.Limit, total)}, nil
}

// AdminUpdate changes status fields only. Line items are never touched.
func (uc *OrderUseCase) AdminUpdate(ctx context.Context, idHex string, u domain.OrderUpdate) (*domain.Order, error) {
	if u.Empty() {
		return nil, domain.Validation(domain.CodeInvalidInput, "no fields to update")
	}
	if u.PaymentStatus != nil && !u.PaymentStatus.Valid() {
		return nil, domain.Validation(domain.CodeInvalidInput, "invalid payment status: %s", *u.PaymentStatus)
	}

	o, err := uc.load(ctx, idHex)
	if err != nil {
		return nil, err
	}
	if u.Status != nil {
		if err := o.CheckTransition(*u.Status); err != nil {
			uc.log.Warnf("Use Case: Rejected status change on %s: %v", o.OrderNumber, err)
			return nil, err
		}
	}

	updated, err := uc.orders.UpdateStatus(ctx, o.ID, u)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(domain.CodeOrderNotFound, "order not found")
	}
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update order %s: %v", o.OrderNumber, err)
		return nil, err
	}
	uc.log.WithFields(logrus.Fields{
		"order_number":   updated.OrderNumber,
		"status":         updated.Status,
		"payment_status": updated.PaymentStatus,
	}).Info("Use Case: Order updated by admin")
	return updated, nil
}
