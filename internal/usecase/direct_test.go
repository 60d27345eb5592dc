package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domain"
)

func TestPlaceDirectUsesCatalogPricesAndStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Green Tea", 2000, 5)

	shown := domain.Money(1)
	view, err := f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{
		Items:           []CheckoutLine{{ProductID: p.ID.Hex(), Quantity: 2, Price: &shown}},
		ShippingAddress: address(),
		TotalAmount:     &shown,
		Notes:           "  leave at the door ",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Money(4000), view.TotalAmount)
	assert.Equal(t, domain.PaymentMethodCashOnDelivery, view.PaymentMethod)
	assert.Equal(t, domain.StatusPending, view.Status)
	assert.Equal(t, domain.PaymentPending, view.PaymentStatus)
	assert.Empty(t, view.PaymentSessionID)
	assert.Equal(t, "leave at the door", view.Notes)
	require.Len(t, view.Items, 1)
	assert.Equal(t, domain.Money(2000), view.Items[0].Price)
	assert.Equal(t, domain.StockApplied, view.Items[0].StockState)
	assert.Equal(t, 3, f.stock(t, p))

	stored, err := f.orders.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StockApplied, stored.Items[0].StockState)
}

func TestPlaceDirectOrdersShareNoSessionKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Green Tea", 2000, 10)

	for _, method := range []string{domain.PaymentMethodCashOnDelivery, domain.PaymentMethodBankTransfer} {
		_, err := f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{
			Items:           []CheckoutLine{{ProductID: p.ID.Hex(), Quantity: 1}},
			ShippingAddress: address(),
			PaymentMethod:   method,
		})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, countOrders(t, f))
	assert.Equal(t, 8, f.stock(t, p))
}

func TestPlaceDirectValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Green Tea", 2000, 3)
	line := []CheckoutLine{{ProductID: p.ID.Hex(), Quantity: 1}}

	_, err := f.orderUC.PlaceDirect(ctx, domain.Identity{}, DirectOrderRequest{Items: line, ShippingAddress: address()})
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	_, err = f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{Items: line, ShippingAddress: address(), PaymentMethod: domain.PaymentMethodStripe})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{Items: line})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{ShippingAddress: address()})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{
		Items:           []CheckoutLine{{ProductID: p.ID.Hex(), Quantity: 4}},
		ShippingAddress: address(),
	})
	assert.True(t, domain.HasCode(err, domain.CodeInsufficientStock))

	assert.EqualValues(t, 0, countOrders(t, f))
	assert.Equal(t, 3, f.stock(t, p))
}

// sequence returns the given order numbers in turn, then falls back to
// generated ones.
func sequence(numbers ...string) func(time.Time) string {
	var mu sync.Mutex
	return func(now time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		if len(numbers) == 0 {
			return domain.NewOrderNumber(now)
		}
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}
}

func takeOrderNumber(t *testing.T, f *fixture, number string) {
	t.Helper()
	_, err := f.orders.Create(context.Background(), &domain.Order{
		OrderNumber: number,
		Buyer:       domain.Buyer{ID: other.UserID, Email: other.Email},
		Status:      domain.StatusPending,
	})
	require.NoError(t, err)
}

func TestReconcileRetriesOrderNumberCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Green Tea", 2000, 5)
	takeOrderNumber(t, f, "ORD-TAKEN")
	f.reconcile.newNumber = sequence("ORD-TAKEN", "ORD-FRESH")

	res := checkoutOne(t, f, p, 2)
	f.gateway.markPaid(res.SessionID)
	view, err := f.reconcile.VerifyPayment(ctx, buyer, res.SessionID)
	require.NoError(t, err)

	assert.Equal(t, "ORD-FRESH", view.OrderNumber)
	assert.Equal(t, res.SessionID, view.PaymentSessionID)
	assert.Equal(t, 3, f.stock(t, p))
	assert.EqualValues(t, 2, countOrders(t, f))
}

func TestOrderNumberCollisionGivesUpAfterRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Green Tea", 2000, 5)
	takeOrderNumber(t, f, "ORD-TAKEN")
	f.orderUC.newNumber = func(time.Time) string { return "ORD-TAKEN" }

	_, err := f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{
		Items:           []CheckoutLine{{ProductID: p.ID.Hex(), Quantity: 1}},
		ShippingAddress: address(),
	})
	require.ErrorIs(t, err, domain.ErrDuplicateKey)
	assert.Equal(t, 5, f.stock(t, p))

	f.orderUC.newNumber = sequence("ORD-TAKEN", "ORD-TAKEN", "ORD-OK")
	view, err := f.orderUC.PlaceDirect(ctx, buyer, DirectOrderRequest{
		Items:           []CheckoutLine{{ProductID: p.ID.Hex(), Quantity: 1}},
		ShippingAddress: address(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-OK", view.OrderNumber)
	assert.Equal(t, 4, f.stock(t, p))
}

func TestClaimedLineIsNeverDecrementedAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Green Tea", 2000, 5)
	res := checkoutOne(t, f, p, 2)
	f.gateway.markPaid(res.SessionID)

	// A line left applied with its stock untouched, as after a crash
	// between claim and decrement.
	_, err := f.orders.Create(ctx, &domain.Order{
		OrderNumber: "ORD-CLAIMED",
		Buyer:       domain.Buyer{ID: buyer.UserID, Email: buyer.Email},
		Items: []domain.OrderItem{
			{ProductID: p.ID, Name: p.Name, Quantity: 2, Price: 2000, StockState: domain.StockApplied},
		},
		PaymentMethod:    domain.PaymentMethodStripe,
		TotalAmount:      4000,
		Status:           domain.StatusConfirmed,
		PaymentStatus:    domain.PaymentPaid,
		PaymentSessionID: res.SessionID,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		view, err := f.reconcile.VerifyPayment(ctx, buyer, res.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "ORD-CLAIMED", view.OrderNumber)
	}
	assert.Equal(t, 5, f.stock(t, p))
}
