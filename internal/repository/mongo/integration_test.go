package mongo

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/domain"
)

// testDB connects to STOREFRONT_TEST_MONGO_URL and returns a fresh
// database with indexes ensured. The database is dropped on cleanup.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("STOREFRONT_TEST_MONGO_URL")
	if uri == "" || testing.Short() {
		t.Skip("STOREFRONT_TEST_MONGO_URL not set")
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := context.Background()

	client, err := Connect(ctx, uri, log)
	require.NoError(t, err)
	db := client.Database(fmt.Sprintf("storefront_test_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(ctx, db, log))

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newOrder(number, session string, items ...domain.OrderItem) *domain.Order {
	return &domain.Order{
		OrderNumber:      number,
		Buyer:            domain.Buyer{Email: "ada@example.com"},
		Items:            items,
		Status:           domain.StatusConfirmed,
		PaymentStatus:    domain.PaymentPaid,
		PaymentSessionID: session,
	}
}

func TestIntegrationSessionIndexIsPartial(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := NewOrderRepository(db, quietLogger())

	_, err := orders.Create(ctx, newOrder("ORD-1", "cs_1"))
	require.NoError(t, err)
	_, err = orders.Create(ctx, newOrder("ORD-2", "cs_1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	_, err = orders.Create(ctx, newOrder("ORD-1", "cs_2"))
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	// Orders without a session do not collide with each other.
	_, err = orders.Create(ctx, newOrder("ORD-3", ""))
	require.NoError(t, err)
	_, err = orders.Create(ctx, newOrder("ORD-4", ""))
	require.NoError(t, err)

	got, err := orders.GetBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", got.OrderNumber)
}

func TestIntegrationClaimLineStockOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	orders := NewOrderRepository(db, quietLogger())

	o, err := orders.Create(ctx, newOrder("ORD-1", "cs_1",
		domain.OrderItem{Name: "a", Quantity: 1, StockState: domain.StockPending},
		domain.OrderItem{Name: "b", Quantity: 1, StockState: domain.StockSkipped},
	))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := orders.ClaimLineStock(ctx, o.ID, 0)
			assert.NoError(t, err)
			if claimed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	claimed, err := orders.ClaimLineStock(ctx, o.ID, 1)
	require.NoError(t, err)
	assert.False(t, claimed, "skipped lines are never claimed")

	require.NoError(t, orders.ReleaseLineStock(ctx, o.ID, 0))
	claimed, err = orders.ClaimLineStock(ctx, o.ID, 0)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestIntegrationDecrementClampsAtZero(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	products := NewProductRepository(db, quietLogger())

	p, err := products.Create(ctx, &domain.Product{Name: "Tea", Description: "d", Category: "tea", Price: 100, Stock: 3})
	require.NoError(t, err)

	after, err := products.Decrement(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Stock)

	after, err = products.Decrement(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Stock)
}
