package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/domain"
)

const orderNumberAttempts = 3

// insertOrder creates o. When o's payment session already has an order,
// that order is returned with raced set. A taken order number is replaced
// with a fresh one from nextNumber and the insert retried.
func insertOrder(ctx context.Context, orders domain.OrderStore, o *domain.Order, nextNumber func() string, log *logrus.Entry) (*domain.Order, bool, error) {
	for attempt := 1; ; attempt++ {
		created, err := orders.Create(ctx, o)
		if err == nil {
			return created, false, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, false, err
		}

		if o.PaymentSessionID != "" {
			winner, lookupErr := orders.GetBySessionID(ctx, o.PaymentSessionID)
			if lookupErr == nil {
				return winner, true, nil
			}
			if !errors.Is(lookupErr, domain.ErrNotFound) {
				return nil, false, fmt.Errorf("load order after duplicate insert: %w", lookupErr)
			}
		}

		if attempt == orderNumberAttempts {
			return nil, false, err
		}
		log.Warnf("Use Case: Order number %s already taken, drawing a new one", o.OrderNumber)
		o.ID = primitive.NilObjectID
		o.OrderNumber = nextNumber()
	}
}

// applyPendingStock decrements stock for each pending line. The claim
// flips the line to applied before the decrement, so concurrent callers
// never decrement the same line twice.
//
// A process that dies between claim and decrement leaves the line applied
// with stock untouched. Later triggers do not reclaim it, so a line is
// decremented at most once.
func applyPendingStock(ctx context.Context, orders domain.OrderStore, products domain.ProductStore, o *domain.Order, logger *logrus.Logger) error {
	for _, i := range o.PendingLines() {
		item := o.Items[i]
		log := logger.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"product_id":   item.ProductID.Hex(),
			"quantity":     item.Quantity,
		})

		claimed, err := orders.ClaimLineStock(ctx, o.ID, i)
		if err != nil {
			return fmt.Errorf("claim stock for order %s line %d: %w", o.OrderNumber, i, err)
		}
		o.Items[i].StockState = domain.StockApplied
		if !claimed {
			continue
		}

		p, err := products.Decrement(ctx, item.ProductID, item.Quantity)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			log.Warn("Use Case: Product deleted before its stock could be decremented")
		case err != nil:
			log.Errorf("Use Case: Stock decrement failed, releasing claim: %v", err)
			if relErr := orders.ReleaseLineStock(ctx, o.ID, i); relErr != nil {
				log.Errorf("Use Case: Failed to release stock claim, manual correction needed: %v", relErr)
			}
			o.Items[i].StockState = domain.StockPending
			return fmt.Errorf("decrement stock for order %s line %d: %w", o.OrderNumber, i, err)
		default:
			log.WithField("stock", p.Stock).Info("Use Case: Stock decremented")
		}
	}
	return nil
}

// priceLines turns resolved lines into pending order items at catalog
// prices and returns their total.
func priceLines(lines []*resolvedLine, log *logrus.Logger) ([]domain.OrderItem, domain.Money) {
	items := make([]domain.OrderItem, 0, len(lines))
	var total domain.Money
	for _, l := range lines {
		p := l.product
		noteClientPrice(log, l)
		items = append(items, domain.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			Quantity:   l.quantity,
			Price:      p.Price,
			StockState: domain.StockPending,
		})
		total += p.Price.Mul(l.quantity)
	}
	return items, total
}

func noteClientPrice(log *logrus.Logger, l *resolvedLine) {
	if l.shown == nil || *l.shown == l.product.Price {
		return
	}
	log.WithFields(logrus.Fields{
		"product_id":    l.product.ID.Hex(),
		"client_price":  l.shown.String(),
		"catalog_price": l.product.Price.String(),
	}).Warn("Use Case: Client price differs from catalog price; using catalog price")
}
