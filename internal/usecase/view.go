package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront-backend/internal/domain"
)

// OrderView is an order with each line's product resolved, as returned
// by the verify and order detail endpoints.
type OrderView struct {
	*domain.Order
	Items []OrderLineView `json:"items"`
}

type OrderLineView struct {
	domain.OrderItem
	// Product is null when the product has since been deleted.
	Product *ProductSummary `json:"product"`
}

// ProductSummary is the slice of the catalog entry shown next to an order line.
type ProductSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Price  domain.Money       `json:"price"`
	Images []string           `json:"images"`
}

func summarize(p *domain.Product) *ProductSummary {
	if p == nil {
		return nil
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return &ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price, Images: images}
}

type OrderPage struct {
	Orders     []domain.Order    `json:"orders"`
	Pagination domain.Pagination `json:"pagination"`
}

// populateOrder resolves the products referenced by an order. Lookup
// failures leave the line's product empty; the snapshot fields stay.
func populateOrder(ctx context.Context, products domain.ProductStore, o *domain.Order, limit int, log *logrus.Logger) *OrderView {
	ids := make([]primitive.ObjectID, 0, len(o.Items))
	seen := make(map[primitive.ObjectID]struct{}, len(o.Items))
	for _, item := range o.Items {
		if item.ProductID.IsZero() {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	resolved := make([]*domain.Product, len(ids))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			p, err := products.Get(ctx, id)
			switch {
			case err == nil:
				resolved[i] = p
			case errors.Is(err, domain.ErrNotFound):
			default:
				log.Warnf("Use Case: Failed to resolve product %s for order %s: %v", id.Hex(), o.OrderNumber, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	byID := make(map[primitive.ObjectID]*ProductSummary, len(ids))
	for i, id := range ids {
		if resolved[i] != nil {
			byID[id] = summarize(resolved[i])
		}
	}

	view := &OrderView{Order: o, Items: make([]OrderLineView, len(o.Items))}
	for i, item := range o.Items {
		view.Items[i] = OrderLineView{OrderItem: item, Product: byID[item.ProductID]}
	}
	return view
}

func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, domain.Validation(domain.CodeInvalidInput, "invalid %s id: %q", what, hex)
	}
	return id, nil
}
