package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/payment"
)

// MaxLineQuantity bounds a single checkout line.
const MaxLineQuantity = 100

type CheckoutLine struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
	// Price is what the client displayed. It is compared with the
	// catalog price and otherwise ignored.
	Price *domain.Money `json:"price,omitempty"`
}

type CheckoutRequest struct {
	Items           []CheckoutLine          `json:"items"`
	ShippingAddress *domain.ShippingAddress `json:"shippingAddress"`
}

type CheckoutResult struct {
	SessionID string       `json:"sessionId"`
	URL       string       `json:"url"`
	Amount    domain.Money `json:"amount"`
}

type CheckoutOptions struct {
	SiteURL        string
	Currency       string
	GatewayTimeout time.Duration
	Concurrency    int
}

type CheckoutUseCase struct {
	products domain.ProductStore
	gateway  payment.Gateway
	opts     CheckoutOptions
	log      *logrus.Logger
}

func NewCheckoutUseCase(products domain.ProductStore, gateway payment.Gateway, opts CheckoutOptions, logger *logrus.Logger) *CheckoutUseCase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 10 * time.Second
	}
	return &CheckoutUseCase{products: products, gateway: gateway, opts: opts, log: logger}
}

type resolvedLine struct {
	id       primitive.ObjectID
	product  *domain.Product
	quantity int
	shown    *domain.Money
}

// CreateSession validates the cart against the catalog and opens a hosted
// checkout session. It never writes to the product or order stores.
func (uc *CheckoutUseCase) CreateSession(ctx context.Context, buyer domain.Identity, req CheckoutRequest) (*CheckoutResult, error) {
	if !buyer.Authenticated() {
		return nil, domain.Unauthorized("sign in to check out")
	}
	if len(req.Items) == 0 {
		uc.log.Warnf("Use Case: Checkout by %s rejected: no items", buyer.Email)
		return nil, domain.Validation(domain.CodeInvalidInput, "no items in checkout request")
	}
	if req.ShippingAddress == nil {
		return nil, domain.Validation(domain.CodeInvalidInput, "shipping address is required")
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, err
	}

	lines, err := mergeLines(req.Items)
	if err != nil {
		uc.log.Warnf("Use Case: Checkout by %s rejected: %v", buyer.Email, err)
		return nil, err
	}
	if err := resolveLines(ctx, uc.products, uc.opts.Concurrency, lines); err != nil {
		uc.log.Warnf("Use Case: Checkout by %s rejected: %v", buyer.Email, err)
		return nil, err
	}

	var total domain.Money
	items := make([]payment.LineItem, 0, len(lines))
	mdLines := make([]payment.MetadataLine, 0, len(lines))
	for _, l := range lines {
		p := l.product
		noteClientPrice(uc.log, l)
		total += p.Price.Mul(l.quantity)
		items = append(items, payment.LineItem{
			Name:        p.Name,
			Description: p.Description,
			Image:       p.FirstImage(),
			UnitAmount:  p.Price,
			Quantity:    l.quantity,
		})
		mdLines = append(mdLines, payment.MetadataLine{ProductID: p.ID.Hex(), Quantity: l.quantity, Price: p.Price})
	}

	metadata, err := payment.CheckoutMetadata{
		Buyer:           domain.Buyer{ID: buyer.UserID, Email: buyer.Email, Name: buyer.Name},
		ShippingAddress: *req.ShippingAddress,
		Lines:           mdLines,
		Total:           total,
	}.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode checkout metadata: %w", err)
	}

	gctx, cancel := context.WithTimeout(ctx, uc.opts.GatewayTimeout)
	defer cancel()
	session, err := uc.gateway.CreateCheckoutSession(gctx, payment.SessionRequest{
		CustomerEmail: buyer.Email,
		Currency:      uc.opts.Currency,
		Lines:         items,
		SuccessURL:    uc.opts.SiteURL + "/order-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     uc.opts.SiteURL + "/checkout?canceled=true",
		Metadata:      metadata,
	})
	if err != nil {
		uc.log.Errorf("Use Case: Gateway failed to create checkout session for %s: %v", buyer.Email, err)
		return nil, domain.Upstream(err, "could not start checkout, please try again")
	}

	uc.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"buyer":      buyer.Email,
		"amount":     total.String(),
		"lines":      len(lines),
	}).Info("Use Case: Checkout session created")
	return &CheckoutResult{SessionID: session.ID, URL: session.URL, Amount: total}, nil
}

// mergeLines validates quantities and folds repeated product ids into one line.
func mergeLines(in []CheckoutLine) ([]*resolvedLine, error) {
	byID := make(map[primitive.ObjectID]*resolvedLine, len(in))
	lines := make([]*resolvedLine, 0, len(in))

	for _, item := range in {
		if item.Quantity <= 0 || item.Quantity > MaxLineQuantity {
			return nil, domain.Validation(domain.CodeInvalidQuantity, "invalid quantity %d for product %s", item.Quantity, item.ProductID)
		}
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, domain.Validation(domain.CodeProductNotFound, "product not found: %s", item.ProductID)
		}
		if l, ok := byID[id]; ok {
			l.quantity += item.Quantity
			if l.quantity > MaxLineQuantity {
				return nil, domain.Validation(domain.CodeInvalidQuantity, "invalid quantity %d for product %s", l.quantity, item.ProductID)
			}
			continue
		}
		l := &resolvedLine{id: id, quantity: item.Quantity, shown: item.Price}
		byID[id] = l
		lines = append(lines, l)
	}
	return lines, nil
}

// resolveLines loads every line's product concurrently and checks stock and price.
func resolveLines(ctx context.Context, products domain.ProductStore, concurrency int, lines []*resolvedLine) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, l := range lines {
		l := l
		g.Go(func() error {
			id := l.id
			p, err := products.Get(gctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Validation(domain.CodeProductNotFound, "product not found: %s", id.Hex())
			}
			if err != nil {
				return fmt.Errorf("load product %s: %w", id.Hex(), err)
			}
			if p.Price <= 0 {
				return domain.Validation(domain.CodeInvalidPrice, "invalid price for product %s", p.Name)
			}
			if l.quantity > p.Stock {
				return domain.Conflict(domain.CodeInsufficientStock,
					"insufficient stock for %s: requested %d, only %d available", p.Name, l.quantity, p.Stock)
			}
			l.product = p
			return nil
		})
	}
	return g.Wait()
}
