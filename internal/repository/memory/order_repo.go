package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/domain"
)

var _ domain.OrderStore = (*OrderRepository)(nil)

// OrderRepository enforces the same unique keys as the Mongo indexes:
// orderNumber and, when set, paymentSessionId.
type OrderRepository struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]domain.Order
	bySession map[string]primitive.ObjectID
	byNumber  map[string]primitive.ObjectID
	log       *logrus.Logger
}

func NewOrderRepository(logger *logrus.Logger) *OrderRepository {
	return &OrderRepository{
		orders:    make(map[primitive.ObjectID]domain.Order),
		bySession: make(map[string]primitive.ObjectID),
		byNumber:  make(map[string]primitive.ObjectID),
		log:       logger,
	}
}

func cloneOrder(o domain.Order) *domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		o.EstimatedDelivery = &t
	}
	return &o
}

func (r *OrderRepository) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.PaymentSessionID != "" {
		if _, taken := r.bySession[o.PaymentSessionID]; taken {
			return nil, fmt.Errorf("order for session %s: %w", o.PaymentSessionID, domain.ErrDuplicateKey)
		}
	}
	if _, taken := r.byNumber[o.OrderNumber]; taken {
		return nil, fmt.Errorf("order number %s: %w", o.OrderNumber, domain.ErrDuplicateKey)
	}

	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	r.orders[o.ID] = *cloneOrder(*o)
	r.byNumber[o.OrderNumber] = o.ID
	if o.PaymentSessionID != "" {
		r.bySession[o.PaymentSessionID] = o.ID
	}
	r.log.Debugf("Memory: order %s created", o.OrderNumber)
	return cloneOrder(*o), nil
}

func (r *OrderRepository) Get(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), domain.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) GetBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return nil, fmt.Errorf("order for session %s: %w", sessionID, domain.ErrNotFound)
	}
	return cloneOrder(r.orders[id]), nil
}

func (r *OrderRepository) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	filter.Normalize()

	r.mu.Lock()
	matched := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.BuyerID != "" && o.Buyer.ID != filter.BuyerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, *cloneOrder(o))
	}
	r.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.Hex() > matched[j].ID.Hex()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, u domain.OrderUpdate) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id.Hex(), domain.ErrNotFound)
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.PaymentStatus != nil {
		o.PaymentStatus = *u.PaymentStatus
	}
	if u.TrackingNumber != nil {
		o.TrackingNumber = *u.TrackingNumber
	}
	if u.Notes != nil {
		o.Notes = *u.Notes
	}
	if u.EstimatedDelivery != nil {
		t := *u.EstimatedDelivery
		o.EstimatedDelivery = &t
	}
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	return cloneOrder(o), nil
}

func (r *OrderRepository) ClaimLineStock(_ context.Context, id primitive.ObjectID, line int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order %s: %w", id.Hex(), domain.ErrNotFound)
	}
	if line < 0 || line >= len(o.Items) {
		return false, fmt.Errorf("order %s has no line %d", id.Hex(), line)
	}
	if o.Items[line].StockState != domain.StockPending {
		return false, nil
	}
	items := append([]domain.OrderItem(nil), o.Items...)
	items[line].StockState = domain.StockApplied
	o.Items = items
	r.orders[id] = o
	return true, nil
}

func (r *OrderRepository) ReleaseLineStock(_ context.Context, id primitive.ObjectID, line int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id.Hex(), domain.ErrNotFound)
	}
	if line < 0 || line >= len(o.Items) {
		return fmt.Errorf("order %s has no line %d", id.Hex(), line)
	}
	if o.Items[line].StockState == domain.StockApplied {
		items := append([]domain.OrderItem(nil), o.Items...)
		items[line].StockState = domain.StockPending
		o.Items = items
		r.orders[id] = o
	}
	return nil
}
