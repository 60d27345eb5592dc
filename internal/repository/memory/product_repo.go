// Package memory keeps the store ports in process memory. It backs
// STORE_DRIVER=memory and the usecase and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/domain"
)

var _ domain.ProductStore = (*ProductRepository)(nil)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]domain.Product
	log      *logrus.Logger
}

func NewProductRepository(logger *logrus.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[primitive.ObjectID]domain.Product),
		log:      logger,
	}
}

func cloneProduct(p domain.Product) *domain.Product {
	p.Images = append([]string(nil), p.Images...)
	return &p
}

func (r *ProductRepository) Get(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id.Hex(), domain.ErrNotFound)
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	filter.Normalize()
	search := strings.ToLower(filter.Search)

	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Featured && !p.Featured {
			continue
		}
		if filter.MaxStock != nil && p.Stock >= *filter.MaxStock {
			continue
		}
		matched = append(matched, *cloneProduct(p))
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		less := productLess(matched[i], matched[j], filter.Sort)
		if filter.Asc {
			return less
		}
		return productLess(matched[j], matched[i], filter.Sort)
	})

	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.Limit), total, nil
}

func productLess(a, b domain.Product, field string) bool {
	switch field {
	case domain.SortPrice:
		return a.Price < b.Price
	case domain.SortName:
		return a.Name < b.Name
	case domain.SortStock:
		return a.Stock < b.Stock
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.Hex() < b.ID.Hex()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func paginate[T any](items []T, page, limit int) []T {
	start := domain.Skip(page, limit)
	if limit < 1 || start >= int64(len(items)) {
		return []T{}
	}
	end := start + int64(limit)
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[start:end]
}

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	r.products[p.ID] = *cloneProduct(*p)
	r.log.Debugf("Memory: product created %s", p.ID.Hex())
	return cloneProduct(*p), nil
}

func (r *ProductRepository) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[p.ID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", p.ID.Hex(), domain.ErrNotFound)
	}
	updated := *cloneProduct(*p)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.products[p.ID] = updated
	return cloneProduct(updated), nil
}

func (r *ProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id.Hex(), domain.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *ProductRepository) Decrement(_ context.Context, id primitive.ObjectID, qty int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id.Hex(), domain.ErrNotFound)
	}
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	return cloneProduct(p), nil
}

func (r *ProductRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range r.products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}
