package usecase

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"storefront-backend/internal/domain"
)

type ProductPage struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

// ProductPatch carries a partial product update. Nil fields are unchanged;
// Stock is an absolute value.
type ProductPatch struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Price       *domain.Money `json:"price"`
	Category    *string       `json:"category"`
	Stock       *int          `json:"stock"`
	Images      []string      `json:"images"`
	Featured    *bool         `json:"featured"`
}

func (p ProductPatch) apply(to *domain.Product) {
	if p.Name != nil {
		to.Name = *p.Name
	}
	if p.Description != nil {
		to.Description = *p.Description
	}
	if p.Price != nil {
		to.Price = *p.Price
	}
	if p.Category != nil {
		to.Category = *p.Category
	}
	if p.Stock != nil {
		to.Stock = *p.Stock
	}
	if p.Images != nil {
		to.Images = p.Images
	}
	if p.Featured != nil {
		to.Featured = *p.Featured
	}
}

type ProductUseCase struct {
	products domain.ProductStore
	log      *logrus.Logger
}

func NewProductUseCase(products domain.ProductStore, logger *logrus.Logger) *ProductUseCase {
	return &ProductUseCase{products: products, log: logger}
}

func (uc *ProductUseCase) List(ctx context.Context, filter domain.ProductFilter) (*ProductPage, error) {
	filter.Normalize()
	products, total, err := uc.products.List(ctx, filter)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products: %v", err)
		return nil, err
	}
	return &ProductPage{
		Products:   products,
		Pagination: domain.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (uc *ProductUseCase) Get(ctx context.Context, idHex string) (*domain.Product, error) {
	id, err := parseID(idHex, "product")
	if err != nil {
		return nil, err
	}
	p, err := uc.products.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(domain.CodeProductNotFound, "product not found")
	}
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to get product %s: %v", idHex, err)
		return nil, err
	}
	return p, nil
}

func (uc *ProductUseCase) Categories(ctx context.Context) ([]string, error) {
	return uc.products.Categories(ctx)
}

func (uc *ProductUseCase) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		uc.log.Warnf("Use Case: Rejected product '%s': %v", p.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Attempting to create product '%s'", p.Name)
	created, err := uc.products.Create(ctx, p)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", p.Name, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Product '%s' created with ID %s", created.Name, created.ID.Hex())
	return created, nil
}

func (uc *ProductUseCase) Update(ctx context.Context, idHex string, patch ProductPatch) (*domain.Product, error) {
	current, err := uc.Get(ctx, idHex)
	if err != nil {
		return nil, err
	}

	patch.apply(current)
	current.Normalize()
	if err := current.Validate(); err != nil {
		uc.log.Warnf("Use Case: Rejected update for product %s: %v", idHex, err)
		return nil, err
	}

	updated, err := uc.products.Update(ctx, current)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(domain.CodeProductNotFound, "product not found")
	}
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update product %s: %v", idHex, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Product %s updated", idHex)
	return updated, nil
}

// Delete removes the product. Orders keep their snapshot of it.
func (uc *ProductUseCase) Delete(ctx context.Context, idHex string) error {
	id, err := parseID(idHex, "product")
	if err != nil {
		return err
	}
	err = uc.products.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(domain.CodeProductNotFound, "product not found")
	}
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to delete product %s: %v", idHex, err)
		return err
	}
	uc.log.Infof("Use Case: Product %s deleted", idHex)
	return nil
}
