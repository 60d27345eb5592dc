package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       Money              `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	Stock       int                `bson:"stock" json:"stock"`
	Images      []string           `bson:"images" json:"images"`
	Featured    bool               `bson:"featured" json:"featured"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Normalize trims the free-text fields in place.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	if p.Images == nil {
		p.Images = []string{}
	}
}

func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return Validation(CodeInvalidInput, "product name cannot be empty")
	case p.Description == "":
		return Validation(CodeInvalidInput, "product description cannot be empty")
	case p.Category == "":
		return Validation(CodeInvalidInput, "product category cannot be empty")
	case p.Price < 0:
		return Validation(CodeInvalidPrice, "product price cannot be negative")
	case p.Stock < 0:
		return Validation(CodeInvalidInput, "product stock cannot be negative")
	}
	return nil
}

// FirstImage returns the primary image or "".
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

const (
	SortCreatedAt = "createdAt"
	SortPrice     = "price"
	SortName      = "name"
	SortStock     = "stock"
)

type ProductFilter struct {
	Search   string
	Category string
	Featured bool
	// MaxStock selects products with stock strictly below the value.
	MaxStock *int
	Sort     string
	Asc      bool
	Page     int
	Limit    int
}

func (f *ProductFilter) Normalize() {
	switch f.Sort {
	case SortCreatedAt, SortPrice, SortName, SortStock:
	default:
		f.Sort = SortCreatedAt
	}
	f.Page, f.Limit = NormalizePage(f.Page, f.Limit, 12)
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Current: page,
		Pages:   pages,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

const (
	MaxPageLimit = 100
	MaxPage      = 1_000_000
)

// NormalizePage clamps paging input to 1..MaxPage and 1..MaxPageLimit.
func NormalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = def
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// Skip is the number of documents before the requested page.
// Out-of-range input yields 0 rather than a negative offset.
func Skip(page, limit int) int64 {
	if page < 1 || limit < 1 || page > MaxPage || limit > MaxPageLimit {
		return 0
	}
	return int64(page-1) * int64(limit)
}
