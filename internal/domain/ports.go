package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	// Update replaces the editable fields, stock included, as absolute values.
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Decrement atomically lowers stock by qty, never below zero, and
	// returns the product after the change.
	Decrement(ctx context.Context, id primitive.ObjectID, qty int) (*Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type OrderStore interface {
	// Create fails with ErrDuplicateKey when the payment session id is taken.
	Create(ctx context.Context, o *Order) (*Order, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, u OrderUpdate) (*Order, error)
	// ClaimLineStock moves one line from StockPending to StockApplied and
	// reports whether this caller made the change.
	ClaimLineStock(ctx context.Context, id primitive.ObjectID, line int) (bool, error)
	// ReleaseLineStock returns an applied line to StockPending after its
	// decrement failed, so a later reconciliation can retry it.
	ReleaseLineStock(ctx context.Context, id primitive.ObjectID, line int) error
}

type UserStore interface {
	Create(ctx context.Context, u *User) (*User, error)
	Get(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, limit int) ([]User, int64, error)
}
