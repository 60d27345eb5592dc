package delivery

import (
	"context"

	"github.com/sirupsen/logrus"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

type AuthService interface {
	TokenParser
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Profile(ctx context.Context, caller domain.Identity) (*domain.User, error)
	ListUsers(ctx context.Context, page, limit int) (*usecase.UserPage, error)
}

type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) (*usecase.ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, patch usecase.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type CheckoutService interface {
	CreateSession(ctx context.Context, buyer domain.Identity, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
}

type PaymentService interface {
	VerifyPayment(ctx context.Context, caller domain.Identity, sessionID string) (*usecase.OrderView, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error)
}

type OrderService interface {
	Get(ctx context.Context, caller domain.Identity, id string) (*usecase.OrderView, error)
	ListMine(ctx context.Context, caller domain.Identity, page, limit int) (*usecase.OrderPage, error)
	AdminList(ctx context.Context, filter domain.OrderFilter) (*usecase.OrderPage, error)
	AdminUpdate(ctx context.Context, id string, u domain.OrderUpdate) (*domain.Order, error)
	PlaceDirect(ctx context.Context, caller domain.Identity, req usecase.DirectOrderRequest) (*usecase.OrderView, error)
}

// Handler serves the storefront HTTP API.
type Handler struct {
	auth     AuthService
	products ProductService
	checkout CheckoutService
	payments PaymentService
	orders   OrderService
	log      *logrus.Logger
}

type Services struct {
	Auth     AuthService
	Products ProductService
	Checkout CheckoutService
	Payments PaymentService
	Orders   OrderService
}

func NewHandler(s Services, logger *logrus.Logger) *Handler {
	return &Handler{
		auth:     s.Auth,
		products: s.Products,
		checkout: s.Checkout,
		payments: s.Payments,
		orders:   s.Orders,
		log:      logger,
	}
}
