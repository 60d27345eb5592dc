package delivery

import (
	"context"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

type MockAuthService struct {
	ParseTokenFunc func(token string) (domain.Identity, error)
	RegisterFunc   func(ctx context.Context, in usecase.RegisterInput) (*domain.User, error)
	LoginFunc      func(ctx context.Context, email, password string) (*domain.User, string, error)
	ProfileFunc    func(ctx context.Context, caller domain.Identity) (*domain.User, error)
	ListUsersFunc  func(ctx context.Context, page, limit int) (*usecase.UserPage, error)
}

func (m *MockAuthService) ParseToken(token string) (domain.Identity, error) {
	return m.ParseTokenFunc(token)
}

func (m *MockAuthService) Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error) {
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) Profile(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	return m.ProfileFunc(ctx, caller)
}

func (m *MockAuthService) ListUsers(ctx context.Context, page, limit int) (*usecase.UserPage, error) {
	return m.ListUsersFunc(ctx, page, limit)
}

type MockProductService struct {
	ListFunc       func(ctx context.Context, filter domain.ProductFilter) (*usecase.ProductPage, error)
	GetFunc        func(ctx context.Context, id string) (*domain.Product, error)
	CategoriesFunc func(ctx context.Context) ([]string, error)
	CreateFunc     func(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdateFunc     func(ctx context.Context, id string, patch usecase.ProductPatch) (*domain.Product, error)
	DeleteFunc     func(ctx context.Context, id string) error
}

func (m *MockProductService) List(ctx context.Context, filter domain.ProductFilter) (*usecase.ProductPage, error) {
	return m.ListFunc(ctx, filter)
}

func (m *MockProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return m.GetFunc(ctx, id)
}

func (m *MockProductService) Categories(ctx context.Context) ([]string, error) {
	return m.CategoriesFunc(ctx)
}

func (m *MockProductService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	return m.CreateFunc(ctx, p)
}

func (m *MockProductService) Update(ctx context.Context, id string, patch usecase.ProductPatch) (*domain.Product, error) {
	return m.UpdateFunc(ctx, id, patch)
}

func (m *MockProductService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

type MockCheckoutService struct {
	CreateSessionFunc func(ctx context.Context, buyer domain.Identity, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
}

func (m *MockCheckoutService) CreateSession(ctx context.Context, buyer domain.Identity, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	return m.CreateSessionFunc(ctx, buyer, req)
}

type MockPaymentService struct {
	VerifyPaymentFunc func(ctx context.Context, caller domain.Identity, sessionID string) (*usecase.OrderView, error)
	HandleWebhookFunc func(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, caller domain.Identity, sessionID string) (*usecase.OrderView, error) {
	return m.VerifyPaymentFunc(ctx, caller, sessionID)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error) {
	return m.HandleWebhookFunc(ctx, payload, signature)
}

type MockOrderService struct {
	GetFunc         func(ctx context.Context, caller domain.Identity, id string) (*usecase.OrderView, error)
	ListMineFunc    func(ctx context.Context, caller domain.Identity, page, limit int) (*usecase.OrderPage, error)
	AdminListFunc   func(ctx context.Context, filter domain.OrderFilter) (*usecase.OrderPage, error)
	AdminUpdateFunc func(ctx context.Context, id string, u domain.OrderUpdate) (*domain.Order, error)
	PlaceDirectFunc func(ctx context.Context, caller domain.Identity, req usecase.DirectOrderRequest) (*usecase.OrderView, error)
}

func (m *MockOrderService) Get(ctx context.Context, caller domain.Identity, id string) (*usecase.OrderView, error) {
	return m.GetFunc(ctx, caller, id)
}

func (m *MockOrderService) ListMine(ctx context.Context, caller domain.Identity, page, limit int) (*usecase.OrderPage, error) {
	return m.ListMineFunc(ctx, caller, page, limit)
}

func (m *MockOrderService) AdminList(ctx context.Context, filter domain.OrderFilter) (*usecase.OrderPage, error) {
	return m.AdminListFunc(ctx, filter)
}

func (m *MockOrderService) AdminUpdate(ctx context.Context, id string, u domain.OrderUpdate) (*domain.Order, error) {
	return m.AdminUpdateFunc(ctx, id, u)
}

func (m *MockOrderService) PlaceDirect(ctx context.Context, caller domain.Identity, req usecase.DirectOrderRequest) (*usecase.OrderView, error) {
	return m.PlaceDirectFunc(ctx, caller, req)
}
