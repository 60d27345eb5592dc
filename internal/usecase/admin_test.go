package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/repository/memory"
)

func TestProductUseCaseCRUD(t *testing.T) {
	ctx := context.Background()
	uc := NewProductUseCase(memory.NewProductRepository(quietLogger()), quietLogger())

	_, err := uc.Create(ctx, &domain.Product{Name: "  ", Description: "d", Category: "c"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = uc.Create(ctx, &domain.Product{Name: "Tea", Description: "d", Category: "c", Price: -1})
	assert.True(t, domain.HasCode(err, domain.CodeInvalidPrice))

	p, err := uc.Create(ctx, &domain.Product{Name: " Tea ", Description: "loose", Category: "tea", Price: 1500, Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, "Tea", p.Name)

	stock := 9
	featured := true
	updated, err := uc.Update(ctx, p.ID.Hex(), ProductPatch{Stock: &stock, Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.True(t, updated.Featured)
	assert.Equal(t, "Tea", updated.Name)

	negative := -3
	_, err = uc.Update(ctx, p.ID.Hex(), ProductPatch{Stock: &negative})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	page, err := uc.List(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Pagination.Total)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, 1, page.Pagination.Pages)

	require.NoError(t, uc.Delete(ctx, p.ID.Hex()))
	_, err = uc.Get(ctx, p.ID.Hex())
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(uc.Delete(ctx, p.ID.Hex())))
	assert.Equal(t, domain.KindValidation, domain.KindOf(uc.Delete(ctx, "zzz")))
}

func seedOrder(t *testing.T, orders *memory.OrderRepository, owner domain.Identity, status domain.OrderStatus) *domain.Order {
	t.Helper()
	o, err := orders.Create(context.Background(), &domain.Order{
		OrderNumber: domain.NewOrderNumber(time.Now()),
		Buyer:       domain.Buyer{ID: owner.UserID, Email: owner.Email, Name: owner.Name},
		Items:       []domain.OrderItem{{Name: "Tea", Quantity: 1, Price: 1500, StockState: domain.StockApplied}},
		Status:      status,
		TotalAmount: 1500,
	})
	require.NoError(t, err)
	return o
}

func TestOrderUseCaseAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := seedOrder(t, f.orders, buyer, domain.StatusConfirmed)

	view, err := f.orderUC.Get(ctx, buyer, o.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, view.OrderNumber)

	_, err = f.orderUC.Get(ctx, admin, o.ID.Hex())
	require.NoError(t, err)

	_, err = f.orderUC.Get(ctx, other, o.ID.Hex())
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = f.orderUC.Get(ctx, domain.Identity{}, o.ID.Hex())
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	_, err = f.orderUC.Get(ctx, buyer, "64b7f0c2a1b2c3d4e5f60700")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	seedOrder(t, f.orders, other, domain.StatusConfirmed)
	mine, err := f.orderUC.ListMine(ctx, buyer, 1, 10)
	require.NoError(t, err)
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, o.ID, mine.Orders[0].ID)

	all, err := f.orderUC.AdminList(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Pagination.Total)

	_, err = f.orderUC.AdminList(ctx, domain.OrderFilter{Status: "lost"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestOrderAdminUpdateTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	status := func(s domain.OrderStatus) *domain.OrderStatus { return &s }

	o := seedOrder(t, f.orders, buyer, domain.StatusConfirmed)
	tracking := "1Z999AA10123456784"
	updated, err := f.orderUC.AdminUpdate(ctx, o.ID.Hex(), domain.OrderUpdate{Status: status(domain.StatusShipped), TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, updated.Status)
	assert.Equal(t, tracking, updated.TrackingNumber)
	assert.Equal(t, o.Items, updated.Items)

	_, err = f.orderUC.AdminUpdate(ctx, o.ID.Hex(), domain.OrderUpdate{})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	delivered := seedOrder(t, f.orders, buyer, domain.StatusDelivered)
	_, err = f.orderUC.AdminUpdate(ctx, delivered.ID.Hex(), domain.OrderUpdate{Status: status(domain.StatusCancelled)})
	assert.True(t, domain.HasCode(err, domain.CodeInvalidStatusTransition))

	cancelled := seedOrder(t, f.orders, buyer, domain.StatusCancelled)
	_, err = f.orderUC.AdminUpdate(ctx, cancelled.ID.Hex(), domain.OrderUpdate{Status: status(domain.StatusProcessing)})
	assert.True(t, domain.HasCode(err, domain.CodeInvalidStatusTransition))

	refunded := domain.PaymentRefunded
	out, err := f.orderUC.AdminUpdate(ctx, cancelled.ID.Hex(), domain.OrderUpdate{PaymentStatus: &refunded})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, out.PaymentStatus)

	bogus := domain.PaymentStatus("maybe")
	_, err = f.orderUC.AdminUpdate(ctx, o.ID.Hex(), domain.OrderUpdate{PaymentStatus: &bogus})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func newAuth(t *testing.T) *AuthUseCase {
	t.Helper()
	return NewAuthUseCase(memory.NewUserRepository(quietLogger()), AuthOptions{
		Secret:      []byte("test-secret"),
		TTL:         time.Hour,
		AdminEmails: []string{"Root@Example.com"},
	}, quietLogger())
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	uc := newAuth(t)

	u, err := uc.Register(ctx, RegisterInput{Name: "Ada", Email: "Ada@Example.com", Password: "Secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "Secret1", u.PasswordHash)

	_, err = uc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Secret1"})
	assert.True(t, domain.HasCode(err, domain.CodeEmailTaken))

	root, err := uc.Register(ctx, RegisterInput{Name: "Root", Email: "root@example.com", Password: "Secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, root.Role)

	_, token, err := uc.Login(ctx, "ada@example.com", "Secret1")
	require.NoError(t, err)
	id, err := uc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.False(t, id.IsAdmin())

	_, _, err = uc.Login(ctx, "ada@example.com", "wrong")
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	_, _, err = uc.Login(ctx, "nobody@example.com", "Secret1")
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	profile, err := uc.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)

	users, err := uc.ListUsers(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, users.Pagination.Total)
}

func TestAuthRegisterValidation(t *testing.T) {
	uc := newAuth(t)
	cases := map[string]RegisterInput{
		"short name":     {Name: "A", Email: "a@example.com", Password: "Secret1"},
		"bad email":      {Name: "Ada", Email: "not-an-email", Password: "Secret1"},
		"short password": {Name: "Ada", Email: "a@example.com", Password: "Se1"},
		"no digit":       {Name: "Ada", Email: "a@example.com", Password: "Secrets"},
		"no upper":       {Name: "Ada", Email: "a@example.com", Password: "secret1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), in)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestParseTokenRejects(t *testing.T) {
	uc := newAuth(t)
	id := domain.Identity{UserID: "u1", Email: "ada@example.com", Role: domain.RoleCustomer}

	uc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := uc.IssueToken(id)
	require.NoError(t, err)
	_, err = uc.ParseToken(expired)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	uc.now = time.Now
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{Email: "x@example.com"}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = uc.ParseToken(foreign)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	_, err = uc.ParseToken("garbage")
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}
