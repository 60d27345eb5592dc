package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// StockState tracks whether a line's stock decrement has been claimed.
type StockState string

const (
	StockPending StockState = "pending"
	StockApplied StockState = "applied"
	StockSkipped StockState = "skipped"
)

const (
	PaymentMethodStripe         = "stripe"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodBankTransfer   = "bank_transfer"
)

// DirectPaymentMethod reports whether m settles outside the card gateway,
// so its orders carry no payment session id.
func DirectPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodBankTransfer:
		return true
	default:
		return false
	}
}

// Buyer is the identity snapshot taken when the order is created.
type Buyer struct {
	ID    string `bson:"id" json:"id"`
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name" json:"name"`
}

type ShippingAddress struct {
	FirstName string `bson:"firstName" json:"firstName" yaml:"firstName"`
	LastName  string `bson:"lastName" json:"lastName" yaml:"lastName"`
	Email     string `bson:"email" json:"email" yaml:"email"`
	Phone     string `bson:"phone" json:"phone" yaml:"phone"`
	Address   string `bson:"address" json:"address" yaml:"address"`
	City      string `bson:"city" json:"city" yaml:"city"`
	State     string `bson:"state" json:"state" yaml:"state"`
	ZipCode   string `bson:"zipCode" json:"zipCode" yaml:"zipCode"`
	Country   string `bson:"country" json:"country" yaml:"country"`
}

// Validate requires every field to be non-blank.
func (a ShippingAddress) Validate() error {
	fields := []struct{ name, value string }{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.Email},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return Validation(CodeInvalidInput, "missing required address field: %s", f.name)
		}
	}
	return nil
}

type OrderItem struct {
	ProductID  primitive.ObjectID `bson:"productId" json:"productId"`
	Name       string             `bson:"name" json:"name"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Price      Money              `bson:"price" json:"price"`
	StockState StockState         `bson:"stockState" json:"stockState"`
}

func (i OrderItem) LineTotal() Money { return i.Price.Mul(i.Quantity) }

type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber       string             `bson:"orderNumber" json:"orderNumber"`
	Buyer             Buyer              `bson:"buyer" json:"user"`
	Items             []OrderItem        `bson:"items" json:"items"`
	ShippingAddress   ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod     string             `bson:"paymentMethod" json:"paymentMethod"`
	TotalAmount       Money              `bson:"totalAmount" json:"totalAmount"`
	Status            OrderStatus        `bson:"status" json:"status"`
	PaymentStatus     PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentSessionID  string             `bson:"paymentSessionId,omitempty" json:"paymentSessionId,omitempty"`
	PaymentIntentID   string             `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	TrackingNumber    string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	EstimatedDelivery *time.Time         `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PendingLines returns the indexes of lines whose stock is not yet claimed.
func (o *Order) PendingLines() []int {
	var idx []int
	for i, item := range o.Items {
		if item.StockState == StockPending {
			idx = append(idx, i)
		}
	}
	return idx
}

// OwnedBy reports whether the caller may read this order.
func (o *Order) OwnedBy(id Identity) bool {
	if id.IsAdmin() {
		return true
	}
	if o.Buyer.ID != "" && o.Buyer.ID == id.UserID {
		return true
	}
	return o.Buyer.Email != "" && strings.EqualFold(o.Buyer.Email, id.Email)
}

// CheckTransition enforces the admin status rules: cancelled is terminal
// and a delivered order cannot be cancelled.
func (o *Order) CheckTransition(to OrderStatus) error {
	if !to.Valid() {
		return Validation(CodeInvalidStatusTransition, "invalid order status: %s", to)
	}
	if o.Status == StatusCancelled && to != StatusCancelled {
		return Validation(CodeInvalidStatusTransition, "cannot change status of a cancelled order")
	}
	if o.Status == StatusDelivered && to == StatusCancelled {
		return Validation(CodeInvalidStatusTransition, "cannot cancel a delivered order")
	}
	return nil
}

// OrderUpdate carries the admin-mutable fields. Nil means unchanged.
type OrderUpdate struct {
	Status            *OrderStatus
	PaymentStatus     *PaymentStatus
	TrackingNumber    *string
	Notes             *string
	EstimatedDelivery *time.Time
}

func (u OrderUpdate) Empty() bool {
	return u.Status == nil && u.PaymentStatus == nil && u.TrackingNumber == nil &&
		u.Notes == nil && u.EstimatedDelivery == nil
}

type OrderFilter struct {
	BuyerID string
	Status  OrderStatus
	Page    int
	Limit   int
}

func (f *OrderFilter) Normalize() {
	f.Page, f.Limit = NormalizePage(f.Page, f.Limit, 10)
}

// NewOrderNumber builds a human-readable, time-ordered order number.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
