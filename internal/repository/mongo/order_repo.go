package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/domain"
)

var _ domain.OrderStore = (*OrderRepository)(nil)

type OrderRepository struct {
	coll *mongo.Collection
	log  *logrus.Logger
}

func NewOrderRepository(db *mongo.Database, logger *logrus.Logger) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection), log: logger}
}

// Create inserts the order. A second order for the same payment session
// trips the unique index and surfaces as domain.ErrDuplicateKey.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		return nil, mapError(err, "insert order "+o.OrderNumber)
	}
	r.log.Debugf("Mongo: order %s inserted", o.OrderNumber)
	return o, nil
}

func (r *OrderRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	var o domain.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mapError(err, "order "+id.Hex())
	}
	return &o, nil
}

func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	var o domain.Order
	if err := r.coll.FindOne(ctx, bson.M{"paymentSessionId": sessionID}).Decode(&o); err != nil {
		return nil, mapError(err, "order for session "+sessionID)
	}
	return &o, nil
}

func orderQuery(f domain.OrderFilter) bson.M {
	filter := bson.M{}
	if f.BuyerID != "" {
		filter["buyer.id"] = f.BuyerID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	f.Normalize()
	filter := orderQuery(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	order := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	cur, err := r.coll.Find(ctx, filter, findOptions(f.Page, f.Limit, order))
	if err != nil {
		return nil, 0, fmt.Errorf("find orders: %w", err)
	}
	orders := []domain.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return orders, total, nil
}

func orderUpdateDoc(u domain.OrderUpdate) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.PaymentStatus != nil {
		set["paymentStatus"] = *u.PaymentStatus
	}
	if u.TrackingNumber != nil {
		set["trackingNumber"] = *u.TrackingNumber
	}
	if u.Notes != nil {
		set["notes"] = *u.Notes
	}
	if u.EstimatedDelivery != nil {
		set["estimatedDelivery"] = *u.EstimatedDelivery
	}
	return bson.M{"$set": set}
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, u domain.OrderUpdate) (*domain.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o domain.Order
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, orderUpdateDoc(u), opts).Decode(&o)
	if err != nil {
		return nil, mapError(err, "order "+id.Hex())
	}
	return &o, nil
}

// ClaimLineStock flips items.<line>.stockState from pending to applied in a
// single conditional update. Only one caller can observe ModifiedCount 1.
func (r *OrderRepository) ClaimLineStock(ctx context.Context, id primitive.ObjectID, line int) (bool, error) {
	field := fmt.Sprintf("items.%d.stockState", line)
	filter := bson.M{"_id": id, field: domain.StockPending}
	update := bson.M{"$set": bson.M{field: domain.StockApplied}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, mapError(err, "claim stock on order "+id.Hex())
	}
	return res.ModifiedCount == 1, nil
}

func (r *OrderRepository) ReleaseLineStock(ctx context.Context, id primitive.ObjectID, line int) error {
	field := fmt.Sprintf("items.%d.stockState", line)
	filter := bson.M{"_id": id, field: domain.StockApplied}
	update := bson.M{"$set": bson.M{field: domain.StockPending}}

	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return mapError(err, "release stock on order "+id.Hex())
	}
	return nil
}
