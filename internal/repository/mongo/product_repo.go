package mongo

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/domain"
)

var _ domain.ProductStore = (*ProductRepository)(nil)

type ProductRepository struct {
	coll *mongo.Collection
	log  *logrus.Logger
}

func NewProductRepository(db *mongo.Database, logger *logrus.Logger) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection), log: logger}
}

func (r *ProductRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var p domain.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return nil, mapError(err, "product "+id.Hex())
	}
	return &p, nil
}

// productQuery builds the find filter and sort for a catalog listing.
func productQuery(f domain.ProductFilter) (bson.M, bson.D) {
	filter := bson.M{}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Featured {
		filter["featured"] = true
	}
	if f.MaxStock != nil {
		filter["stock"] = bson.M{"$lt": *f.MaxStock}
	}

	dir := -1
	if f.Asc {
		dir = 1
	}
	return filter, bson.D{{Key: f.Sort, Value: dir}, {Key: "_id", Value: dir}}
}

func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	f.Normalize()
	filter, order := productQuery(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	cur, err := r.coll.Find(ctx, filter, findOptions(f.Page, f.Limit, order))
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}
	return products, total, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return nil, mapError(err, "insert product")
	}
	r.log.Debugf("Mongo: product %s inserted", p.ID.Hex())
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	update := bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    p.Category,
		"stock":       p.Stock,
		"images":      p.Images,
		"featured":    p.Featured,
		"updatedAt":   time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, update, opts).Decode(&updated)
	if err != nil {
		return nil, mapError(err, "product "+p.ID.Hex())
	}
	return &updated, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err, "delete product "+id.Hex())
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id.Hex(), domain.ErrNotFound)
	}
	return nil
}

// decrementPipeline clamps the new stock at zero inside the server so
// concurrent decrements never race on a read-modify-write.
func decrementPipeline(qty int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"stock":     bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$stock", qty}}}},
			"updatedAt": "$$NOW",
		}}},
	}
}

func (r *ProductRepository) Decrement(ctx context.Context, id primitive.ObjectID, qty int) (*domain.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p domain.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, decrementPipeline(qty), opts).Decode(&p)
	if err != nil {
		return nil, mapError(err, "product "+id.Hex())
	}
	return &p, nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "category", bson.M{"category": bson.M{"$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}
