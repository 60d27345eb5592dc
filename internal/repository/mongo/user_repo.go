package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/domain"
)

var _ domain.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	coll *mongo.Collection
	log  *logrus.Logger
}

func NewUserRepository(db *mongo.Database, logger *logrus.Logger) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), log: logger}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = time.Now().UTC()

	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		return nil, mapError(err, "insert user "+u.Email)
	}
	return u, nil
}

func (r *UserRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapError(err, "user "+id.Hex())
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.coll.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u); err != nil {
		return nil, mapError(err, "user "+email)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, findOptions(page, limit, bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	return users, total, nil
}
