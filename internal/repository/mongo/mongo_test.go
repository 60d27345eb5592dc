package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/domain"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "x"))

	err := mapError(mongo.ErrNoDocuments, "order 1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	err = mapError(dup, "insert order")
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	other := errors.New("socket closed")
	err = mapError(other, "insert order")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestProductQuery(t *testing.T) {
	lowStock := 5
	f := domain.ProductFilter{Search: "tea.pot", Category: "kitchen", Featured: true, MaxStock: &lowStock, Sort: domain.SortPrice, Asc: true}
	f.Normalize()

	filter, order := productQuery(f)
	assert.Equal(t, "kitchen", filter["category"])
	assert.Equal(t, true, filter["featured"])
	assert.Equal(t, bson.M{"$lt": 5}, filter["stock"])

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, primitive.Regex{Pattern: `tea\.pot`, Options: "i"}, or[0].(bson.M)["name"])

	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}, order)
}

func TestProductQueryDefaults(t *testing.T) {
	f := domain.ProductFilter{}
	f.Normalize()

	filter, order := productQuery(f)
	assert.Empty(t, filter)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, order)
}

func TestOrderQueryAndUpdate(t *testing.T) {
	filter := orderQuery(domain.OrderFilter{BuyerID: "u1", Status: domain.StatusShipped})
	assert.Equal(t, bson.M{"buyer.id": "u1", "status": domain.StatusShipped}, filter)

	status := domain.StatusDelivered
	tracking := "1Z999"
	doc := orderUpdateDoc(domain.OrderUpdate{Status: &status, TrackingNumber: &tracking})
	set := doc["$set"].(bson.M)
	assert.Equal(t, domain.StatusDelivered, set["status"])
	assert.Equal(t, "1Z999", set["trackingNumber"])
	assert.Contains(t, set, "updatedAt")
	assert.NotContains(t, set, "notes")
}

func TestDecrementPipelineClampsAtZero(t *testing.T) {
	p := decrementPipeline(3)
	require.Len(t, p, 1)

	set := p[0][0]
	assert.Equal(t, "$set", set.Key)
	stock := set.Value.(bson.M)["stock"]
	assert.Equal(t, bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$stock", 3}}}}, stock)
}

func TestFindOptionsPaging(t *testing.T) {
	opts := findOptions(3, 12, bson.D{{Key: "createdAt", Value: -1}})
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(24), *opts.Skip)
	assert.Equal(t, int64(12), *opts.Limit)
}
