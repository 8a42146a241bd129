package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"certean-billing/pkg/utils"
)

// mongoProductRepository reads products from one database per client,
// named <dbPrefix><clientID>. Callers validate clientID before it reaches here.
type mongoProductRepository struct {
	client     *mongo.Client
	dbPrefix   string
	collection string
	timeout    time.Duration
}

func (r *mongoProductRepository) collectionFor(clientID string) *mongo.Collection {
	return r.client.Database(r.dbPrefix + clientID).Collection(r.collection)
}

// CountCreatedSince matches createdAt stored either as a BSON date or as the
// ISO string the product service writes.
func (r *mongoProductRepository) CountCreatedSince(ctx context.Context, clientID string, since time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"createdAt": bson.M{"$gte": since.UTC()}},
		bson.M{"createdAt": bson.M{"$gte": utils.FormatISO(since)}},
	}}

	n, err := r.collectionFor(clientID).CountDocuments(ctx, filter)
	if err != nil {
		return 0, utils.StoreError("products: count", err)
	}
	return n, nil
}
