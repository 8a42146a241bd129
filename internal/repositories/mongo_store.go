package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type MongoConfig struct {
	DBName            string
	ProductDBPrefix   string
	ProductCollection string
	Timeout           time.Duration
}

var _ Store = (*MongoStore)(nil)

type MongoStore struct {
	client  *mongo.Client
	timeout time.Duration

	subscriptions *mongoSubscriptionRepository
	invoices      *mongoInvoiceRepository
	products      *mongoProductRepository
}

func NewMongoStore(client *mongo.Client, cfg MongoConfig) *MongoStore {
	db := client.Database(cfg.DBName)
	return &MongoStore{
		client:  client,
		timeout: cfg.Timeout,
		subscriptions: &mongoSubscriptionRepository{
			coll:    db.Collection(subscriptionsCollection),
			timeout: cfg.Timeout,
		},
		invoices: &mongoInvoiceRepository{
			coll:    db.Collection(invoicesCollection),
			timeout: cfg.Timeout,
		},
		products: &mongoProductRepository{
			client:     client,
			dbPrefix:   cfg.ProductDBPrefix,
			collection: cfg.ProductCollection,
			timeout:    cfg.Timeout,
		},
	}
}

func (s *MongoStore) Subscriptions() SubscriptionRepository { return s.subscriptions }
func (s *MongoStore) Invoices() InvoiceRepository           { return s.invoices }
func (s *MongoStore) Products() ProductRepository           { return s.products }

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique keys the upserts rely on plus the
// client lookup indexes used by the billing view.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.subscriptions.coll: {
			{
				Keys:    bson.D{{Key: "stripe_subscription_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		s.invoices.coll: {
			{
				Keys:    bson.D{{Key: "stripe_invoice_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: create %s indexes: %w", coll.Name(), err)
		}
	}
	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// upsertOne runs an upsert and retries once when two concurrent upserts for
// the same new key collide on the unique index; the retry then matches the
// winner's document.
func upsertOne(ctx context.Context, coll *mongo.Collection, filter, update bson.M) error {
	opts := options.UpdateOne().SetUpsert(true)
	_, err := coll.UpdateOne(ctx, filter, update, opts)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		_, err = coll.UpdateOne(ctx, filter, update, opts)
	}
	return err
}
