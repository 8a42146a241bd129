package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

type mongoSubscriptionRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *mongoSubscriptionRepository) Upsert(ctx context.Context, sub *db_models.Subscription) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"stripe_subscription_id": sub.StripeSubscriptionID}
	update := bson.M{
		"$set": bson.M{
			"client_id":              sub.ClientID,
			"stripe_customer_id":     sub.StripeCustomerID,
			"stripe_subscription_id": sub.StripeSubscriptionID,
			"tier":                   sub.Tier,
			"status":                 sub.Status,
			"current_period_start":   sub.CurrentPeriodStart,
			"current_period_end":     sub.CurrentPeriodEnd,
			"cancel_at_period_end":   sub.CancelAtPeriodEnd,
			"updated_at":             sub.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"created_at": sub.CreatedAt,
		},
	}

	return utils.StoreError("subscriptions: upsert", upsertOne(ctx, r.coll, filter, update))
}

func (r *mongoSubscriptionRepository) UpdatePeriod(ctx context.Context, stripeSubscriptionID string, period db_models.SubscriptionPeriod, updatedAt time.Time) (bool, error) {
	return r.updateExisting(ctx, "subscriptions: update period", stripeSubscriptionID, bson.M{
		"status":               period.Status,
		"current_period_start": period.CurrentPeriodStart,
		"current_period_end":   period.CurrentPeriodEnd,
		"cancel_at_period_end": period.CancelAtPeriodEnd,
		"updated_at":           updatedAt,
	})
}

func (r *mongoSubscriptionRepository) SetStatus(ctx context.Context, stripeSubscriptionID string, status db_models.SubscriptionStatus, updatedAt time.Time) (bool, error) {
	return r.updateExisting(ctx, "subscriptions: set status", stripeSubscriptionID, bson.M{
		"status":     status,
		"updated_at": updatedAt,
	})
}

func (r *mongoSubscriptionRepository) updateExisting(ctx context.Context, op, stripeSubscriptionID string, fields bson.M) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"stripe_subscription_id": stripeSubscriptionID},
		bson.M{"$set": fields},
	)
	if err != nil {
		return false, utils.StoreError(op, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoSubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*db_models.Subscription, error) {
	return r.findOne(ctx, "subscriptions: get by stripe id",
		bson.M{"stripe_subscription_id": stripeSubscriptionID}, nil)
}

func (r *mongoSubscriptionRepository) GetLatestByClient(ctx context.Context, clientID string) (*db_models.Subscription, error) {
	return r.findOne(ctx, "subscriptions: get by client",
		bson.M{"client_id": clientID},
		options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
}

func (r *mongoSubscriptionRepository) findOne(ctx context.Context, op string, filter bson.M, opts *options.FindOneOptionsBuilder) (*db_models.Subscription, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var res *mongo.SingleResult
	if opts != nil {
		res = r.coll.FindOne(ctx, filter, opts)
	} else {
		res = r.coll.FindOne(ctx, filter)
	}

	var doc subscriptionDocument
	if err := res.Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, utils.StoreError(op, err)
	}
	return doc.model(), nil
}
