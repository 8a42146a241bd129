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

type mongoInvoiceRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *mongoInvoiceRepository) Upsert(ctx context.Context, inv *db_models.Invoice) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"stripe_invoice_id": inv.StripeInvoiceID}
	update := bson.M{"$set": bson.M{
		"client_id":              inv.ClientID,
		"stripe_invoice_id":      inv.StripeInvoiceID,
		"stripe_subscription_id": inv.StripeSubscriptionID,
		"amount":                 inv.Amount,
		"currency":               inv.Currency,
		"status":                 inv.Status,
		"invoice_url":            inv.InvoiceURL,
		"paid_at":                inv.PaidAt,
		"created_at":             inv.CreatedAt,
	}}

	return utils.StoreError("invoices: upsert", upsertOne(ctx, r.coll, filter, update))
}

func (r *mongoInvoiceRepository) ListRecentByClient(ctx context.Context, clientID string, limit int) ([]db_models.Invoice, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, utils.StoreError("invoices: list", err)
	}

	var docs []invoiceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, utils.StoreError("invoices: decode", err)
	}

	invoices := make([]db_models.Invoice, 0, len(docs))
	for i := range docs {
		invoices = append(invoices, docs[i].model())
	}
	return invoices, nil
}
