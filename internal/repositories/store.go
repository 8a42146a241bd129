package repositories

import (
	"context"
	"time"

	"certean-billing/internal/models/db_models"
)

const (
	subscriptionsCollection = "subscriptions"
	invoicesCollection      = "invoices"
)

// Store is the explicit handle to the billing persistence layer. It is built
// once at startup and closed on shutdown.
type Store interface {
	Subscriptions() SubscriptionRepository
	Invoices() InvoiceRepository
	Products() ProductRepository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// SubscriptionRepository persists subscriptions keyed by their Stripe id.
// Update methods report whether a record matched; an unknown id is not an error.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *db_models.Subscription) error
	UpdatePeriod(ctx context.Context, stripeSubscriptionID string, period db_models.SubscriptionPeriod, updatedAt time.Time) (bool, error)
	SetStatus(ctx context.Context, stripeSubscriptionID string, status db_models.SubscriptionStatus, updatedAt time.Time) (bool, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*db_models.Subscription, error)
	GetLatestByClient(ctx context.Context, clientID string) (*db_models.Subscription, error)
}

type InvoiceRepository interface {
	Upsert(ctx context.Context, inv *db_models.Invoice) error
	ListRecentByClient(ctx context.Context, clientID string, limit int) ([]db_models.Invoice, error)
}

// ProductRepository reads the per-client product partition.
type ProductRepository interface {
	CountCreatedSince(ctx context.Context, clientID string, since time.Time) (int64, error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
