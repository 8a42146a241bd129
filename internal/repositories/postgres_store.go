package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps the same collections as tables. Products are a single
// table partitioned by client_id.
type PostgresStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewPostgresStore(db *gorm.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) Subscriptions() SubscriptionRepository {
	return &gormSubscriptionRepository{db: s.db, timeout: s.timeout}
}

func (s *PostgresStore) Invoices() InvoiceRepository {
	return &gormInvoiceRepository{db: s.db, timeout: s.timeout}
}

func (s *PostgresStore) Products() ProductRepository {
	return &gormProductRepository{db: s.db, timeout: s.timeout}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the tables billing owns. The products table belongs to the
// product service and is not touched.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&db_models.Subscription{}, &db_models.Invoice{}); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

type gormSubscriptionRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func (r *gormSubscriptionRepository) Upsert(ctx context.Context, sub *db_models.Subscription) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	row := *sub
	row.ID = 0
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"client_id", "stripe_customer_id", "tier", "status",
			"current_period_start", "current_period_end", "cancel_at_period_end", "updated_at",
		}),
	}).Create(&row).Error

	return utils.StoreError("subscriptions: upsert", err)
}

func (r *gormSubscriptionRepository) UpdatePeriod(ctx context.Context, stripeSubscriptionID string, period db_models.SubscriptionPeriod, updatedAt time.Time) (bool, error) {
	return r.updateExisting(ctx, "subscriptions: update period", stripeSubscriptionID, map[string]interface{}{
		"status":               period.Status,
		"current_period_start": period.CurrentPeriodStart,
		"current_period_end":   period.CurrentPeriodEnd,
		"cancel_at_period_end": period.CancelAtPeriodEnd,
		"updated_at":           updatedAt,
	})
}

func (r *gormSubscriptionRepository) SetStatus(ctx context.Context, stripeSubscriptionID string, status db_models.SubscriptionStatus, updatedAt time.Time) (bool, error) {
	return r.updateExisting(ctx, "subscriptions: set status", stripeSubscriptionID, map[string]interface{}{
		"status":     status,
		"updated_at": updatedAt,
	})
}

func (r *gormSubscriptionRepository) updateExisting(ctx context.Context, op, stripeSubscriptionID string, fields map[string]interface{}) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(fields)
	if res.Error != nil {
		return false, utils.StoreError(op, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormSubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*db_models.Subscription, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var sub db_models.Subscription
	err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, utils.StoreError("subscriptions: get by stripe id", err)
	}
	return &sub, nil
}

func (r *gormSubscriptionRepository) GetLatestByClient(ctx context.Context, clientID string) (*db_models.Subscription, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var sub db_models.Subscription
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("updated_at DESC").First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, utils.StoreError("subscriptions: get by client", err)
	}
	return &sub, nil
}

type gormInvoiceRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func (r *gormInvoiceRepository) Upsert(ctx context.Context, inv *db_models.Invoice) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	row := *inv
	row.ID = 0
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_invoice_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"client_id", "stripe_subscription_id", "amount", "currency",
			"status", "invoice_url", "paid_at", "created_at",
		}),
	}).Create(&row).Error

	return utils.StoreError("invoices: upsert", err)
}

func (r *gormInvoiceRepository) ListRecentByClient(ctx context.Context, clientID string, limit int) ([]db_models.Invoice, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	invoices := make([]db_models.Invoice, 0, limit)
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, utils.StoreError("invoices: list", err)
	}
	return invoices, nil
}

type gormProductRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func (r *gormProductRepository) CountCreatedSince(ctx context.Context, clientID string, since time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var n int64
	err := r.db.WithContext(ctx).
		Model(&db_models.Product{}).
		Where("client_id = ? AND created_at >= ?", clientID, since).
		Count(&n).Error
	if err != nil {
		return 0, utils.StoreError("products: count", err)
	}
	return n, nil
}
