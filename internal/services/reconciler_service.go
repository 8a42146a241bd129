package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	dbm "certean-billing/internal/models/db_models"
	"certean-billing/internal/repositories"
	"certean-billing/pkg/utils"
)

// ReconcilerService applies webhook events to the store. Every operation is
// an upsert or update keyed by the Stripe id, so redelivered or concurrent
// events converge on the same record.
type ReconcilerService interface {
	OnCheckoutCompleted(ctx context.Context, s *CheckoutSubject) error
	OnSubscriptionUpdated(ctx context.Context, s *SubscriptionSubject) error
	OnSubscriptionDeleted(ctx context.Context, s *SubscriptionSubject) error
	OnInvoicePaid(ctx context.Context, s *InvoiceSubject) error
	OnInvoicePaymentFailed(ctx context.Context, s *InvoiceSubject) error
}

type reconcilerService struct {
	store     repositories.Store
	processor Processor
	tiers     *TierResolver
	log       *zap.Logger
	now       func() time.Time
}

func NewReconcilerService(store repositories.Store, processor Processor, tiers *TierResolver, log *zap.Logger) ReconcilerService {
	return &reconcilerService{
		store:     store,
		processor: processor,
		tiers:     tiers,
		log:       log,
		now:       utils.NowUTC,
	}
}

func (r *reconcilerService) OnCheckoutCompleted(ctx context.Context, s *CheckoutSubject) error {
	if s.ClientID == "" {
		return fmt.Errorf("%w: checkout session %s has no client_id metadata", utils.ErrInvalidPayload, s.SessionID)
	}
	if s.SubscriptionID == "" {
		return fmt.Errorf("%w: checkout session %s has no subscription", utils.ErrInvalidPayload, s.SessionID)
	}

	detail, err := r.processor.GetSubscription(ctx, s.SubscriptionID)
	if err != nil {
		return err
	}

	customerID := s.CustomerID
	if customerID == "" {
		customerID = detail.CustomerID
	}

	now := r.now()
	sub := &dbm.Subscription{
		ClientID:             s.ClientID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: s.SubscriptionID,
		Tier:                 r.tiers.Resolve(detail.PriceID),
		Status:               detail.Status,
		CurrentPeriodStart:   detail.CurrentPeriodStart,
		CurrentPeriodEnd:     detail.CurrentPeriodEnd,
		CancelAtPeriodEnd:    detail.CancelAtPeriodEnd,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := r.store.Subscriptions().Upsert(ctx, sub); err != nil {
		return err
	}

	r.log.Info("subscription activated",
		zap.String("client_id", sub.ClientID),
		zap.String("subscription_id", sub.StripeSubscriptionID),
		zap.String("tier", string(sub.Tier)),
		zap.String("status", string(sub.Status)))
	return nil
}

func (r *reconcilerService) OnSubscriptionUpdated(ctx context.Context, s *SubscriptionSubject) error {
	found, err := r.store.Subscriptions().UpdatePeriod(ctx, s.ID, s.Period(), r.now())
	if err != nil {
		return err
	}
	if !found {
		r.log.Warn("subscription update for unknown id ignored", zap.String("subscription_id", s.ID))
		return nil
	}
	r.log.Info("subscription updated", zap.String("subscription_id", s.ID), zap.String("status", string(s.Status)))
	return nil
}

func (r *reconcilerService) OnSubscriptionDeleted(ctx context.Context, s *SubscriptionSubject) error {
	found, err := r.store.Subscriptions().SetStatus(ctx, s.ID, dbm.SubStatusCanceled, r.now())
	if err != nil {
		return err
	}
	if !found {
		r.log.Warn("subscription deletion for unknown id ignored", zap.String("subscription_id", s.ID))
		return nil
	}
	r.log.Info("subscription canceled", zap.String("subscription_id", s.ID))
	return nil
}

func (r *reconcilerService) OnInvoicePaid(ctx context.Context, s *InvoiceSubject) error {
	if s.SubscriptionID == "" {
		r.log.Debug("invoice without subscription skipped", zap.String("invoice_id", s.ID))
		return nil
	}

	owner, err := r.store.Subscriptions().GetByStripeID(ctx, s.SubscriptionID)
	if err != nil {
		return err
	}
	if owner == nil {
		r.log.Warn("invoice for unknown subscription skipped",
			zap.String("invoice_id", s.ID),
			zap.String("subscription_id", s.SubscriptionID))
		return nil
	}

	created := s.Created
	if created.IsZero() {
		created = r.now()
	}
	inv := &dbm.Invoice{
		ClientID:             owner.ClientID,
		StripeInvoiceID:      s.ID,
		StripeSubscriptionID: s.SubscriptionID,
		Amount:               MinorToMajor(s.AmountPaid, s.Currency),
		Currency:             strings.ToUpper(s.Currency),
		Status:               dbm.InvoiceStatusPaid,
		InvoiceURL:           s.HostedInvoiceURL,
		PaidAt:               s.PaidAt,
		CreatedAt:            created,
	}
	if err := r.store.Invoices().Upsert(ctx, inv); err != nil {
		return err
	}

	r.log.Info("invoice recorded",
		zap.String("client_id", inv.ClientID),
		zap.String("invoice_id", inv.StripeInvoiceID),
		zap.Float64("amount", inv.Amount),
		zap.String("currency", inv.Currency))
	return nil
}

func (r *reconcilerService) OnInvoicePaymentFailed(ctx context.Context, s *InvoiceSubject) error {
	if s.SubscriptionID == "" {
		return nil
	}
	found, err := r.store.Subscriptions().SetStatus(ctx, s.SubscriptionID, dbm.SubStatusPastDue, r.now())
	if err != nil {
		return err
	}
	if !found {
		r.log.Warn("payment failure for unknown subscription ignored",
			zap.String("invoice_id", s.ID),
			zap.String("subscription_id", s.SubscriptionID))
		return nil
	}
	r.log.Info("subscription past due", zap.String("subscription_id", s.SubscriptionID), zap.String("invoice_id", s.ID))
	return nil
}

// Currencies Stripe bills in whole units.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// MinorToMajor converts a Stripe amount to major units: 1999 usd -> 19.99,
// 500 jpy -> 500.
func MinorToMajor(amount int64, currency string) float64 {
	if _, ok := zeroDecimalCurrencies[strings.ToLower(currency)]; ok {
		return float64(amount)
	}
	return float64(amount) / 100
}
