package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	dbm "certean-billing/internal/models/db_models"
	"certean-billing/internal/models/response_models"
	"certean-billing/internal/repositories"
	"certean-billing/pkg/utils"
)

const recentInvoiceLimit = 10

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateClientID rejects ids that could not name a product partition.
func ValidateClientID(clientID string) error {
	if !clientIDPattern.MatchString(clientID) {
		return fmt.Errorf("%w: %q", utils.ErrInvalidClientID, clientID)
	}
	return nil
}

type BillingViewService interface {
	Build(ctx context.Context, clientID string) (*response_models.BillingInfoResponse, error)
}

type billingViewService struct {
	store repositories.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewBillingViewService(store repositories.Store, log *zap.Logger) BillingViewService {
	return &billingViewService{store: store, log: log, now: utils.NowUTC}
}

// Build joins the client's latest subscription, recent invoices and product
// usage for the current period. A client without a subscription gets the
// free tier view.
func (b *billingViewService) Build(ctx context.Context, clientID string) (*response_models.BillingInfoResponse, error) {
	if err := ValidateClientID(clientID); err != nil {
		return nil, err
	}

	sub, err := b.store.Subscriptions().GetLatestByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if sub == nil {
		now := b.now()
		return &response_models.BillingInfoResponse{
			Invoices: []response_models.InvoiceResponse{},
			Usage:    usageFor(dbm.TierFree, 0, now, now),
		}, nil
	}

	invoices, err := b.store.Invoices().ListRecentByClient(ctx, clientID, recentInvoiceLimit)
	if err != nil {
		return nil, err
	}

	view := &response_models.BillingInfoResponse{
		Invoices: make([]response_models.InvoiceResponse, 0, len(invoices)),
	}
	for i := range invoices {
		view.Invoices = append(view.Invoices, toInvoiceResponse(&invoices[i]))
	}

	created, err := b.store.Products().CountCreatedSince(ctx, clientID, sub.CurrentPeriodStart)
	if err != nil {
		return nil, err
	}

	view.Subscription = toSubscriptionResponse(sub)
	view.Usage = usageFor(sub.Tier, created, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	return view, nil
}

func usageFor(tier dbm.Tier, created int64, start, end time.Time) response_models.UsageResponse {
	limits := LimitsFor(tier)
	return response_models.UsageResponse{
		ProductsCreated:    created,
		ProductsLimit:      limits.ProductsPerPeriod,
		DataRetentionDays:  limits.DataRetentionDays,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
	}
}

func toSubscriptionResponse(s *dbm.Subscription) *response_models.SubscriptionResponse {
	return &response_models.SubscriptionResponse{
		ClientID:             s.ClientID,
		StripeCustomerID:     s.StripeCustomerID,
		StripeSubscriptionID: s.StripeSubscriptionID,
		Tier:                 string(s.Tier),
		Status:               string(s.Status),
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func toInvoiceResponse(inv *dbm.Invoice) response_models.InvoiceResponse {
	out := response_models.InvoiceResponse{
		ClientID:             inv.ClientID,
		StripeInvoiceID:      inv.StripeInvoiceID,
		StripeSubscriptionID: inv.StripeSubscriptionID,
		Amount:               inv.Amount,
		Currency:             inv.Currency,
		Status:               string(inv.Status),
		PaidAt:               inv.PaidAt,
		CreatedAt:            inv.CreatedAt,
	}
	if inv.InvoiceURL != "" {
		url := inv.InvoiceURL
		out.InvoiceURL = &url
	}
	return out
}
