package repositories

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

// mongoTime decodes a BSON date, an ISO string or null. Documents written
// before this service stored timestamps as strings.
type mongoTime time.Time

func (m *mongoTime) UnmarshalBSONValue(typ byte, data []byte) error {
	rv := bson.RawValue{Type: bson.Type(typ), Value: data}
	switch rv.Type {
	case bson.TypeDateTime:
		*m = mongoTime(rv.Time().UTC())
	case bson.TypeString:
		s := rv.StringValue()
		if s == "" {
			*m = mongoTime{}
			return nil
		}
		t, err := utils.ParseISO(s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		*m = mongoTime(t)
	case bson.TypeNull, bson.TypeUndefined:
		*m = mongoTime{}
	default:
		return fmt.Errorf("timestamp: unexpected bson type %s", rv.Type)
	}
	return nil
}

func (m mongoTime) time() time.Time { return time.Time(m) }

type subscriptionDocument struct {
	ClientID             string                       `bson:"client_id"`
	StripeCustomerID     string                       `bson:"stripe_customer_id"`
	StripeSubscriptionID string                       `bson:"stripe_subscription_id"`
	Tier                 db_models.Tier               `bson:"tier"`
	Status               db_models.SubscriptionStatus `bson:"status"`
	CurrentPeriodStart   mongoTime                    `bson:"current_period_start"`
	CurrentPeriodEnd     mongoTime                    `bson:"current_period_end"`
	CancelAtPeriodEnd    bool                         `bson:"cancel_at_period_end"`
	CreatedAt            mongoTime                    `bson:"created_at"`
	UpdatedAt            mongoTime                    `bson:"updated_at"`
}

func (d *subscriptionDocument) model() *db_models.Subscription {
	return &db_models.Subscription{
		ClientID:             d.ClientID,
		StripeCustomerID:     d.StripeCustomerID,
		StripeSubscriptionID: d.StripeSubscriptionID,
		Tier:                 d.Tier,
		Status:               d.Status,
		CurrentPeriodStart:   d.CurrentPeriodStart.time(),
		CurrentPeriodEnd:     d.CurrentPeriodEnd.time(),
		CancelAtPeriodEnd:    d.CancelAtPeriodEnd,
		CreatedAt:            d.CreatedAt.time(),
		UpdatedAt:            d.UpdatedAt.time(),
	}
}

type invoiceDocument struct {
	ClientID             string                  `bson:"client_id"`
	StripeInvoiceID      string                  `bson:"stripe_invoice_id"`
	StripeSubscriptionID string                  `bson:"stripe_subscription_id"`
	Amount               float64                 `bson:"amount"`
	Currency             string                  `bson:"currency"`
	Status               db_models.InvoiceStatus `bson:"status"`
	InvoiceURL           string                  `bson:"invoice_url"`
	PaidAt               *mongoTime              `bson:"paid_at"`
	CreatedAt            mongoTime               `bson:"created_at"`
}

func (d *invoiceDocument) model() db_models.Invoice {
	inv := db_models.Invoice{
		ClientID:             d.ClientID,
		StripeInvoiceID:      d.StripeInvoiceID,
		StripeSubscriptionID: d.StripeSubscriptionID,
		Amount:               d.Amount,
		Currency:             d.Currency,
		Status:               d.Status,
		InvoiceURL:           d.InvoiceURL,
		CreatedAt:            d.CreatedAt.time(),
	}
	if d.PaidAt != nil && !d.PaidAt.time().IsZero() {
		paid := d.PaidAt.time()
		inv.PaidAt = &paid
	}
	return inv
}
