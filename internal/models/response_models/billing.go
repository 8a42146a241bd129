package response_models

import "time"

type SubscriptionResponse struct {
	ClientID             string    `json:"client_id"`
	StripeCustomerID     string    `json:"stripe_customer_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id"`
	Tier                 string    `json:"tier"`
	Status               string    `json:"status"`
	CurrentPeriodStart   time.Time `json:"current_period_start"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	CancelAtPeriodEnd    bool      `json:"cancel_at_period_end"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type InvoiceResponse struct {
	ClientID             string     `json:"client_id"`
	StripeInvoiceID      string     `json:"stripe_invoice_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	Amount               float64    `json:"amount"`
	Currency             string     `json:"currency"`
	Status               string     `json:"status"`
	InvoiceURL           *string    `json:"invoice_url"`
	PaidAt               *time.Time `json:"paid_at"`
	CreatedAt            time.Time  `json:"created_at"`
}

// UsageResponse limits are null when the tier has no limit.
type UsageResponse struct {
	ProductsCreated    int64     `json:"productsCreated"`
	ProductsLimit      *int64    `json:"productsLimit"`
	DataRetentionDays  *int      `json:"dataRetentionDays"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
}

type BillingInfoResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	Invoices     []InvoiceResponse     `json:"invoices"`
	Usage        UsageResponse         `json:"usage"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}
