package db_models

import "time"

type InvoiceStatus string

const InvoiceStatusPaid InvoiceStatus = "paid"

type Invoice struct {
	ID uint `bson:"-" gorm:"primaryKey"`

	ClientID             string `bson:"client_id" gorm:"index;not null"`
	StripeInvoiceID      string `bson:"stripe_invoice_id" gorm:"uniqueIndex;not null"`
	StripeSubscriptionID string `bson:"stripe_subscription_id" gorm:"index"`

	Amount     float64       `bson:"amount"` // major units, e.g. 19.99
	Currency   string        `bson:"currency" gorm:"size:3"`
	Status     InvoiceStatus `bson:"status" gorm:"size:16"`
	InvoiceURL string        `bson:"invoice_url"`
	PaidAt     *time.Time    `bson:"paid_at"`
	CreatedAt  time.Time     `bson:"created_at" gorm:"index"`
}
