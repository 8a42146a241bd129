package db_models

import "time"

type SubscriptionStatus string

const (
	SubStatusTrialing          SubscriptionStatus = "trialing"
	SubStatusActive            SubscriptionStatus = "active"
	SubStatusIncomplete        SubscriptionStatus = "incomplete"
	SubStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubStatusPastDue           SubscriptionStatus = "past_due"
	SubStatusUnpaid            SubscriptionStatus = "unpaid"
	SubStatusPaused            SubscriptionStatus = "paused"
	SubStatusCanceled          SubscriptionStatus = "canceled"
)

// Subscription is keyed by StripeSubscriptionID. ID only exists for the
// relational backend and never leaves the repository layer.
type Subscription struct {
	ID uint `bson:"-" gorm:"primaryKey"`

	ClientID             string `bson:"client_id" gorm:"index;not null"`
	StripeCustomerID     string `bson:"stripe_customer_id" gorm:"index"`
	StripeSubscriptionID string `bson:"stripe_subscription_id" gorm:"uniqueIndex;not null"`

	Tier               Tier               `bson:"tier" gorm:"size:32"`
	Status             SubscriptionStatus `bson:"status" gorm:"size:32;index"`
	CurrentPeriodStart time.Time          `bson:"current_period_start"`
	CurrentPeriodEnd   time.Time          `bson:"current_period_end"`
	CancelAtPeriodEnd  bool               `bson:"cancel_at_period_end"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" gorm:"index"`
}

// SubscriptionPeriod is the mutable part of a subscription carried by
// customer.subscription.updated events.
type SubscriptionPeriod struct {
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}
