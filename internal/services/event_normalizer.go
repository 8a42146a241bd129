package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	dbm "certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

type EventKind string

const (
	KindCheckoutCompleted    EventKind = "checkout.session.completed"
	KindSubscriptionUpdated  EventKind = "customer.subscription.updated"
	KindSubscriptionDeleted  EventKind = "customer.subscription.deleted"
	KindInvoicePaid          EventKind = "invoice.paid"
	KindInvoicePaymentFailed EventKind = "invoice.payment_failed"
)

// Handled reports whether the reconciler acts on events of this kind.
func (k EventKind) Handled() bool {
	switch k {
	case KindCheckoutCompleted, KindSubscriptionUpdated, KindSubscriptionDeleted,
		KindInvoicePaid, KindInvoicePaymentFailed:
		return true
	}
	return false
}

// Event is a verified webhook event. Subject is *CheckoutSubject,
// *SubscriptionSubject or *InvoiceSubject depending on Kind, and nil for
// kinds the service does not handle.
type Event struct {
	ID      string
	Kind    EventKind
	Subject interface{}
}

type CheckoutSubject struct {
	SessionID      string
	ClientID       string
	CustomerID     string
	SubscriptionID string
}

type SubscriptionSubject struct {
	ID                 string
	CustomerID         string
	Status             dbm.SubscriptionStatus
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

func (s *SubscriptionSubject) Period() dbm.SubscriptionPeriod {
	return dbm.SubscriptionPeriod{
		Status:             s.Status,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}
}

type InvoiceSubject struct {
	ID               string
	SubscriptionID   string
	AmountPaid       int64 // minor units
	Currency         string
	HostedInvoiceURL string
	PaidAt           *time.Time
	Created          time.Time
}

// EventNormalizer verifies Stripe webhook signatures and decodes the event
// object into a typed subject.
type EventNormalizer struct {
	secret    string
	tolerance time.Duration
}

func NewEventNormalizer(secret string, tolerance time.Duration) *EventNormalizer {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &EventNormalizer{secret: secret, tolerance: tolerance}
}

// Configured reports whether a signing secret is set.
func (n *EventNormalizer) Configured() bool { return n.secret != "" }

// Normalize verifies payload against the Stripe-Signature header value and
// returns the decoded event. Nothing is decoded before the signature checks out.
func (n *EventNormalizer) Normalize(payload []byte, signatureHeader string) (*Event, error) {
	if !n.Configured() {
		return nil, fmt.Errorf("%w: STRIPE_WEBHOOK_SECRET is not set", utils.ErrConfiguration)
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, n.secret,
		webhook.ConstructEventOptions{
			Tolerance:                n.tolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %w", utils.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %w", utils.ErrInvalidPayload, err)
	}

	out := &Event{ID: evt.ID, Kind: EventKind(evt.Type)}
	if evt.Data == nil {
		if out.Kind.Handled() {
			return nil, fmt.Errorf("%w: event %s has no data object", utils.ErrInvalidPayload, evt.ID)
		}
		return out, nil
	}
	raw := evt.Data.Raw

	switch out.Kind {
	case KindCheckoutCompleted:
		out.Subject, err = decodeCheckout(raw)
	case KindSubscriptionUpdated, KindSubscriptionDeleted:
		out.Subject, err = decodeSubscription(raw)
	case KindInvoicePaid, KindInvoicePaymentFailed:
		out.Subject, err = decodeInvoice(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", utils.ErrInvalidPayload, out.Kind, err)
	}
	return out, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func decodeCheckout(raw json.RawMessage) (*CheckoutSubject, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	subject := &CheckoutSubject{
		SessionID: session.ID,
		ClientID:  session.Metadata["client_id"],
	}
	if session.Customer != nil {
		subject.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		subject.SubscriptionID = session.Subscription.ID
	}
	return subject, nil
}

// expandableID decodes a Stripe field that is either an id string or an
// expanded object carrying an id.
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*e = expandableID(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

// Period bounds moved from the subscription to its items in newer API
// versions; both places are read.
type subscriptionObject struct {
	ID                 string       `json:"id"`
	Customer           expandableID `json:"customer"`
	Status             string       `json:"status"`
	CancelAtPeriodEnd  bool         `json:"cancel_at_period_end"`
	CurrentPeriodStart int64        `json:"current_period_start"`
	CurrentPeriodEnd   int64        `json:"current_period_end"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func decodeSubscription(raw json.RawMessage) (*SubscriptionSubject, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj.ID == "" {
		return nil, errors.New("subscription id missing")
	}

	start, end := obj.CurrentPeriodStart, obj.CurrentPeriodEnd
	subject := &SubscriptionSubject{
		ID:                obj.ID,
		CustomerID:        string(obj.Customer),
		Status:            dbm.SubscriptionStatus(obj.Status),
		CancelAtPeriodEnd: obj.CancelAtPeriodEnd,
	}
	if len(obj.Items.Data) > 0 {
		item := obj.Items.Data[0]
		subject.PriceID = item.Price.ID
		if start == 0 {
			start = item.CurrentPeriodStart
		}
		if end == 0 {
			end = item.CurrentPeriodEnd
		}
	}
	subject.CurrentPeriodStart = utils.FromUnixSeconds(start)
	subject.CurrentPeriodEnd = utils.FromUnixSeconds(end)
	return subject, nil
}

type invoiceObject struct {
	ID               string       `json:"id"`
	Subscription     expandableID `json:"subscription"`
	AmountPaid       int64        `json:"amount_paid"`
	Currency         string       `json:"currency"`
	HostedInvoiceURL string       `json:"hosted_invoice_url"`
	Created          int64        `json:"created"`
	StatusTransition struct {
		PaidAt int64 `json:"paid_at"`
	} `json:"status_transitions"`
	Parent *struct {
		SubscriptionDetails *struct {
			Subscription expandableID `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func decodeInvoice(raw json.RawMessage) (*InvoiceSubject, error) {
	var obj invoiceObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj.ID == "" {
		return nil, errors.New("invoice id missing")
	}

	subscriptionID := string(obj.Subscription)
	if subscriptionID == "" && obj.Parent != nil && obj.Parent.SubscriptionDetails != nil {
		subscriptionID = string(obj.Parent.SubscriptionDetails.Subscription)
	}

	return &InvoiceSubject{
		ID:               obj.ID,
		SubscriptionID:   subscriptionID,
		AmountPaid:       obj.AmountPaid,
		Currency:         obj.Currency,
		HostedInvoiceURL: obj.HostedInvoiceURL,
		PaidAt:           utils.FromUnixSecondsPtr(obj.StatusTransition.PaidAt),
		Created:          utils.FromUnixSeconds(obj.Created),
	}, nil
}
