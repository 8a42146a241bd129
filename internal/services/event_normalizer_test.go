package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	dbm "certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

func TestNormalize_Checkout(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	payload, header := signedEvent(t, testSecret, "evt_1", KindCheckoutCompleted, checkoutObject("acme", "sub_1"))

	evt, err := n.Normalize(payload, header)
	require.NoError(t, err)

	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, KindCheckoutCompleted, evt.Kind)
	subject, ok := evt.Subject.(*CheckoutSubject)
	require.True(t, ok)
	assert.Equal(t, "acme", subject.ClientID)
	assert.Equal(t, "cus_acme", subject.CustomerID)
	assert.Equal(t, "sub_1", subject.SubscriptionID)
}

func TestNormalize_SubscriptionReadsItemPeriod(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	payload, header := signedEvent(t, testSecret, "evt_2", KindSubscriptionUpdated,
		subscriptionFixture("sub_1", "past_due", true, periodStart, periodEnd))

	evt, err := n.Normalize(payload, header)
	require.NoError(t, err)

	subject, ok := evt.Subject.(*SubscriptionSubject)
	require.True(t, ok)
	assert.Equal(t, "sub_1", subject.ID)
	assert.Equal(t, dbm.SubStatusPastDue, subject.Status)
	assert.Equal(t, priceBasic, subject.PriceID)
	assert.True(t, subject.CancelAtPeriodEnd)
	assert.True(t, periodStart.Equal(subject.CurrentPeriodStart))
	assert.True(t, periodEnd.Equal(subject.CurrentPeriodEnd))
}

func TestNormalize_SubscriptionTopLevelPeriodWins(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	obj := subscriptionFixture("sub_1", "active", false, periodStart, periodEnd)
	legacyStart := periodStart.AddDate(0, -1, 0)
	obj["current_period_start"] = legacyStart.Unix()

	payload, header := signedEvent(t, testSecret, "evt_3", KindSubscriptionUpdated, obj)
	evt, err := n.Normalize(payload, header)
	require.NoError(t, err)

	subject := evt.Subject.(*SubscriptionSubject)
	assert.True(t, legacyStart.Equal(subject.CurrentPeriodStart))
	assert.True(t, periodEnd.Equal(subject.CurrentPeriodEnd))
}

func TestNormalize_InvoiceSubscriptionFromParentOrTopLevel(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	paidAt := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	payload, header := signedEvent(t, testSecret, "evt_4", KindInvoicePaid,
		invoiceFixture("in_1", "sub_1", 1999, "usd", paidAt))
	evt, err := n.Normalize(payload, header)
	require.NoError(t, err)

	inv := evt.Subject.(*InvoiceSubject)
	assert.Equal(t, "sub_1", inv.SubscriptionID)
	assert.Equal(t, int64(1999), inv.AmountPaid)
	require.NotNil(t, inv.PaidAt)
	assert.True(t, paidAt.Equal(*inv.PaidAt))

	legacy := invoiceFixture("in_2", "", 500, "usd", paidAt)
	delete(legacy, "parent")
	legacy["subscription"] = "sub_legacy"
	payload, header = signedEvent(t, testSecret, "evt_5", KindInvoicePaid, legacy)
	evt, err = n.Normalize(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "sub_legacy", evt.Subject.(*InvoiceSubject).SubscriptionID)
}

func TestNormalize_InvoiceWithoutPaidAt(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	obj := invoiceFixture("in_1", "sub_1", 1999, "usd", time.Now())
	obj["status_transitions"] = map[string]any{"paid_at": nil}

	payload, header := signedEvent(t, testSecret, "evt_6", KindInvoicePaid, obj)
	evt, err := n.Normalize(payload, header)
	require.NoError(t, err)
	assert.Nil(t, evt.Subject.(*InvoiceSubject).PaidAt)
}

func TestNormalize_UnknownKindHasNoSubject(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	payload, header := signedEvent(t, testSecret, "evt_7", EventKind("customer.created"),
		map[string]any{"id": "cus_1", "object": "customer"})

	evt, err := n.Normalize(payload, header)
	require.NoError(t, err)
	assert.False(t, evt.Kind.Handled())
	assert.Nil(t, evt.Subject)
}

func TestNormalize_SignatureFailures(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	payload, header := signedEvent(t, testSecret, "evt_1", KindCheckoutCompleted, checkoutObject("acme", "sub_1"))

	t.Run("wrong secret", func(t *testing.T) {
		p, h := signedEvent(t, "whsec_other", "evt_1", KindCheckoutCompleted, checkoutObject("acme", "sub_1"))
		_, err := n.Normalize(p, h)
		assert.ErrorIs(t, err, utils.ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := n.Normalize(payload, "")
		assert.ErrorIs(t, err, utils.ErrInvalidSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-2] = ' '
		_, err := n.Normalize(tampered, header)
		assert.ErrorIs(t, err, utils.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   payload,
			Secret:    testSecret,
			Timestamp: time.Now().Add(-time.Hour),
		})
		_, err := n.Normalize(signed.Payload, signed.Header)
		assert.ErrorIs(t, err, utils.ErrInvalidSignature)
	})
}

func TestNormalize_BodyNotJSON(t *testing.T) {
	n := NewEventNormalizer(testSecret, 0)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte("not json"),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})

	_, err := n.Normalize(signed.Payload, signed.Header)
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)
}

func TestNormalize_MissingSecret(t *testing.T) {
	n := NewEventNormalizer("", 0)
	payload, header := signedEvent(t, testSecret, "evt_1", KindCheckoutCompleted, checkoutObject("acme", "sub_1"))

	_, err := n.Normalize(payload, header)
	assert.ErrorIs(t, err, utils.ErrConfiguration)
}
