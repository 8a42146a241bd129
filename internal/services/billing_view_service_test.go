package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbm "certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

func TestBuild_DefaultViewWithoutSubscription(t *testing.T) {
	h := newHarness(t)
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	h.views.now = func() time.Time { return now }
	h.store.AddProduct("newco", now.Add(-time.Hour))

	view, err := h.views.Build(context.Background(), "newco")
	require.NoError(t, err)

	assert.Nil(t, view.Subscription)
	assert.Empty(t, view.Invoices)
	assert.NotNil(t, view.Invoices)
	assert.Equal(t, int64(0), view.Usage.ProductsCreated)
	require.NotNil(t, view.Usage.ProductsLimit)
	require.NotNil(t, view.Usage.DataRetentionDays)
	assert.Equal(t, int64(5), *view.Usage.ProductsLimit)
	assert.Equal(t, 7, *view.Usage.DataRetentionDays)
	assert.True(t, now.Equal(view.Usage.CurrentPeriodStart))
	assert.True(t, now.Equal(view.Usage.CurrentPeriodEnd))
}

func TestBuild_DefaultViewSkipsOrphanInvoices(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.Invoices().Upsert(ctx, &dbm.Invoice{
		ClientID:        "newco",
		StripeInvoiceID: "in_orphan",
		Amount:          19.99,
		Currency:        "usd",
		Status:          dbm.InvoiceStatusPaid,
		CreatedAt:       periodStart,
	}))

	view, err := h.views.Build(ctx, "newco")
	require.NoError(t, err)
	assert.Nil(t, view.Subscription)
	assert.NotNil(t, view.Invoices)
	assert.Empty(t, view.Invoices)
}

func TestBuild_UsageCountsCurrentPeriodOnly(t *testing.T) {
	h := newHarness(t)
	seedSubscription(t, h, "acme", "sub_1")

	h.store.AddProduct("acme", periodStart.Add(-time.Second))
	h.store.AddProduct("acme", periodStart)
	h.store.AddProduct("acme", periodStart.Add(48*time.Hour))
	h.store.AddProduct("other", periodStart.Add(time.Hour))

	view, err := h.views.Build(context.Background(), "acme")
	require.NoError(t, err)

	require.NotNil(t, view.Subscription)
	assert.Equal(t, "manager", view.Subscription.Tier)
	assert.Equal(t, int64(2), view.Usage.ProductsCreated)
	assert.Equal(t, int64(50), *view.Usage.ProductsLimit)
	assert.Equal(t, 90, *view.Usage.DataRetentionDays)
	assert.True(t, periodStart.Equal(view.Usage.CurrentPeriodStart))
	assert.True(t, periodEnd.Equal(view.Usage.CurrentPeriodEnd))
}

func TestBuild_UnlimitedTierHasNullLimits(t *testing.T) {
	h := newHarness(t)
	h.processor.addSubscription("sub_x", "cus_big", priceExpert, dbm.SubStatusActive)
	require.NoError(t, h.reconciler.OnCheckoutCompleted(context.Background(),
		&CheckoutSubject{SessionID: "cs_x", ClientID: "bigco", SubscriptionID: "sub_x"}))

	view, err := h.views.Build(context.Background(), "bigco")
	require.NoError(t, err)
	assert.Nil(t, view.Usage.ProductsLimit)
	assert.Nil(t, view.Usage.DataRetentionDays)

	raw, err := json.Marshal(view.Usage)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"productsLimit":null`)
	assert.Contains(t, string(raw), `"dataRetentionDays":null`)
}

func TestBuild_InvoicesNewestFirstCappedAtTen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedSubscription(t, h, "acme", "sub_1")

	for i := 0; i < 12; i++ {
		created := periodStart.Add(time.Duration(i) * time.Hour)
		require.NoError(t, h.reconciler.OnInvoicePaid(ctx, &InvoiceSubject{
			ID: fmt.Sprintf("in_%02d", i), SubscriptionID: "sub_1", AmountPaid: 1000, Currency: "usd", Created: created,
		}))
	}

	view, err := h.views.Build(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, view.Invoices, 10)
	assert.Equal(t, "in_11", view.Invoices[0].StripeInvoiceID)
	assert.Equal(t, "in_02", view.Invoices[9].StripeInvoiceID)
	assert.Nil(t, view.Invoices[0].InvoiceURL)
}

func TestBuild_LatestSubscriptionWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.reconciler.now = func() time.Time { return periodStart }
	seedSubscription(t, h, "acme", "sub_old")
	h.reconciler.now = func() time.Time { return periodStart.Add(time.Hour) }
	h.processor.addSubscription("sub_new", "cus_acme", priceExpert, dbm.SubStatusActive)
	require.NoError(t, h.reconciler.OnCheckoutCompleted(ctx,
		&CheckoutSubject{SessionID: "cs_new", ClientID: "acme", SubscriptionID: "sub_new"}))

	view, err := h.views.Build(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "sub_new", view.Subscription.StripeSubscriptionID)
	assert.Equal(t, "expert", view.Subscription.Tier)
}

func TestBuild_NoInternalIdentifiers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedSubscription(t, h, "acme", "sub_1")
	require.NoError(t, h.reconciler.OnInvoicePaid(ctx, &InvoiceSubject{
		ID: "in_1", SubscriptionID: "sub_1", AmountPaid: 1999, Currency: "usd", Created: periodStart,
	}))

	view, err := h.views.Build(ctx, "acme")
	require.NoError(t, err)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assertNoInternalID(t, generic)
}

func assertNoInternalID(t *testing.T, v any) {
	t.Helper()
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			assert.NotContains(t, []string{"_id", "id", "ID"}, k)
			assertNoInternalID(t, child)
		}
	case []any:
		for _, child := range val {
			assertNoInternalID(t, child)
		}
	}
}

func TestValidateClientID(t *testing.T) {
	for _, ok := range []string{"acme", "client_01", "A-b_C", strings.Repeat("a", 64)} {
		assert.NoError(t, ValidateClientID(ok), ok)
	}
	for _, bad := range []string{"", "acme corp", "../etc", "a.b", "$where", strings.Repeat("a", 65)} {
		assert.ErrorIs(t, ValidateClientID(bad), utils.ErrInvalidClientID, bad)
	}

	h := newHarness(t)
	_, err := h.views.Build(context.Background(), "bad/id")
	assert.ErrorIs(t, err, utils.ErrInvalidClientID)
}
