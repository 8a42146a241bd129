package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"certean-billing/internal/config"
	dbm "certean-billing/internal/models/db_models"
	"certean-billing/internal/repositories"
	mem "certean-billing/pkg/memcache"
	"certean-billing/pkg/metrics"
)

const (
	testSecret  = "whsec_test_secret"
	priceBasic  = "price_manager_monthly"
	priceExpert = "price_expert_monthly"
)

var (
	periodStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
)

type fakeProcessor struct {
	mu            sync.Mutex
	subscriptions map[string]*SubscriptionSubject
	customers     map[string]string
	sessionURL    string
	portalURL     string
	err           error

	lastCheckout CheckoutSessionInput
	lastReturn   string
	created      int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		subscriptions: make(map[string]*SubscriptionSubject),
		customers:     make(map[string]string),
		sessionURL:    "https://checkout.stripe.test/cs_test_1",
		portalURL:     "https://billing.stripe.test/p/session_1",
	}
}

func (f *fakeProcessor) addSubscription(id, customerID, priceID string, status dbm.SubscriptionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions[id] = &SubscriptionSubject{
		ID:                 id,
		CustomerID:         customerID,
		Status:             status,
		PriceID:            priceID,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
	}
}

func (f *fakeProcessor) GetSubscription(_ context.Context, id string) (*SubscriptionSubject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, classifyStripeError("retrieve subscription", errNotFound)
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeProcessor) FindOrCreateCustomer(_ context.Context, email, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.customers[email]; ok {
		return id, nil
	}
	f.created++
	id := "cus_" + email
	f.customers[email] = id
	return id, nil
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, in CheckoutSessionInput) (*CheckoutSessionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastCheckout = in
	return &CheckoutSessionResult{ID: "cs_test_1", URL: f.sessionURL}, nil
}

func (f *fakeProcessor) CreatePortalSession(_ context.Context, _ string, returnURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.lastReturn = returnURL
	return f.portalURL, nil
}

type testErr string

func (e testErr) Error() string { return string(e) }

const errNotFound = testErr("no such subscription")

func testTiers(t *testing.T) *TierResolver {
	t.Helper()
	r, err := NewTierResolver([]config.PriceTier{
		{PriceID: priceBasic, Tier: "manager"},
		{PriceID: priceExpert, Tier: "expert"},
	}, zap.NewNop())
	require.NoError(t, err)
	return r
}

type harness struct {
	store      *repositories.MemoryStore
	processor  *fakeProcessor
	reconciler *reconcilerService
	webhooks   WebhookService
	views      *billingViewService
	processed  *mem.ProcessedEvents
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()
	store := repositories.NewMemoryStore()
	proc := newFakeProcessor()

	rec := NewReconcilerService(store, proc, testTiers(t), log).(*reconcilerService)
	processed := mem.NewProcessedEvents(time.Minute)
	wh := NewWebhookService(NewEventNormalizer(testSecret, 5*time.Minute), rec, processed, metrics.NewMetrics(), log)
	views := NewBillingViewService(store, log).(*billingViewService)

	return &harness{
		store:      store,
		processor:  proc,
		reconciler: rec,
		webhooks:   wh,
		views:      views,
		processed:  processed,
	}
}

// signedEvent builds a Stripe event envelope around object and signs it.
func signedEvent(t *testing.T, secret, id string, kind EventKind, object map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        string(kind),
		"api_version": "2025-03-31.basil",
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func checkoutObject(clientID, subscriptionID string) map[string]any {
	return map[string]any{
		"id":           "cs_test_" + subscriptionID,
		"object":       "checkout.session",
		"customer":     "cus_" + clientID,
		"subscription": subscriptionID,
		"metadata":     map[string]string{"client_id": clientID},
	}
}

func subscriptionFixture(id, status string, cancelAtPeriodEnd bool, start, end time.Time) map[string]any {
	return map[string]any{
		"id":                   id,
		"object":               "subscription",
		"customer":             "cus_1",
		"status":               status,
		"cancel_at_period_end": cancelAtPeriodEnd,
		"items": map[string]any{
			"object": "list",
			"data": []map[string]any{{
				"id":                   "si_1",
				"price":                map[string]any{"id": priceBasic},
				"current_period_start": start.Unix(),
				"current_period_end":   end.Unix(),
			}},
		},
	}
}

func invoiceFixture(id, subscriptionID string, amount int64, currency string, paidAt time.Time) map[string]any {
	return map[string]any{
		"id":                 id,
		"object":             "invoice",
		"amount_paid":        amount,
		"currency":           currency,
		"hosted_invoice_url": "https://invoice.stripe.test/" + id,
		"created":            paidAt.Add(-time.Minute).Unix(),
		"status_transitions": map[string]any{"paid_at": paidAt.Unix()},
		"parent": map[string]any{
			"type":                 "subscription_details",
			"subscription_details": map[string]any{"subscription": subscriptionID},
		},
	}
}
