package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"certean-billing/internal/models/db_models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded Store for local development and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	subscriptions map[string]db_models.Subscription
	invoices      map[string]db_models.Invoice
	products      map[string][]time.Time

	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions: make(map[string]db_models.Subscription),
		invoices:      make(map[string]db_models.Invoice),
		products:      make(map[string][]time.Time),
	}
}

func (s *MemoryStore) Subscriptions() SubscriptionRepository { return memorySubscriptions{s} }
func (s *MemoryStore) Invoices() InvoiceRepository           { return memoryInvoices{s} }
func (s *MemoryStore) Products() ProductRepository           { return memoryProducts{s} }

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }
func (s *MemoryStore) Close(_ context.Context) error  { return nil }

// AddProduct records a product created by clientID at createdAt.
func (s *MemoryStore) AddProduct(clientID string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[clientID] = append(s.products[clientID], createdAt)
}

// SubscriptionCount returns the number of stored subscriptions.
func (s *MemoryStore) SubscriptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscriptions)
}

// Writes returns how many mutating calls reached the store.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// InvoiceCount returns the number of stored invoices.
func (s *MemoryStore) InvoiceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invoices)
}

type memorySubscriptions struct{ s *MemoryStore }

func (m memorySubscriptions) Upsert(ctx context.Context, sub *db_models.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.writes++

	row := *sub
	row.ID = 0
	if existing, ok := m.s.subscriptions[sub.StripeSubscriptionID]; ok {
		row.CreatedAt = existing.CreatedAt
	}
	m.s.subscriptions[sub.StripeSubscriptionID] = row
	return nil
}

func (m memorySubscriptions) UpdatePeriod(ctx context.Context, stripeSubscriptionID string, period db_models.SubscriptionPeriod, updatedAt time.Time) (bool, error) {
	return m.update(ctx, stripeSubscriptionID, func(sub *db_models.Subscription) {
		sub.Status = period.Status
		sub.CurrentPeriodStart = period.CurrentPeriodStart
		sub.CurrentPeriodEnd = period.CurrentPeriodEnd
		sub.CancelAtPeriodEnd = period.CancelAtPeriodEnd
		sub.UpdatedAt = updatedAt
	})
}

func (m memorySubscriptions) SetStatus(ctx context.Context, stripeSubscriptionID string, status db_models.SubscriptionStatus, updatedAt time.Time) (bool, error) {
	return m.update(ctx, stripeSubscriptionID, func(sub *db_models.Subscription) {
		sub.Status = status
		sub.UpdatedAt = updatedAt
	})
}

func (m memorySubscriptions) update(ctx context.Context, id string, apply func(*db_models.Subscription)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	sub, ok := m.s.subscriptions[id]
	if !ok {
		return false, nil
	}
	m.s.writes++
	apply(&sub)
	m.s.subscriptions[id] = sub
	return true, nil
}

func (m memorySubscriptions) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*db_models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	sub, ok := m.s.subscriptions[stripeSubscriptionID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m memorySubscriptions) GetLatestByClient(ctx context.Context, clientID string) (*db_models.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var latest *db_models.Subscription
	for _, sub := range m.s.subscriptions {
		if sub.ClientID != clientID {
			continue
		}
		if latest == nil || sub.UpdatedAt.After(latest.UpdatedAt) {
			found := sub
			latest = &found
		}
	}
	return latest, nil
}

type memoryInvoices struct{ s *MemoryStore }

func (m memoryInvoices) Upsert(ctx context.Context, inv *db_models.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.writes++

	row := *inv
	row.ID = 0
	m.s.invoices[inv.StripeInvoiceID] = row
	return nil
}

func (m memoryInvoices) ListRecentByClient(ctx context.Context, clientID string, limit int) ([]db_models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]db_models.Invoice, 0)
	for _, inv := range m.s.invoices {
		if inv.ClientID == clientID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryProducts struct{ s *MemoryStore }

func (m memoryProducts) CountCreatedSince(ctx context.Context, clientID string, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var n int64
	for _, createdAt := range m.s.products[clientID] {
		if !createdAt.Before(since) {
			n++
		}
	}
	return n, nil
}
