package services

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"certean-billing/internal/config"
	dbm "certean-billing/internal/models/db_models"
	"certean-billing/pkg/utils"
)

// TierLimits are the usage limits of a tier. A nil field means unlimited.
type TierLimits struct {
	ProductsPerPeriod *int64
	DataRetentionDays *int
}

var tierLimits = map[dbm.Tier]TierLimits{
	dbm.TierFree:       {ProductsPerPeriod: int64Ptr(5), DataRetentionDays: intPtr(7)},
	dbm.TierManager:    {ProductsPerPeriod: int64Ptr(50), DataRetentionDays: intPtr(90)},
	dbm.TierExpert:     {},
	dbm.TierEnterprise: {},
}

// LimitsFor returns the static limits of tier. Unknown tiers get the free limits.
func LimitsFor(tier dbm.Tier) TierLimits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[dbm.TierFree]
}

// TierResolver maps Stripe price ids to tiers. The table is swapped
// atomically on Reload so lookups never take a lock.
type TierResolver struct {
	table atomic.Pointer[map[string]dbm.Tier]
	log   *zap.Logger
}

func NewTierResolver(entries []config.PriceTier, log *zap.Logger) (*TierResolver, error) {
	r := &TierResolver{log: log}
	if err := r.Reload(entries); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the tier for priceID, or free when the price is unknown.
func (r *TierResolver) Resolve(priceID string) dbm.Tier {
	table := r.table.Load()
	if table == nil {
		return dbm.TierFree
	}
	if tier, ok := (*table)[priceID]; ok {
		return tier
	}
	return dbm.TierFree
}

// Reload validates entries and replaces the table. Later entries win for a
// repeated price id. On error the current table is kept.
func (r *TierResolver) Reload(entries []config.PriceTier) error {
	next := make(map[string]dbm.Tier, len(entries))
	for _, e := range entries {
		tier, err := dbm.ParseTier(e.Tier)
		if err != nil {
			return fmt.Errorf("%w: price %s: %w", utils.ErrConfiguration, e.PriceID, err)
		}
		next[e.PriceID] = tier
	}
	r.table.Store(&next)
	if r.log != nil {
		r.log.Debug("tier table loaded", zap.Int("prices", len(next)))
	}
	return nil
}

// Size returns the number of configured prices.
func (r *TierResolver) Size() int {
	if table := r.table.Load(); table != nil {
		return len(*table)
	}
	return 0
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
