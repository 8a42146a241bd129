package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"certean-billing/pkg/utils"
)

// PriceTier maps one Stripe price id to a tier name.
//
// The tier file lists entries instead of a price->tier map because viper
// lower-cases map keys and Stripe price ids are case-sensitive:
//
//	price_tiers:
//	  - price_id: price_1Abc
//	    tier: manager
type PriceTier struct {
	PriceID string `mapstructure:"price_id"`
	Tier    string `mapstructure:"tier"`
}

// ParsePriceTiers parses the PRICE_TIERS form "price_a=manager,price_b=expert".
func ParsePriceTiers(raw string) ([]PriceTier, error) {
	var out []PriceTier
	for _, pair := range splitList(raw) {
		priceID, tier, ok := strings.Cut(pair, "=")
		priceID, tier = strings.TrimSpace(priceID), strings.TrimSpace(tier)
		if !ok || priceID == "" || tier == "" {
			return nil, fmt.Errorf("%w: malformed PRICE_TIERS entry %q", utils.ErrConfiguration, pair)
		}
		out = append(out, PriceTier{PriceID: priceID, Tier: tier})
	}
	return out, nil
}

// TierSource loads the price->tier table from the tier file and the
// environment. Environment entries override file entries for the same price.
type TierSource struct {
	path string
	env  []PriceTier
	v    *viper.Viper
	log  *zap.Logger
}

func NewTierSource(s *Settings, log *zap.Logger) *TierSource {
	v := viper.New()
	v.SetConfigFile(s.TierConfigFile)
	return &TierSource{
		path: s.TierConfigFile,
		env:  s.PriceTiers,
		v:    v,
		log:  log,
	}
}

func (t *TierSource) fileExists() bool {
	if t.path == "" {
		return false
	}
	_, err := os.Stat(t.path)
	return err == nil
}

// Load returns file entries followed by environment entries.
func (t *TierSource) Load() ([]PriceTier, error) {
	var entries []PriceTier
	if t.fileExists() {
		if err := t.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read tier file %s: %w", utils.ErrConfiguration, t.path, err)
		}
		fromFile, err := t.decode()
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFile...)
	} else if t.path != "" {
		t.log.Warn("tier file not found, using PRICE_TIERS only", zap.String("path", t.path))
	}

	return append(entries, t.env...), nil
}

func (t *TierSource) decode() ([]PriceTier, error) {
	var entries []PriceTier
	if err := t.v.UnmarshalKey("price_tiers", &entries); err != nil {
		return nil, fmt.Errorf("%w: decode price_tiers: %w", utils.ErrConfiguration, err)
	}
	for _, e := range entries {
		if e.PriceID == "" || e.Tier == "" {
			return nil, fmt.Errorf("%w: price_tiers entry needs price_id and tier", utils.ErrConfiguration)
		}
	}
	return entries, nil
}

// Watch calls onChange with the full table every time the tier file changes.
// A change that fails to decode or apply keeps the previous table.
func (t *TierSource) Watch(onChange func([]PriceTier) error) error {
	if !t.fileExists() {
		return errors.New("tier file not found, nothing to watch")
	}

	t.v.OnConfigChange(func(e fsnotify.Event) {
		fromFile, err := t.decode()
		if err != nil {
			t.log.Error("tier file reload rejected", zap.String("path", e.Name), zap.Error(err))
			return
		}
		if err := onChange(append(fromFile, t.env...)); err != nil {
			t.log.Error("tier file reload rejected", zap.String("path", e.Name), zap.Error(err))
			return
		}
		t.log.Info("tier table reloaded", zap.String("path", e.Name), zap.Int("entries", len(fromFile)+len(t.env)))
	})
	t.v.WatchConfig()
	return nil
}
