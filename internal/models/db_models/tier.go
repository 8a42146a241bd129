package db_models

import "fmt"

type Tier string

const (
	TierFree       Tier = "free"
	TierManager    Tier = "manager"
	TierExpert     Tier = "expert"
	TierEnterprise Tier = "enterprise"
)

func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierFree, TierManager, TierExpert, TierEnterprise:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tier %q", s)
	}
}
