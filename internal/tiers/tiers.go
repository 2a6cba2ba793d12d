package tiers

import "errors"

var ErrUnknownTier = errors.New("unknown tier")

// Tier names accepted by Lookup
const (
	TierStarter = "starter"
	TierPro     = "pro"
	TierElite   = "elite"
)

// Policy is the immutable configuration bundle for one challenge tier.
// All percentages are whole numbers (5 means 5%).
type Policy struct {
	InitialBalance      float64
	Price               float64
	MaxDailyLossPercent float64
	MaxTotalLossPercent float64
	ProfitTargetPercent float64
}

// table is the single source of truth for tier risk parameters.
// Adding a tier means adding an entry here; the evaluator never
// special-cases tier names.
var table = map[string]Policy{
	TierStarter: {
		InitialBalance:      10000,
		Price:               99,
		MaxDailyLossPercent: 5,
		MaxTotalLossPercent: 10,
		ProfitTargetPercent: 10,
	},
	TierPro: {
		InitialBalance:      50000,
		Price:               299,
		MaxDailyLossPercent: 5,
		MaxTotalLossPercent: 10,
		ProfitTargetPercent: 10,
	},
	TierElite: {
		InitialBalance:      100000,
		Price:               599,
		MaxDailyLossPercent: 5,
		MaxTotalLossPercent: 10,
		ProfitTargetPercent: 10,
	},
}

// Lookup returns the policy for a tier name, or ErrUnknownTier.
func Lookup(tier string) (Policy, error) {
	policy, ok := table[tier]
	if !ok {
		return Policy{}, ErrUnknownTier
	}
	return policy, nil
}

// Names returns the configured tier names.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	return names
}
