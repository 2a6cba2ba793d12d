package tiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_KnownTiers(t *testing.T) {
	tests := []struct {
		tier           string
		initialBalance float64
		price          float64
	}{
		{TierStarter, 10000, 99},
		{TierPro, 50000, 299},
		{TierElite, 100000, 599},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			policy, err := Lookup(tt.tier)
			assert.NoError(t, err)
			assert.Equal(t, tt.initialBalance, policy.InitialBalance)
			assert.Equal(t, tt.price, policy.Price)
			assert.Equal(t, 5.0, policy.MaxDailyLossPercent)
			assert.Equal(t, 10.0, policy.MaxTotalLossPercent)
			assert.Equal(t, 10.0, policy.ProfitTargetPercent)
		})
	}
}

func TestLookup_UnknownTier(t *testing.T) {
	_, err := Lookup("diamond")
	assert.ErrorIs(t, err, ErrUnknownTier)

	// Tier names are matched exactly; callers lowercase input first.
	_, err = Lookup("Starter")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 3)
	assert.ElementsMatch(t, []string{TierStarter, TierPro, TierElite}, names)
}
