package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tradesense/tradesense-api/internal/types"
)

func openTrade(side string, quantity, entryPrice float64) *types.Trade {
	return &types.Trade{
		TradeID:    "TRD_test",
		Side:       side,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		Status:     TradeStatusOpen,
	}
}

func starterChallenge() *types.Challenge {
	return &types.Challenge{
		ChallengeID:       "CHL_test",
		Tier:              "starter",
		InitialBalance:    10000,
		CurrentBalance:    10000,
		HighestBalance:    10000,
		DailyStartBalance: 10000,
		Status:            ChallengeStatusActive,
	}
}

func TestSettleTrade(t *testing.T) {
	tests := []struct {
		name      string
		side      string
		quantity  float64
		entry     float64
		exit      float64
		wantPnL   float64
	}{
		{"buy profit", SideBuy, 10, 100, 110, 100},
		{"buy loss", SideBuy, 10, 100, 90, -100},
		{"sell profit", SideSell, 10, 100, 90, 100},
		{"sell loss", SideSell, 10, 100, 110, -100},
		{"flat exit", SideBuy, 5, 250, 250, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := openTrade(tt.side, tt.quantity, tt.entry)

			pnl, err := SettleTrade(trade, tt.exit)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantPnL, pnl)
			assert.Equal(t, TradeStatusClosed, trade.Status)
			assert.Equal(t, tt.exit, *trade.ExitPrice)
			assert.Equal(t, tt.wantPnL, *trade.ProfitLoss)
		})
	}
}

func TestSettleTradeInvalidExitPrice(t *testing.T) {
	trade := openTrade(SideBuy, 10, 100)

	_, err := SettleTrade(trade, 0)
	assert.ErrorIs(t, err, ErrInvalidExitPrice)
	assert.Equal(t, TradeStatusOpen, trade.Status)
	assert.Nil(t, trade.ExitPrice)
}

func TestSettleTradeAlreadyClosed(t *testing.T) {
	trade := openTrade(SideBuy, 10, 100)

	_, err := SettleTrade(trade, 110)
	assert.NoError(t, err)

	_, err = SettleTrade(trade, 120)
	assert.ErrorIs(t, err, ErrTradeAlreadyClosed)
	assert.Equal(t, 110.0, *trade.ExitPrice)
}

func TestEvaluateChallengeProfitAndHighestBalance(t *testing.T) {
	challenge := starterChallenge()

	assert.NoError(t, EvaluateChallenge(challenge, 300))
	assert.Equal(t, 10300.0, challenge.CurrentBalance)
	assert.Equal(t, 10300.0, challenge.HighestBalance)
	assert.Equal(t, 3.0, challenge.ProfitPercent)
	assert.Equal(t, ChallengeStatusActive, challenge.Status)

	// A losing trade lowers the balance but never the high-water mark
	assert.NoError(t, EvaluateChallenge(challenge, -200))
	assert.Equal(t, 10100.0, challenge.CurrentBalance)
	assert.Equal(t, 10300.0, challenge.HighestBalance)
	assert.Equal(t, ChallengeStatusActive, challenge.Status)
}

func TestEvaluateChallengeDailyLossBoundary(t *testing.T) {
	// Starter tier allows 5% daily loss: exactly 500 from a 10000 daily
	// start fails the challenge, the boundary is inclusive
	challenge := starterChallenge()

	assert.NoError(t, EvaluateChallenge(challenge, -499.99))
	assert.Equal(t, ChallengeStatusActive, challenge.Status)

	challenge = starterChallenge()
	assert.NoError(t, EvaluateChallenge(challenge, -500))
	assert.Equal(t, ChallengeStatusFailed, challenge.Status)
	assert.Equal(t, "Exceeded 5% daily loss limit", challenge.FailReason)
}

func TestEvaluateChallengeDailyLossUsesDailyStart(t *testing.T) {
	// After a profitable run the daily loss is measured against the daily
	// start balance, not the initial balance
	challenge := starterChallenge()
	challenge.CurrentBalance = 10500
	challenge.HighestBalance = 10500
	challenge.DailyStartBalance = 10500

	// 5% of 10500 is 525
	assert.NoError(t, EvaluateChallenge(challenge, -524))
	assert.Equal(t, ChallengeStatusActive, challenge.Status)

	assert.NoError(t, EvaluateChallenge(challenge, -1))
	assert.Equal(t, ChallengeStatusFailed, challenge.Status)
	assert.Equal(t, "Exceeded 5% daily loss limit", challenge.FailReason)
}

func TestEvaluateChallengeTotalLossOverwritesReason(t *testing.T) {
	// A drop big enough to breach both limits reports the total loss limit,
	// the total loss check runs after the daily one
	challenge := starterChallenge()

	assert.NoError(t, EvaluateChallenge(challenge, -1000))
	assert.Equal(t, ChallengeStatusFailed, challenge.Status)
	assert.Equal(t, "Exceeded 10% total loss limit", challenge.FailReason)
}

func TestEvaluateChallengeTotalLossAcrossDays(t *testing.T) {
	// Small daily losses that accumulate past 10% of initial fail on the
	// total loss limit even when the daily limit is untouched
	challenge := starterChallenge()
	challenge.CurrentBalance = 9200
	challenge.DailyStartBalance = 9200

	assert.NoError(t, EvaluateChallenge(challenge, -200))
	assert.Equal(t, ChallengeStatusFailed, challenge.Status)
	assert.Equal(t, "Exceeded 10% total loss limit", challenge.FailReason)
}

func TestEvaluateChallengeProfitTarget(t *testing.T) {
	challenge := starterChallenge()

	assert.NoError(t, EvaluateChallenge(challenge, 999))
	assert.Equal(t, ChallengeStatusActive, challenge.Status)

	assert.NoError(t, EvaluateChallenge(challenge, 1))
	assert.Equal(t, ChallengeStatusPassed, challenge.Status)
	assert.Equal(t, 10.0, challenge.ProfitPercent)
}

func TestEvaluateChallengeProfitTargetRunsLast(t *testing.T) {
	// The profit target check runs after the loss checks, so a challenge
	// sitting at its target passes even when the same evaluation trips a
	// loss rule
	challenge := starterChallenge()
	challenge.CurrentBalance = 11600
	challenge.HighestBalance = 11600
	challenge.DailyStartBalance = 11600

	// Loses 5% of the daily start but stays 10% above initial
	assert.NoError(t, EvaluateChallenge(challenge, -580))
	assert.Equal(t, 11020.0, challenge.CurrentBalance)
	assert.Equal(t, ChallengeStatusPassed, challenge.Status)
}

func TestEvaluateChallengeUnknownTier(t *testing.T) {
	challenge := starterChallenge()
	challenge.Tier = "platinum"

	err := EvaluateChallenge(challenge, 100)
	assert.Error(t, err)
	// The balance update happens before the tier lookup
	assert.Equal(t, 10100.0, challenge.CurrentBalance)
}

func TestEvaluateChallengePerTierLimits(t *testing.T) {
	tests := []struct {
		tier    string
		initial float64
	}{
		{"starter", 10000},
		{"pro", 50000},
		{"elite", 100000},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			challenge := &types.Challenge{
				Tier:              tt.tier,
				InitialBalance:    tt.initial,
				CurrentBalance:    tt.initial,
				HighestBalance:    tt.initial,
				DailyStartBalance: tt.initial,
				Status:            ChallengeStatusActive,
			}

			// All tiers share the 10% profit target
			assert.NoError(t, EvaluateChallenge(challenge, tt.initial*0.1))
			assert.Equal(t, ChallengeStatusPassed, challenge.Status)
		})
	}
}
