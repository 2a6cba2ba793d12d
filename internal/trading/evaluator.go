package trading

import (
	"fmt"

	"github.com/tradesense/tradesense-api/internal/tiers"
	"github.com/tradesense/tradesense-api/internal/types"
)

// SettleTrade closes an open trade at exitPrice and returns the realized
// profit/loss. A buy profits when price rises, a sell when it falls.
// Settlement only mutates the trade; applying the P/L to the challenge is
// the caller's job, so both records can be persisted together.
func SettleTrade(trade *types.Trade, exitPrice float64) (float64, error) {
	if exitPrice <= 0 {
		return 0, ErrInvalidExitPrice
	}
	if trade.Status != TradeStatusOpen {
		return 0, ErrTradeAlreadyClosed
	}

	var pnl float64
	if trade.Side == SideBuy {
		pnl = (exitPrice - trade.EntryPrice) * trade.Quantity
	} else {
		pnl = (trade.EntryPrice - exitPrice) * trade.Quantity
	}

	trade.ExitPrice = &exitPrice
	trade.ProfitLoss = &pnl
	trade.Status = TradeStatusClosed

	return pnl, nil
}

// EvaluateChallenge applies a realized P/L to the challenge and runs the
// tier risk rules. The rule order is a behavioral contract:
//
//  1. apply the balance update and high-water mark
//  2. recompute profit percent
//  3. daily-loss check (inclusive boundary)
//  4. total-loss check (inclusive boundary, overwrites the daily reason)
//  5. profit-target check, which runs unconditionally last and therefore
//     overwrites a failed status set by the loss checks in the same call
//
// Step 5's overwrite matches the behavior the product shipped with; do not
// reorder without a product decision.
//
// Evaluation runs on every settlement regardless of the challenge's current
// status. A tiers.ErrUnknownTier here means the stored record is corrupt,
// since challenges can only be created against a known tier.
func EvaluateChallenge(challenge *types.Challenge, pnl float64) error {
	challenge.CurrentBalance += pnl
	if challenge.CurrentBalance > challenge.HighestBalance {
		challenge.HighestBalance = challenge.CurrentBalance
	}
	challenge.ProfitPercent = (challenge.CurrentBalance - challenge.InitialBalance) / challenge.InitialBalance * 100

	policy, err := tiers.Lookup(challenge.Tier)
	if err != nil {
		return fmt.Errorf("challenge %s has unknown tier %q: %w", challenge.ChallengeID, challenge.Tier, err)
	}

	dailyLoss := challenge.DailyStartBalance - challenge.CurrentBalance
	maxDailyLoss := challenge.DailyStartBalance * policy.MaxDailyLossPercent / 100
	if dailyLoss >= maxDailyLoss {
		challenge.Status = ChallengeStatusFailed
		challenge.FailReason = fmt.Sprintf("Exceeded %g%% daily loss limit", policy.MaxDailyLossPercent)
	}

	totalLoss := challenge.InitialBalance - challenge.CurrentBalance
	maxTotalLoss := challenge.InitialBalance * policy.MaxTotalLossPercent / 100
	if totalLoss >= maxTotalLoss {
		challenge.Status = ChallengeStatusFailed
		challenge.FailReason = fmt.Sprintf("Exceeded %g%% total loss limit", policy.MaxTotalLossPercent)
	}

	if challenge.ProfitPercent >= policy.ProfitTargetPercent {
		challenge.Status = ChallengeStatusPassed
	}

	return nil
}
