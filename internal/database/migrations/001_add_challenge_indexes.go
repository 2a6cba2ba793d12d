package migrations

import (
	"gorm.io/gorm"
)

// AddChallengeIndexes creates the indexes backing the hottest query paths:
// per-user challenge listings, the leaderboard scan and trade lookups.
func AddChallengeIndexes(db *gorm.DB) error {
	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Composite index for per-user challenge listings filtered by status
		`CREATE INDEX IF NOT EXISTS idx_challenges_user_status
		 ON challenges(user_id, status)`,

		// Index for the leaderboard ordering
		`CREATE INDEX IF NOT EXISTS idx_challenges_profit_percent
		 ON challenges(profit_percent)`,

		// Composite index for trade listings per challenge
		`CREATE INDEX IF NOT EXISTS idx_trades_challenge_status
		 ON trades(challenge_id, status)`,

		// Index for per-user trade listings
		`CREATE INDEX IF NOT EXISTS idx_trades_user_id
		 ON trades(user_id)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
