package trading

import (
	"errors"

	"github.com/tradesense/tradesense-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateChallenge(challenge *types.Challenge) error {
	return d.db.Create(challenge).Error
}

// GetChallenge retrieves a challenge by its ID, scoped to the owning user.
func (d *Database) GetChallenge(challengeID, userID string) (*types.Challenge, error) {
	var challenge types.Challenge
	if err := d.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &challenge, nil
}

// ListChallenges returns a user's challenges, newest first, optionally
// filtered by status.
func (d *Database) ListChallenges(userID, status string) ([]types.Challenge, error) {
	query := d.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var challenges []types.Challenge
	if err := query.Order("created_at DESC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

func (d *Database) CreateTrade(trade *types.Trade) error {
	return d.db.Create(trade).Error
}

// GetTrade retrieves a trade by its ID, scoped to the owning user.
func (d *Database) GetTrade(tradeID, userID string) (*types.Trade, error) {
	var trade types.Trade
	if err := d.db.Where("trade_id = ? AND user_id = ?", tradeID, userID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

// ListTrades returns a user's trades, newest first, optionally filtered by
// challenge and status.
func (d *Database) ListTrades(userID, challengeID, status string) ([]types.Trade, error) {
	query := d.db.Where("user_id = ?", userID)
	if challengeID != "" {
		query = query.Where("challenge_id = ?", challengeID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var trades []types.Trade
	if err := query.Order("created_at DESC").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// SettleTradeInTx persists a settled trade and its re-evaluated challenge in
// one transaction so risk-rule outcomes can never be applied to only half of
// the pair.
func (d *Database) SettleTradeInTx(trade *types.Trade, challenge *types.Challenge) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(trade).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Save(challenge).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetLeaderboard returns the top active challenges by profit percent with
// the trader's display name attached.
func (d *Database) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	var rows []struct {
		FullName       string
		ProfitPercent  float64
		CurrentBalance float64
		Tier           string
	}

	err := d.db.Model(&types.Challenge{}).
		Select("users.full_name, challenges.profit_percent, challenges.current_balance, challenges.tier").
		Joins("JOIN users ON users.user_id = challenges.user_id").
		Where("challenges.status = ?", ChallengeStatusActive).
		Order("challenges.profit_percent DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		trader := row.FullName
		if trader == "" {
			trader = "Anonymous"
		}
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			Trader:        trader,
			ProfitPercent: row.ProfitPercent,
			Balance:       row.CurrentBalance,
			Tier:          row.Tier,
		})
	}
	return entries, nil
}

// ResetDailyBalances rolls daily_start_balance forward to the current
// balance for every active challenge and reports how many were touched.
func (d *Database) ResetDailyBalances() (int64, error) {
	result := d.db.Model(&types.Challenge{}).
		Where("status = ?", ChallengeStatusActive).
		Update("daily_start_balance", gorm.Expr("current_balance"))
	return result.RowsAffected, result.Error
}
