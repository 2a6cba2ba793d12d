package users

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

func (d *Database) GetUser(userID string) (*types.User, error) {
	var user types.User
	if err := d.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUserCascade removes the user's trades, challenges, community posts
// and account inside a single transaction, returning per-table counts.
func (d *Database) DeleteUserCascade(userID string) (*DeletionResult, error) {
	result := &DeletionResult{UserID: userID}

	tx := d.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var challengeIDs []string
	if err := tx.Model(&types.Challenge{}).
		Where("user_id = ?", userID).
		Pluck("challenge_id", &challengeIDs).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if len(challengeIDs) > 0 {
		trades := tx.Where("challenge_id IN ?", challengeIDs).Delete(&types.Trade{})
		if trades.Error != nil {
			tx.Rollback()
			return nil, trades.Error
		}
		result.Trades = trades.RowsAffected
	}

	challenges := tx.Where("user_id = ?", userID).Delete(&types.Challenge{})
	if challenges.Error != nil {
		tx.Rollback()
		return nil, challenges.Error
	}
	result.Challenges = challenges.RowsAffected

	posts := tx.Where("author_id = ?", userID).Delete(&types.CommunityPost{})
	if posts.Error != nil {
		tx.Rollback()
		return nil, posts.Error
	}
	result.CommunityPosts = posts.RowsAffected

	if err := tx.Where("user_id = ?", userID).Delete(&types.User{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return result, nil
}
