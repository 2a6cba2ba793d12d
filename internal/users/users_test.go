package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tradesense/tradesense-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	// A pooled second connection would see its own empty in-memory database
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&types.User{}, &types.Challenge{}, &types.Trade{}, &types.CommunityPost{})
	assert.NoError(t, err)

	return db
}

func TestDeleteUserCascade(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	assert.NoError(t, db.Create(&types.User{UserID: "USR_1", Email: "a@b.com"}).Error)
	assert.NoError(t, db.Create(&types.Challenge{ChallengeID: "CHL_1", UserID: "USR_1", Tier: "starter"}).Error)
	assert.NoError(t, db.Create(&types.Challenge{ChallengeID: "CHL_2", UserID: "USR_1", Tier: "pro"}).Error)
	assert.NoError(t, db.Create(&types.Trade{TradeID: "TRD_1", ChallengeID: "CHL_1", UserID: "USR_1", Symbol: "BTCUSD"}).Error)
	assert.NoError(t, db.Create(&types.Trade{TradeID: "TRD_2", ChallengeID: "CHL_1", UserID: "USR_1", Symbol: "ETHUSD"}).Error)
	assert.NoError(t, db.Create(&types.Trade{TradeID: "TRD_3", ChallengeID: "CHL_2", UserID: "USR_1", Symbol: "AAPL"}).Error)
	assert.NoError(t, db.Create(&types.CommunityPost{PostID: "PST_1", AuthorID: "USR_1", Content: "hello"}).Error)

	// Another user's data must survive the cascade
	assert.NoError(t, db.Create(&types.User{UserID: "USR_2", Email: "c@d.com"}).Error)
	assert.NoError(t, db.Create(&types.Challenge{ChallengeID: "CHL_3", UserID: "USR_2", Tier: "starter"}).Error)
	assert.NoError(t, db.Create(&types.Trade{TradeID: "TRD_4", ChallengeID: "CHL_3", UserID: "USR_2", Symbol: "BTCUSD"}).Error)

	result, err := service.DeleteUser("USR_1")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), result.Challenges)
	assert.Equal(t, int64(3), result.Trades)
	assert.Equal(t, int64(1), result.CommunityPosts)

	var count int64
	db.Model(&types.User{}).Where("user_id = ?", "USR_1").Count(&count)
	assert.Equal(t, int64(0), count)

	db.Model(&types.Challenge{}).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&types.Trade{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	result, err := service.DeleteUser("USR_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, result)
}
