package trading

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tradesense/tradesense-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUserID = "USR_test"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	// A pooled second connection would see its own empty in-memory database
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&types.User{}, &types.Challenge{}, &types.Trade{})
	assert.NoError(t, err)

	return db
}

func buyChallenge(t *testing.T, service *Service, tier string) *types.Challenge {
	challenge, err := service.CreateChallenge(testUserID, CreateChallengeRequest{
		Tier:          tier,
		PaymentMethod: "card",
	})
	assert.NoError(t, err)
	return challenge
}

func TestCreateChallenge(t *testing.T) {
	service := NewService(setupTestDB(t))

	challenge := buyChallenge(t, service, "starter")

	assert.Contains(t, challenge.ChallengeID, "CHL_")
	assert.Equal(t, ChallengeStatusActive, challenge.Status)
	assert.Equal(t, 99.0, challenge.AmountPaid)

	// Every balance field starts at the tier's initial balance
	assert.Equal(t, 10000.0, challenge.InitialBalance)
	assert.Equal(t, challenge.InitialBalance, challenge.CurrentBalance)
	assert.Equal(t, challenge.InitialBalance, challenge.HighestBalance)
	assert.Equal(t, challenge.InitialBalance, challenge.DailyStartBalance)
}

func TestCreateChallengeNormalizesTier(t *testing.T) {
	service := NewService(setupTestDB(t))

	challenge := buyChallenge(t, service, "PRO")
	assert.Equal(t, "pro", challenge.Tier)
	assert.Equal(t, 50000.0, challenge.InitialBalance)
}

func TestCreateChallengeUnknownTier(t *testing.T) {
	service := NewService(setupTestDB(t))

	_, err := service.CreateChallenge(testUserID, CreateChallengeRequest{Tier: "platinum"})
	assert.Error(t, err)
}

func TestOpenTradeValidation(t *testing.T) {
	service := NewService(setupTestDB(t))
	challenge := buyChallenge(t, service, "starter")

	base := OpenTradeRequest{
		ChallengeID: challenge.ChallengeID,
		Symbol:      "BTCUSD",
		Side:        "buy",
		Quantity:    1,
		EntryPrice:  100,
	}

	tests := []struct {
		name    string
		mutate  func(r *OpenTradeRequest)
		wantErr error
	}{
		{"bad side", func(r *OpenTradeRequest) { r.Side = "hold" }, ErrInvalidSide},
		{"zero quantity", func(r *OpenTradeRequest) { r.Quantity = 0 }, ErrInvalidQuantity},
		{"negative price", func(r *OpenTradeRequest) { r.EntryPrice = -5 }, ErrInvalidPrice},
		{"blank symbol", func(r *OpenTradeRequest) { r.Symbol = "   " }, ErrMissingSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := service.OpenTrade(testUserID, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenTradeInsufficientBalance(t *testing.T) {
	service := NewService(setupTestDB(t))
	challenge := buyChallenge(t, service, "starter")

	_, err := service.OpenTrade(testUserID, OpenTradeRequest{
		ChallengeID: challenge.ChallengeID,
		Symbol:      "BTCUSD",
		Side:        "buy",
		Quantity:    2,
		EntryPrice:  6000, // 12000 notional against a 10000 balance
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The rejected trade must not exist
	trades, err := service.GetTrades(testUserID, challenge.ChallengeID, "")
	assert.NoError(t, err)
	assert.Empty(t, trades)
}

func TestOpenTradeChallengeNotFound(t *testing.T) {
	service := NewService(setupTestDB(t))

	_, err := service.OpenTrade(testUserID, OpenTradeRequest{
		ChallengeID: "CHL_missing",
		Symbol:      "BTCUSD",
		Side:        "buy",
		Quantity:    1,
		EntryPrice:  100,
	})
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestCloseTradeSettlesAndEvaluates(t *testing.T) {
	service := NewService(setupTestDB(t))
	challenge := buyChallenge(t, service, "starter")

	trade, err := service.OpenTrade(testUserID, OpenTradeRequest{
		ChallengeID: challenge.ChallengeID,
		Symbol:      "btcusd",
		Side:        "BUY",
		Quantity:    10,
		EntryPrice:  100,
	})
	assert.NoError(t, err)
	assert.Equal(t, "BTCUSD", trade.Symbol)
	assert.Equal(t, SideBuy, trade.Side)

	result, err := service.CloseTrade(testUserID, trade.TradeID, 110)
	assert.NoError(t, err)
	assert.Equal(t, TradeStatusClosed, result.Trade.Status)
	assert.Equal(t, 100.0, *result.Trade.ProfitLoss)
	assert.Equal(t, 10100.0, result.Challenge.CurrentBalance)
	assert.Equal(t, 1.0, result.Challenge.ProfitPercent)
	assert.Equal(t, ChallengeStatusActive, result.Challenge.Status)

	// Both sides of the settlement are persisted
	stored, err := service.GetChallenge(challenge.ChallengeID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 10100.0, stored.CurrentBalance)
}

func TestCloseTradeIdempotence(t *testing.T) {
	service := NewService(setupTestDB(t))
	challenge := buyChallenge(t, service, "starter")

	trade, err := service.OpenTrade(testUserID, OpenTradeRequest{
		ChallengeID: challenge.ChallengeID,
		Symbol:      "BTCUSD",
		Side:        "buy",
		Quantity:    10,
		EntryPrice:  100,
	})
	assert.NoError(t, err)

	_, err = service.CloseTrade(testUserID, trade.TradeID, 110)
	assert.NoError(t, err)

	// A second close is rejected and changes nothing
	_, err = service.CloseTrade(testUserID, trade.TradeID, 200)
	assert.ErrorIs(t, err, ErrTradeAlreadyClosed)

	stored, err := service.GetChallenge(challenge.ChallengeID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 10100.0, stored.CurrentBalance)
}

func TestCloseTradeFailsChallenge(t *testing.T) {
	service := NewService(setupTestDB(t))
	challenge := buyChallenge(t, service, "starter")

	trade, err := service.OpenTrade(testUserID, OpenTradeRequest{
		ChallengeID: challenge.ChallengeID,
		Symbol:      "BTCUSD",
		Side:        "buy",
		Quantity:    20,
		EntryPrice:  100,
	})
	assert.NoError(t, err)

	// A 1000 loss on a 10000 balance breaches both loss limits; the total
	// loss reason wins
	result, err := service.CloseTrade(testUserID, trade.TradeID, 50)
	assert.NoError(t, err)
	assert.Equal(t, ChallengeStatusFailed, result.Challenge.Status)
	assert.Equal(t, "Exceeded 10% total loss limit", result.Challenge.FailReason)

	// No further trades on a failed challenge
	_, err = service.OpenTrade(testUserID, OpenTradeRequest{
		ChallengeID: challenge.ChallengeID,
		Symbol:      "BTCUSD",
		Side:        "buy",
		Quantity:    1,
		EntryPrice:  100,
	})
	assert.ErrorIs(t, err, ErrChallengeNotActive)
}

func TestCloseTradeConcurrentSettlement(t *testing.T) {
	service := NewService(setupTestDB(t))
	challenge := buyChallenge(t, service, "pro")

	// Open several trades, then close them concurrently. The per-challenge
	// lock must serialize settlement so every P/L lands on the balance.
	const numTrades = 8
	tradeIDs := make([]string, numTrades)
	for i := 0; i < numTrades; i++ {
		trade, err := service.OpenTrade(testUserID, OpenTradeRequest{
			ChallengeID: challenge.ChallengeID,
			Symbol:      "ETHUSD",
			Side:        "buy",
			Quantity:    10,
			EntryPrice:  100,
		})
		assert.NoError(t, err)
		tradeIDs[i] = trade.TradeID
	}

	var wg sync.WaitGroup
	for _, tradeID := range tradeIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := service.CloseTrade(testUserID, id, 110)
			assert.NoError(t, err)
		}(tradeID)
	}
	wg.Wait()

	// 8 trades x +100 each
	stored, err := service.GetChallenge(challenge.ChallengeID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 50800.0, stored.CurrentBalance)
	assert.Equal(t, 50800.0, stored.HighestBalance)
}

func TestLeaderboardRanking(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	assert.NoError(t, db.Create(&types.User{UserID: "USR_a", Email: "a@x.com", FullName: "Alice"}).Error)
	assert.NoError(t, db.Create(&types.User{UserID: "USR_b", Email: "b@x.com"}).Error)
	assert.NoError(t, db.Create(&types.User{UserID: "USR_c", Email: "c@x.com", FullName: "Carol"}).Error)

	assert.NoError(t, db.Create(&types.Challenge{
		ChallengeID: "CHL_a", UserID: "USR_a", Tier: "starter",
		Status: ChallengeStatusActive, ProfitPercent: 4.2, CurrentBalance: 10420,
	}).Error)
	assert.NoError(t, db.Create(&types.Challenge{
		ChallengeID: "CHL_b", UserID: "USR_b", Tier: "pro",
		Status: ChallengeStatusActive, ProfitPercent: 7.5, CurrentBalance: 53750,
	}).Error)
	// Failed challenges never appear
	assert.NoError(t, db.Create(&types.Challenge{
		ChallengeID: "CHL_c", UserID: "USR_c", Tier: "elite",
		Status: ChallengeStatusFailed, ProfitPercent: 9.9, CurrentBalance: 109900,
	}).Error)

	entries, err := service.GetLeaderboard()
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Anonymous", entries[0].Trader)
	assert.Equal(t, 7.5, entries[0].ProfitPercent)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "Alice", entries[1].Trader)
}

func TestResetDailyBalances(t *testing.T) {
	service := NewService(setupTestDB(t))
	challenge := buyChallenge(t, service, "starter")

	trade, err := service.OpenTrade(testUserID, OpenTradeRequest{
		ChallengeID: challenge.ChallengeID,
		Symbol:      "BTCUSD",
		Side:        "buy",
		Quantity:    10,
		EntryPrice:  100,
	})
	assert.NoError(t, err)
	_, err = service.CloseTrade(testUserID, trade.TradeID, 120)
	assert.NoError(t, err)

	result, err := service.ResetDailyBalances()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), result.ChallengesReset)

	stored, err := service.GetChallenge(challenge.ChallengeID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, stored.CurrentBalance, stored.DailyStartBalance)
	assert.Equal(t, 10200.0, stored.DailyStartBalance)
}
