package trading

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradesense/tradesense-api/internal/tiers"
	"github.com/tradesense/tradesense-api/internal/types"
	"github.com/tradesense/tradesense-api/pkg/response"
	"gorm.io/gorm"
)

const leaderboardSize = 100

// Service handles challenge purchases, trade execution and the risk
// evaluation that runs on every trade settlement.
type Service struct {
	db *Database

	// locks serializes settlement and trade-opening per challenge so the
	// balance read-modify-write cycle can never race itself. Trades on
	// different challenges proceed in parallel.
	locks sync.Map // challenge ID -> *sync.Mutex
}

// NewService creates a new trading service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

func (s *Service) challengeLock(challengeID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(challengeID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// CreateChallenge purchases a new challenge for the user. Every balance
// field starts at the tier's initial balance and the status starts active.
func (s *Service) CreateChallenge(userID string, req CreateChallengeRequest) (*types.Challenge, error) {
	tier := strings.ToLower(req.Tier)
	policy, err := tiers.Lookup(tier)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	challenge := &types.Challenge{
		ChallengeID:       "CHL_" + uuid.New().String(),
		UserID:            userID,
		Tier:              tier,
		InitialBalance:    policy.InitialBalance,
		CurrentBalance:    policy.InitialBalance,
		HighestBalance:    policy.InitialBalance,
		DailyStartBalance: policy.InitialBalance,
		Status:            ChallengeStatusActive,
		PaymentMethod:     req.PaymentMethod,
		AmountPaid:        policy.Price,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.db.CreateChallenge(challenge); err != nil {
		return nil, err
	}

	log.Info().
		Str("challenge_id", challenge.ChallengeID).
		Str("user_id", userID).
		Str("tier", tier).
		Float64("initial_balance", challenge.InitialBalance).
		Msg("challenge created")

	return challenge, nil
}

// GetChallenges returns the user's challenges, optionally filtered by status
func (s *Service) GetChallenges(userID, status string) ([]types.Challenge, error) {
	return s.db.ListChallenges(userID, status)
}

// GetChallenge returns one of the user's challenges by ID
func (s *Service) GetChallenge(challengeID, userID string) (*types.Challenge, error) {
	challenge, err := s.db.GetChallenge(challengeID, userID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrChallengeNotFound
	}
	return challenge, nil
}

// OpenTrade opens a position against an active challenge. The balance check
// and the trade insert run under the challenge lock so a concurrent close
// cannot reduce the balance between check and create.
func (s *Service) OpenTrade(userID string, req OpenTradeRequest) (*types.Trade, error) {
	side := strings.ToLower(req.Side)
	if side != SideBuy && side != SideSell {
		return nil, ErrInvalidSide
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, ErrMissingSymbol
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.EntryPrice <= 0 {
		return nil, ErrInvalidPrice
	}

	lock := s.challengeLock(req.ChallengeID)
	lock.Lock()
	defer lock.Unlock()

	challenge, err := s.db.GetChallenge(req.ChallengeID, userID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrChallengeNotFound
	}
	if challenge.Status != ChallengeStatusActive {
		return nil, ErrChallengeNotActive
	}

	tradeValue := req.Quantity * req.EntryPrice
	if tradeValue > challenge.CurrentBalance {
		return nil, ErrInsufficientBalance
	}

	now := time.Now()
	trade := &types.Trade{
		TradeID:     "TRD_" + uuid.New().String(),
		ChallengeID: challenge.ChallengeID,
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Quantity:    req.Quantity,
		EntryPrice:  req.EntryPrice,
		Status:      TradeStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.CreateTrade(trade); err != nil {
		return nil, err
	}

	log.Info().
		Str("trade_id", trade.TradeID).
		Str("challenge_id", challenge.ChallengeID).
		Str("symbol", symbol).
		Str("side", side).
		Float64("quantity", req.Quantity).
		Float64("entry_price", req.EntryPrice).
		Msg("trade opened")

	return trade, nil
}

// CloseTrade settles an open trade at the given exit price, applies the
// realized P/L to the owning challenge and runs the tier risk rules. The
// settled trade and the re-evaluated challenge are persisted together.
func (s *Service) CloseTrade(userID, tradeID string, exitPrice float64) (*CloseTradeResponse, error) {
	logger := log.With().
		Str("trade_id", tradeID).
		Str("service", "trading").
		Logger()

	if exitPrice <= 0 {
		return nil, ErrInvalidExitPrice
	}

	// First read resolves the owning challenge so we know which lock to
	// take; the authoritative read happens again under the lock.
	trade, err := s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}

	lock := s.challengeLock(trade.ChallengeID)
	lock.Lock()
	defer lock.Unlock()

	trade, err = s.db.GetTrade(tradeID, userID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, ErrTradeNotFound
	}

	challenge, err := s.db.GetChallenge(trade.ChallengeID, userID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, ErrChallengeNotFound
	}

	pnl, err := SettleTrade(trade, exitPrice)
	if err != nil {
		return nil, err
	}

	if err := EvaluateChallenge(challenge, pnl); err != nil {
		logger.Error().Err(err).Msg("risk evaluation failed")
		return nil, err
	}

	now := time.Now()
	trade.UpdatedAt = now
	challenge.UpdatedAt = now

	if err := s.db.SettleTradeInTx(trade, challenge); err != nil {
		logger.Error().Err(err).Msg("failed to persist settlement")
		return nil, err
	}

	event := logger.Info().
		Str("challenge_id", challenge.ChallengeID).
		Float64("exit_price", exitPrice).
		Float64("profit_loss", pnl).
		Float64("current_balance", challenge.CurrentBalance).
		Float64("profit_percent", challenge.ProfitPercent).
		Str("challenge_status", challenge.Status)
	if challenge.FailReason != "" {
		event = event.Str("fail_reason", challenge.FailReason)
	}
	event.Msg("trade settled")

	return &CloseTradeResponse{
		Trade:     trade,
		Challenge: challenge,
	}, nil
}

// GetTrades returns the user's trades with optional challenge/status filters
func (s *Service) GetTrades(userID, challengeID, status string) ([]types.Trade, error) {
	return s.db.ListTrades(userID, challengeID, status)
}

// GetLeaderboard returns the top active challenges by profit percent
func (s *Service) GetLeaderboard() ([]LeaderboardEntry, error) {
	return s.db.GetLeaderboard(leaderboardSize)
}

// ResetDailyBalances rolls the daily start balance forward for all active
// challenges. The scheduler that decides when a trading day starts lives
// outside the platform and calls this through the admin API.
func (s *Service) ResetDailyBalances() (*DailyResetResponse, error) {
	count, err := s.db.ResetDailyBalances()
	if err != nil {
		return nil, err
	}

	log.Info().Int64("challenges_reset", count).Msg("daily start balances reset")

	return &DailyResetResponse{
		ChallengesReset: count,
		Timestamp:       time.Now(),
	}, nil
}

// GinHandlers contains HTTP handlers for trading endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trading endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// respondError maps service errors onto the response taxonomy: validation
// errors to 400, missing records to 404, state conflicts to 409 and
// everything else to 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidSide),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrInvalidExitPrice),
		errors.Is(err, ErrMissingSymbol),
		errors.Is(err, ErrInsufficientBalance):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrChallengeNotFound), errors.Is(err, ErrTradeNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrChallengeNotActive), errors.Is(err, ErrTradeAlreadyClosed):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, "An unexpected error occurred")
	}
}

// CreateChallengeHandler handles POST requests to purchase a challenge
func (h *GinHandlers) CreateChallengeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateChallengeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		challenge, err := h.service.CreateChallenge(c.GetString("userID"), req)
		if errors.Is(err, tiers.ErrUnknownTier) {
			response.BadRequest(c, "Invalid tier. Must be starter, pro, or elite")
			return
		}
		response.Handle(c, challenge, err)
	}
}

// GetChallengesHandler handles GET requests for the user's challenges
// Query parameter: status (optional)
func (h *GinHandlers) GetChallengesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		challenges, err := h.service.GetChallenges(c.GetString("userID"), c.Query("status"))
		response.Handle(c, challenges, err)
	}
}

// GetChallengeHandler handles GET requests for a single challenge
// URL parameter: challenge_id
func (h *GinHandlers) GetChallengeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		challenge, err := h.service.GetChallenge(c.Param("challenge_id"), c.GetString("userID"))
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, challenge)
	}
}

// OpenTradeHandler handles POST requests to open a trade
func (h *GinHandlers) OpenTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OpenTradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.OpenTrade(c.GetString("userID"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, trade)
	}
}

// CloseTradeHandler handles POST requests to close an open trade
// URL parameter: trade_id
func (h *GinHandlers) CloseTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CloseTradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		result, err := h.service.CloseTrade(c.GetString("userID"), c.Param("trade_id"), req.ExitPrice)
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, result)
	}
}

// GetTradesHandler handles GET requests for the user's trades
// Query parameters: challenge_id, status (both optional)
func (h *GinHandlers) GetTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.GetTrades(c.GetString("userID"), c.Query("challenge_id"), c.Query("status"))
		response.Handle(c, trades, err)
	}
}

// GetLeaderboardHandler handles GET requests for the public leaderboard
func (h *GinHandlers) GetLeaderboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		leaderboard, err := h.service.GetLeaderboard()
		response.Handle(c, leaderboard, err)
	}
}

// ResetDailyHandler handles POST requests from the external daily scheduler
// Requires admin authentication
func (h *GinHandlers) ResetDailyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.service.ResetDailyBalances()
		response.Handle(c, result, err)
	}
}
