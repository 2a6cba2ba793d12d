package trading

import (
	"errors"
	"time"

	"github.com/tradesense/tradesense-api/internal/types"
)

// Challenge lifecycle states
const (
	ChallengeStatusActive = "active"
	ChallengeStatusPassed = "passed"
	ChallengeStatusFailed = "failed"
)

// Trade states and sides
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"

	SideBuy  = "buy"
	SideSell = "sell"
)

// Validation errors: bad input shape or range, never retried.
var (
	ErrInvalidSide      = errors.New("trade side must be buy or sell")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidPrice     = errors.New("price must be greater than zero")
	ErrInvalidExitPrice = errors.New("invalid exit price")
	ErrMissingSymbol    = errors.New("symbol is required")
)

// Not-found and state-conflict errors.
var (
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrChallengeNotActive  = errors.New("challenge is not active")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrTradeAlreadyClosed  = errors.New("trade is already closed")
)

// CreateChallengeRequest is the payload for purchasing a challenge
type CreateChallengeRequest struct {
	Tier          string `json:"tier" binding:"required"`
	PaymentMethod string `json:"payment_method"` // cmi, crypto or paypal
}

// OpenTradeRequest is the payload for opening a position
type OpenTradeRequest struct {
	ChallengeID string  `json:"challenge_id" binding:"required"`
	Symbol      string  `json:"symbol" binding:"required"`
	Side        string  `json:"side" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
	EntryPrice  float64 `json:"entry_price" binding:"required"`
}

// CloseTradeRequest is the payload for closing a position
type CloseTradeRequest struct {
	ExitPrice float64 `json:"exit_price" binding:"required"`
}

// CloseTradeResponse returns both the settled trade and the re-evaluated
// challenge so clients can render the new account state in one round trip.
type CloseTradeResponse struct {
	Trade     *types.Trade     `json:"trade"`
	Challenge *types.Challenge `json:"challenge"`
}

// LeaderboardEntry is one row of the public leaderboard
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	Trader        string  `json:"trader"`
	ProfitPercent float64 `json:"profit_percent"`
	Balance       float64 `json:"balance"`
	Tier          string  `json:"tier"`
}

// DailyResetResponse reports how many active challenges had their
// daily start balance rolled forward.
type DailyResetResponse struct {
	ChallengesReset int64     `json:"challenges_reset"`
	Timestamp       time.Time `json:"timestamp"`
}
