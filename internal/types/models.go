package types

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered platform account
type User struct {
	gorm.Model   `json:"-"`
	UserID       string    `gorm:"uniqueIndex" json:"user_id"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"` // user or admin
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Challenge represents one purchased simulated funded-trading account.
// Balance fields are only ever mutated by trade settlement plus the
// risk evaluation that follows it.
type Challenge struct {
	gorm.Model        `json:"-"`
	ChallengeID       string    `gorm:"uniqueIndex" json:"challenge_id"`
	UserID            string    `json:"user_id"`
	Tier              string    `json:"tier"` // starter, pro or elite
	InitialBalance    float64   `json:"initial_balance"`
	CurrentBalance    float64   `json:"current_balance"`
	HighestBalance    float64   `json:"highest_balance"`
	DailyStartBalance float64   `json:"daily_start_balance"`
	Status            string    `json:"status"` // active, passed, failed
	FailReason        string    `json:"fail_reason,omitempty"`
	ProfitPercent     float64   `json:"profit_percent"`
	PaymentMethod     string    `json:"payment_method"`
	AmountPaid        float64   `json:"amount_paid"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Trade represents one simulated position against a challenge.
// ExitPrice and ProfitLoss are set exactly once, when the trade closes.
type Trade struct {
	gorm.Model  `json:"-"`
	TradeID     string    `gorm:"uniqueIndex" json:"trade_id"`
	ChallengeID string    `gorm:"index" json:"challenge_id"`
	UserID      string    `json:"user_id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"` // buy or sell
	Quantity    float64   `json:"quantity"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   *float64  `json:"exit_price,omitempty"`
	ProfitLoss  *float64  `json:"profit_loss,omitempty"`
	Status      string    `json:"status"` // open or closed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewsArticle represents a published market news item
type NewsArticle struct {
	gorm.Model  `json:"-"`
	ArticleID   string    `gorm:"uniqueIndex" json:"article_id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	Category    string    `json:"category"` // market, crypto, morocco, global
	ImageURL    string    `json:"image_url"`
	ExternalURL string    `json:"external_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommunityPost represents a user post on the community feed
type CommunityPost struct {
	gorm.Model    `json:"-"`
	PostID        string    `gorm:"uniqueIndex" json:"post_id"`
	AuthorID      string    `gorm:"index" json:"author_id"`
	Content       string    `json:"content"`
	Category      string    `json:"category"` // strategy, analysis, question, general
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Course represents a masterclass catalog entry
type Course struct {
	gorm.Model      `json:"-"`
	CourseID        string    `gorm:"uniqueIndex" json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Level           string    `json:"level"`    // beginner, intermediate, advanced
	Category        string    `json:"category"` // technical, fundamental, risk_management, psychology
	DurationMinutes int       `json:"duration_minutes"`
	VideoURL        string    `json:"video_url"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	IsPremium       bool      `json:"is_premium"`
	CreatedAt       time.Time `json:"created_at"`
}
