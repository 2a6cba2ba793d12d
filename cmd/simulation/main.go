package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradesense/tradesense-api/internal/trading"
	"github.com/tradesense/tradesense-api/internal/types"
)

const (
	minTrades  = 20
	maxTrades  = 200
	numTraders = 5
)

var (
	tierNames = []string{"starter", "pro", "elite"}
	symbols   = []string{"BTCUSD", "ETHUSD", "SOLUSD", "AAPL", "MSFT", "TSLA"}
	sides     = []string{"buy", "sell"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	mu         sync.Mutex
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration, failed bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
	if failed {
		rs.failures++
	}
}

// calculate computes performance statistics from recorded durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// apiEnvelope matches the standard response wrapper
type apiEnvelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// trader drives one simulated account through the challenge lifecycle
type trader struct {
	id        int
	client    *resty.Client
	challenge *types.Challenge
	stats     map[string]*routeStats
}

// newTrader registers a fresh account, logs in and buys a random challenge tier
func newTrader(id int, baseURL string, stats map[string]*routeStats) (*trader, error) {
	tr := &trader{
		id: id,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		stats: stats,
	}

	email := fmt.Sprintf("trader-%d-%s@sim.local", id, uuid.New().String()[:8])
	if err := tr.register(email); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	tier := tierNames[rand.Intn(len(tierNames))]
	if err := tr.buyChallenge(tier); err != nil {
		return nil, fmt.Errorf("failed to buy challenge: %w", err)
	}

	return tr, nil
}

// register creates the account and keeps the returned access token
func (tr *trader) register(email string) error {
	start := time.Now()

	var result apiEnvelope[struct {
		User        types.User `json:"user"`
		AccessToken string     `json:"access_token"`
	}]
	resp, err := tr.client.R().
		SetBody(map[string]string{
			"email":     email,
			"password":  "simulated-pass-1",
			"full_name": fmt.Sprintf("Trader %d", tr.id),
		}).
		SetResult(&result).
		Post("/api/auth/register")

	tr.stats["register"].addDuration(time.Since(start), err != nil || resp.IsError())
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("register failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Data.AccessToken == "" {
		return fmt.Errorf("no access token in response: %s", resp.String())
	}

	tr.client.SetAuthToken(result.Data.AccessToken)
	return nil
}

// buyChallenge purchases a challenge of the given tier
func (tr *trader) buyChallenge(tier string) error {
	start := time.Now()

	var result apiEnvelope[types.Challenge]
	resp, err := tr.client.R().
		SetBody(map[string]string{
			"tier":           tier,
			"payment_method": "card",
		}).
		SetResult(&result).
		Post("/api/trading/challenges")

	tr.stats["challenge"].addDuration(time.Since(start), err != nil || resp.IsError())
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("buy challenge failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	tr.challenge = &result.Data
	log.Info().
		Int("trader", tr.id).
		Str("challenge_id", tr.challenge.ChallengeID).
		Str("tier", tier).
		Float64("balance", tr.challenge.InitialBalance).
		Msg("Challenge purchased")
	return nil
}

// openTrade opens a random position on the challenge
func (tr *trader) openTrade() (*types.Trade, error) {
	start := time.Now()

	var result apiEnvelope[types.Trade]
	resp, err := tr.client.R().
		SetBody(trading.OpenTradeRequest{
			ChallengeID: tr.challenge.ChallengeID,
			Symbol:      symbols[rand.Intn(len(symbols))],
			Side:        sides[rand.Intn(len(sides))],
			Quantity:    float64(rand.Intn(10) + 1),
			EntryPrice:  float64(rand.Intn(900) + 100),
		}).
		SetResult(&result).
		Post("/api/trading/trades")

	tr.stats["open"].addDuration(time.Since(start), err != nil || resp.IsError())
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("open trade failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return &result.Data, nil
}

// closeTrade closes the position at a price near its entry and reports the
// resulting challenge status
func (tr *trader) closeTrade(tradeID string, entryPrice float64) (string, error) {
	start := time.Now()

	// Exit within ±2% of entry
	exitPrice := entryPrice * (1 + (rand.Float64()-0.5)*0.04)

	var result apiEnvelope[trading.CloseTradeResponse]
	resp, err := tr.client.R().
		SetBody(trading.CloseTradeRequest{ExitPrice: exitPrice}).
		SetResult(&result).
		Post(fmt.Sprintf("/api/trading/trades/%s/close", tradeID))

	tr.stats["close"].addDuration(time.Since(start), err != nil || resp.IsError())
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("close trade failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return result.Data.Challenge.Status, nil
}

// run opens and closes trades until the target count is reached or the
// challenge leaves the active state
func (tr *trader) run(target int) (trades int, finalStatus string) {
	finalStatus = trading.ChallengeStatusActive

	for i := 0; i < target; i++ {
		trade, err := tr.openTrade()
		if err != nil {
			log.Error().Err(err).Int("trader", tr.id).Msg("Failed to open trade")
			continue
		}

		status, err := tr.closeTrade(trade.TradeID, trade.EntryPrice)
		if err != nil {
			log.Error().Err(err).Int("trader", tr.id).Str("trade_id", trade.TradeID).Msg("Failed to close trade")
			continue
		}
		trades++
		finalStatus = status

		if status != trading.ChallengeStatusActive {
			log.Info().
				Int("trader", tr.id).
				Str("challenge_id", tr.challenge.ChallengeID).
				Str("status", status).
				Int("trades", trades).
				Msg("Challenge finished")
			return trades, status
		}

		time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
	}

	return trades, finalStatus
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func printPerformanceStats(stats map[string]*routeStats) {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, rs := range stats {
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			rs.name,
			rs.totalCalls,
			rs.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// main runs a load simulation against an already running API server.
// Override the target with SERVER_URL.
func main() {
	baseURL := os.Getenv("SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	stats := map[string]*routeStats{
		"register":  {name: "Register"},
		"challenge": {name: "Buy Challenge"},
		"open":      {name: "Open Trade"},
		"close":     {name: "Close Trade"},
	}

	targetTrades := rand.Intn(maxTrades-minTrades) + minTrades
	log.Info().
		Int("traders", numTraders).
		Int("target_trades", targetTrades).
		Str("server", baseURL).
		Msg("Starting simulation")

	type outcome struct {
		trades int
		status string
	}
	results := make(chan outcome, numTraders)

	var wg sync.WaitGroup
	startTime := time.Now()

	for i := 0; i < numTraders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			tr, err := newTrader(id, baseURL, stats)
			if err != nil {
				log.Error().Err(err).Int("trader", id).Msg("Failed to initialize trader")
				return
			}

			trades, status := tr.run(targetTrades / numTraders)
			results <- outcome{trades: trades, status: status}
		}(i)
	}

	wg.Wait()
	close(results)

	var totalTrades, passed, failed, active int
	for r := range results {
		totalTrades += r.trades
		switch r.status {
		case trading.ChallengeStatusPassed:
			passed++
		case trading.ChallengeStatusFailed:
			failed++
		default:
			active++
		}
	}

	duration := time.Since(startTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("CHALLENGE SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf(`
Traders:           %d
Trades Settled:    %d
Challenges Passed: %d
Challenges Failed: %d
Still Active:      %d
Duration:          %v
`, numTraders, totalTrades, passed, failed, active, duration.Round(time.Millisecond))
	fmt.Println(strings.Repeat("=", 80))

	printPerformanceStats(stats)

	log.Info().
		Int("trades", totalTrades).
		Int("passed", passed).
		Int("failed", failed).
		Dur("duration", duration).
		Msg("Simulation completed")
}
