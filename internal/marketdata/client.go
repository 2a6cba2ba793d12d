package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

var ErrNoChartData = errors.New("no chart data returned")

// cryptoSymbols maps platform crypto symbols to Yahoo Finance tickers
var cryptoSymbols = map[string]string{
	"BTCUSD":   "BTC-USD",
	"ETHUSD":   "ETH-USD",
	"SOLUSD":   "SOL-USD",
	"BNBUSD":   "BNB-USD",
	"XRPUSD":   "XRP-USD",
	"ADAUSD":   "ADA-USD",
	"DOGEUSD":  "DOGE-USD",
	"MATICUSD": "MATIC-USD",
}

// Candle is a single OHLCV bar. Time is in epoch milliseconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Chart is the price series returned for a symbol
type Chart struct {
	Symbol        string   `json:"symbol"`
	CurrentPrice  float64  `json:"current_price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	PriceData     []Candle `json:"price_data"`
	Market        string   `json:"market"`
}

// Source fetches intraday charts for a symbol
type Source interface {
	FetchChart(ctx context.Context, symbol, market, interval string) (*Chart, error)
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// YahooClient fetches intraday chart data from the Yahoo Finance chart API
type YahooClient struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewYahooClient creates a rate-limited Yahoo Finance client
func NewYahooClient(baseURL string, requestsPerSecond float64) *YahooClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "application/json").
		SetRetryCount(2)

	return &YahooClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// yahooSymbol formats a platform symbol for the Yahoo Finance API
func yahooSymbol(symbol, market string) string {
	if market == MarketCrypto {
		if mapped, ok := cryptoSymbols[symbol]; ok {
			return mapped
		}
	}
	return symbol
}

// FetchChart returns one day of bars at the given interval for the symbol
func (y *YahooClient) FetchChart(ctx context.Context, symbol, market, interval string) (*Chart, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var parsed chartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": interval,
			"range":    "1d",
		}).
		SetResult(&parsed).
		Get(fmt.Sprintf("/v8/finance/chart/%s", yahooSymbol(symbol, market)))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chart request failed with status %d", resp.StatusCode())
	}

	if len(parsed.Chart.Result) == 0 {
		return nil, ErrNoChartData
	}
	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, ErrNoChartData
	}
	quote := result.Indicators.Quote[0]

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		if quote.Close[i] <= 0 {
			continue
		}
		candle := Candle{
			Time:  ts * 1000,
			Open:  quote.Open[i],
			High:  quote.High[i],
			Low:   quote.Low[i],
			Close: quote.Close[i],
		}
		if i < len(quote.Volume) {
			candle.Volume = quote.Volume[i]
		}
		candles = append(candles, candle)
	}
	if len(candles) == 0 {
		return nil, ErrNoChartData
	}

	currentPrice := candles[len(candles)-1].Close
	previousClose := result.Meta.ChartPreviousClose
	if previousClose <= 0 {
		previousClose = candles[0].Close
	}
	change := currentPrice - previousClose
	changePercent := 0.0
	if previousClose > 0 {
		changePercent = change / previousClose * 100
	}

	return &Chart{
		Symbol:        yahooSymbol(symbol, market),
		CurrentPrice:  currentPrice,
		Change:        change,
		ChangePercent: changePercent,
		PriceData:     candles,
		Market:        market,
	}, nil
}
