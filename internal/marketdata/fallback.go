package marketdata

import (
	"math/rand"
	"time"
)

const (
	fallbackCandles  = 78 // one trading day of 5-minute bars
	cryptoVolatility = 0.015
	stockVolatility  = 0.008
)

// basePrices seeds the synthetic series when a symbol has no live quote
var basePrices = map[string]float64{
	"BTCUSD":   97000,
	"ETHUSD":   3400,
	"SOLUSD":   210,
	"BNBUSD":   650,
	"XRPUSD":   2.4,
	"ADAUSD":   0.95,
	"DOGEUSD":  0.32,
	"MATICUSD": 0.52,
	"AAPL":     230,
	"MSFT":     425,
	"GOOGL":    175,
	"AMZN":     220,
	"TSLA":     340,
	"NVDA":     140,
	"IAM":      110, // Maroc Telecom
	"ATW":      520, // Attijariwafa Bank
	"BCP":      270,
	"CIH":      340,
}

// GenerateChart builds a synthetic one-day chart of 5-minute bars, used
// when every upstream source fails or for markets with no live feed.
// The series random-walks around the base price, never drops below 90%
// of it, and the final bar closes exactly at the base price.
func GenerateChart(symbol, market string) *Chart {
	basePrice, ok := basePrices[symbol]
	if !ok {
		basePrice = 100
	}

	volatility := stockVolatility
	if market == MarketCrypto {
		volatility = cryptoVolatility
	}

	now := time.Now().UnixMilli()
	price := basePrice * 0.995

	candles := make([]Candle, 0, fallbackCandles+1)
	for i := fallbackCandles; i > 0; i-- {
		variance := (rand.Float64() - 0.5) * basePrice * volatility
		price += variance
		if price < basePrice*0.9 {
			price = basePrice * 0.9
		}

		open := price
		high := price + rand.Float64()*basePrice*volatility*0.5
		low := price - rand.Float64()*basePrice*volatility*0.5
		closePrice := low + rand.Float64()*(high-low)

		candles = append(candles, Candle{
			Time:   now - int64(i)*5*60*1000,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: 100000 + rand.Int63n(1000000),
		})
	}

	// Pin the final bar to the base price so the chart ends on the quote
	lastClose := candles[len(candles)-1].Close
	candles = append(candles, Candle{
		Time:   now,
		Open:   lastClose,
		High:   max(lastClose, basePrice),
		Low:    min(lastClose, basePrice),
		Close:  basePrice,
		Volume: 100000 + rand.Int63n(1000000),
	})

	startPrice := candles[0].Close
	change := basePrice - startPrice
	changePercent := 0.0
	if startPrice > 0 {
		changePercent = change / startPrice * 100
	}

	return &Chart{
		Symbol:        symbol,
		CurrentPrice:  basePrice,
		Change:        change,
		ChangePercent: changePercent,
		PriceData:     candles,
		Market:        market,
	}
}
