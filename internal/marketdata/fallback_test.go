package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateChartShape(t *testing.T) {
	chart := GenerateChart("BTCUSD", MarketCrypto)

	assert.Equal(t, "BTCUSD", chart.Symbol)
	assert.Equal(t, MarketCrypto, chart.Market)
	assert.Len(t, chart.PriceData, fallbackCandles+1)

	base := basePrices["BTCUSD"]
	assert.Equal(t, base, chart.CurrentPrice)

	// Final bar closes at the quote, intermediate bars stay above the floor
	last := chart.PriceData[len(chart.PriceData)-1]
	assert.Equal(t, base, last.Close)
	assert.GreaterOrEqual(t, last.High, last.Low)

	for i, candle := range chart.PriceData[:fallbackCandles] {
		assert.GreaterOrEqual(t, candle.Open, base*0.9, "candle %d open below floor", i)
		assert.GreaterOrEqual(t, candle.Volume, int64(100000))
		assert.Less(t, candle.Volume, int64(1100000))
		assert.GreaterOrEqual(t, candle.Close, candle.Low)
		assert.LessOrEqual(t, candle.Close, candle.High)
	}

	// Bars are 5 minutes apart, oldest first
	for i := 1; i < len(chart.PriceData); i++ {
		assert.Greater(t, chart.PriceData[i].Time, chart.PriceData[i-1].Time)
	}
}

func TestGenerateChartUnknownSymbol(t *testing.T) {
	chart := GenerateChart("UNKNOWN", MarketUSStock)

	assert.Equal(t, 100.0, chart.CurrentPrice)
	assert.Len(t, chart.PriceData, fallbackCandles+1)
}

func TestYahooSymbolMapping(t *testing.T) {
	assert.Equal(t, "BTC-USD", yahooSymbol("BTCUSD", MarketCrypto))
	assert.Equal(t, "ETH-USD", yahooSymbol("ETHUSD", MarketCrypto))
	assert.Equal(t, "AAPL", yahooSymbol("AAPL", MarketUSStock))
	// Unmapped crypto symbols pass through unchanged
	assert.Equal(t, "LTCUSD", yahooSymbol("LTCUSD", MarketCrypto))
}
