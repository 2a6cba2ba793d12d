package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tradesense/tradesense-api/pkg/response"
)

// Market types supported by the platform
const (
	MarketCrypto  = "crypto"
	MarketUSStock = "us_stock"
	MarketMorocco = "morocco"
)

const (
	defaultInterval = "5m"
	fetchTimeout    = 10 * time.Second
)

var ErrInvalidMarket = errors.New("invalid market type")

// validIntervals maps API intervals to upstream chart intervals
var validIntervals = map[string]string{
	"1m": "1m",
	"5m": "5m",
	"1h": "60m",
	"1d": "1d",
}

// FetchRequest is the payload for a chart request
type FetchRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Market string `json:"market" binding:"required"` // crypto, us_stock, morocco
}

// Service serves market charts, falling back to synthetic data when the
// upstream source fails. The Moroccan exchange has no live feed, so those
// requests always use generated data.
type Service struct {
	source Source
}

// NewService creates a market data service backed by the given source
func NewService(source Source) *Service {
	return &Service{
		source: source,
	}
}

// FetchChart returns a one-day chart for the symbol. Upstream errors are
// absorbed: the caller always gets a chart.
func (s *Service) FetchChart(ctx context.Context, symbol, market, interval string) (*Chart, error) {
	upstream, ok := validIntervals[interval]
	if !ok {
		upstream = defaultInterval
	}

	switch market {
	case MarketCrypto, MarketUSStock:
		chart, err := s.source.FetchChart(ctx, symbol, market, upstream)
		if err != nil {
			log.Warn().
				Err(err).
				Str("symbol", symbol).
				Str("market", market).
				Msg("upstream chart fetch failed, serving generated data")
			return GenerateChart(symbol, market), nil
		}
		return chart, nil
	case MarketMorocco:
		return GenerateChart(symbol, market), nil
	default:
		return nil, ErrInvalidMarket
	}
}

// GinHandlers contains HTTP handlers for market data endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for market data endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// FetchChartHandler handles POST requests for symbol charts
// Optional URL parameter: interval (1m, 5m, 1h, 1d)
func (h *GinHandlers) FetchChartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FetchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Symbol and market are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), fetchTimeout)
		defer cancel()

		chart, err := h.service.FetchChart(ctx, req.Symbol, req.Market, c.Param("interval"))
		if errors.Is(err, ErrInvalidMarket) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Handle(c, chart, err)
	}
}
