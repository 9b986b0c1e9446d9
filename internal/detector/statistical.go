package detector

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quantarb/arbot/internal/domain"
	"github.com/quantarb/arbot/internal/indicator"
)

const (
	indicatorLowerBand = "lowerBand"
	indicatorUpperBand = "upperBand"
)

// Statistical flags band breakouts on the configured pair: a close below the
// lower band is a buy (expecting reversion up), a close above the upper band
// is a sell. It reads the indicator engine's memoized state and is otherwise
// stateless; at most one signal is produced per invocation, for the latest
// candle only.
type Statistical struct {
	engine   *indicator.Engine
	pair     string
	exchange string
	// minHistory candles are required before any signal; below that the
	// bands are undefined and the detector stays silent.
	minHistory int
	logger     *slog.Logger
}

// NewStatistical creates the detector bound to one pair and exchange.
func NewStatistical(engine *indicator.Engine, pair, exchange string, logger *slog.Logger) *Statistical {
	return &Statistical{
		engine:     engine,
		pair:       pair,
		exchange:   exchange,
		minHistory: 20,
		logger:     logger.With(slog.String("detector", "statistical")),
	}
}

// Name returns the detector identifier.
func (d *Statistical) Name() string { return "statistical" }

// Detect compares the latest close against the latest bands. The snapshot is
// unused; the engine was fed during the same cycle, before detection ran.
func (d *Statistical) Detect(_ *domain.MarketSnapshot) []domain.Opportunity {
	if d.engine.WindowLen() < d.minHistory {
		return nil
	}
	price, ok := d.engine.LastClose()
	if !ok {
		return nil
	}
	upper, lower, ok := d.engine.Recompute().LastBands()
	if !ok {
		return nil
	}

	var (
		side      domain.Side
		indName   string
		reference float64
	)
	switch {
	case price < lower:
		side, indName, reference = domain.SideBuy, indicatorLowerBand, lower
	case price > upper:
		side, indName, reference = domain.SideSell, indicatorUpperBand, upper
	default:
		return nil
	}

	// The expected edge is the distance beyond the band, i.e. how far the
	// price would move on a reversion back to it.
	profitPct := (reference - price) / price * 100
	if profitPct < 0 {
		profitPct = -profitPct
	}

	d.logger.Info("band breakout",
		slog.String("pair", d.pair),
		slog.String("side", string(side)),
		slog.Float64("price", price),
		slog.String("indicator", indName),
		slog.Float64("profit_pct", profitPct),
	)

	return []domain.Opportunity{{
		ID:         uuid.New().String(),
		Kind:       domain.KindStatistical,
		Pair:       d.pair,
		ProfitPct:  profitPct,
		DetectedAt: time.Now().UTC(),
		Statistical: &domain.StatisticalSignal{
			Exchange:     d.exchange,
			Side:         side,
			TriggerPrice: price,
			Indicator:    indName,
		},
	}}
}
