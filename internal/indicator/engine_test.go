package indicator

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantarb/arbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func candleSeries(start time.Time, closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
		}
	}
	return out
}

func TestIngestBoundsWindow(t *testing.T) {
	e := NewEngine(testLogger())
	start := time.Unix(1_700_000_000, 0)

	closes := make([]float64, 1500)
	for i := range closes {
		closes[i] = float64(i)
	}
	for _, c := range candleSeries(start, closes...) {
		e.Ingest([]domain.Candle{c})
	}

	require.Equal(t, 1000, e.WindowLen())
	w := e.Window()
	// Oldest 500 evicted, order preserved.
	require.Equal(t, float64(500), w[0].Close)
	require.Equal(t, float64(1499), w[999].Close)
}

func TestIngestDropsStaleAndDuplicateCandles(t *testing.T) {
	e := NewEngine(testLogger())
	start := time.Unix(1_700_000_000, 0)
	series := candleSeries(start, 1, 2, 3)

	e.Ingest(series)
	// Refetching the same history must not grow the window.
	e.Ingest(series)
	require.Equal(t, 3, e.WindowLen())

	// Only the candle newer than the tail is appended.
	e.Ingest(candleSeries(start.Add(10*time.Minute), 3.5, 4))
	require.Equal(t, 4, e.WindowLen())
	last, ok := e.LastClose()
	require.True(t, ok)
	require.Equal(t, 4.0, last)
}

func TestRecomputeColdStart(t *testing.T) {
	e := NewEngine(testLogger())
	e.Ingest(candleSeries(time.Unix(1_700_000_000, 0), 1, 2, 3, 4, 5))

	ind := e.Recompute()
	_, _, ok := ind.LastBands()
	require.False(t, ok, "bands undefined under 20 candles")
	_, ok = ind.LastRSI()
	require.False(t, ok, "oscillator undefined under 21 candles")
}

func TestRecomputeBands(t *testing.T) {
	e := NewEngine(testLogger())
	// 19 flat closes then one outlier; the 20-candle window has mean 100.5
	// and population stddev sqrt(4.75+90.25)/sqrt(20).
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 110
	e.Ingest(candleSeries(time.Unix(1_700_000_000, 0), closes...))

	ind := e.Recompute()
	upper, lower, ok := ind.LastBands()
	require.True(t, ok)

	mean := 100.5
	std := math.Sqrt(95.0 / 20.0)
	require.InDelta(t, mean+2*std, upper, 1e-9)
	require.InDelta(t, mean-2*std, lower, 1e-9)
}

func TestRecomputeSaturatedRSI(t *testing.T) {
	e := NewEngine(testLogger())
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	e.Ingest(candleSeries(time.Unix(1_700_000_000, 0), closes...))

	rsi, ok := e.Recompute().LastRSI()
	require.True(t, ok)
	require.Equal(t, 100.0, rsi, "monotonic gains saturate the oscillator")
}

func TestRecomputeMemoizes(t *testing.T) {
	e := NewEngine(testLogger())
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i))
	}
	e.Ingest(candleSeries(time.Unix(1_700_000_000, 0), closes...))

	first := e.Recompute()
	require.Same(t, first, e.Recompute())

	e.Ingest(candleSeries(time.Unix(1_700_000_000, 0).Add(30*5*time.Minute), 101))
	require.NotSame(t, first, e.Recompute())
}

func TestVolatility(t *testing.T) {
	e := NewEngine(testLogger())
	require.Zero(t, e.Volatility())

	// Alternating +10%/-x% returns; just assert the value is the population
	// stddev of the return series times 100.
	e.Ingest(candleSeries(time.Unix(1_700_000_000, 0), 100, 110, 99))
	r1 := (110.0 - 100.0) / 100.0
	r2 := (99.0 - 110.0) / 110.0
	mean := (r1 + r2) / 2
	variance := ((r1-mean)*(r1-mean) + (r2-mean)*(r2-mean)) / 2
	require.InDelta(t, math.Sqrt(variance)*100, e.Volatility(), 1e-9)
}
