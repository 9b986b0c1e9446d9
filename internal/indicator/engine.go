// Package indicator maintains the rolling candle window and derives the
// band/oscillator indicators the statistical detector consumes. The engine is
// the only state that persists across scan cycles; it is owned by a single
// goroutine and never mutated concurrently.
package indicator

import (
	"log/slog"
	"math"

	"github.com/quantarb/arbot/internal/domain"
)

const (
	// maxWindow bounds the retained candle history. Oldest entries are
	// evicted first once the bound is reached.
	maxWindow = 1000
	// smaWindow is the trailing window for the moving average, the bands and
	// the oscillator.
	smaWindow = 20
	// bandWidth is the number of standard deviations between the SMA and
	// each band.
	bandWidth = 2.0
)

// Indicators holds the derived series, each aligned index-for-index with the
// candle window used to compute it. Entries before the minimum window size
// are NaN; use the Last* helpers to read the defined tail.
type Indicators struct {
	UpperBand []float64
	LowerBand []float64
	RSI       []float64
}

// LastBands returns the most recent upper/lower band values, or false when
// the window is still too short to define them.
func (in *Indicators) LastBands() (upper, lower float64, ok bool) {
	n := len(in.UpperBand)
	if n == 0 {
		return 0, 0, false
	}
	upper, lower = in.UpperBand[n-1], in.LowerBand[n-1]
	if math.IsNaN(upper) || math.IsNaN(lower) {
		return 0, 0, false
	}
	return upper, lower, true
}

// LastRSI returns the most recent oscillator value, or false when undefined.
func (in *Indicators) LastRSI() (float64, bool) {
	n := len(in.RSI)
	if n == 0 || math.IsNaN(in.RSI[n-1]) {
		return 0, false
	}
	return in.RSI[n-1], true
}

// Engine owns the rolling candle window and memoizes the last recompute.
type Engine struct {
	window []domain.Candle
	logger *slog.Logger

	memo      *Indicators
	memoLen   int
	memoStamp int64
}

// NewEngine creates an empty Engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger.With(slog.String("component", "indicator"))}
}

// Ingest appends candles newer than the current tail and truncates the window
// to the most recent 1000 entries. Candles at or before the last retained
// timestamp are dropped, preserving the strictly-increasing invariant when
// the same series is fetched repeatedly.
func (e *Engine) Ingest(candles []domain.Candle) {
	for _, c := range candles {
		if n := len(e.window); n > 0 && !c.Timestamp.After(e.window[n-1].Timestamp) {
			continue
		}
		e.window = append(e.window, c)
	}
	if excess := len(e.window) - maxWindow; excess > 0 {
		e.window = append(e.window[:0:0], e.window[excess:]...)
	}
	e.logger.Debug("window updated", slog.Int("len", len(e.window)))
}

// WindowLen returns the number of retained candles.
func (e *Engine) WindowLen() int { return len(e.window) }

// Window returns a copy of the retained candles in order.
func (e *Engine) Window() []domain.Candle {
	out := make([]domain.Candle, len(e.window))
	copy(out, e.window)
	return out
}

// LastClose returns the close of the most recent candle, or false when the
// window is empty.
func (e *Engine) LastClose() (float64, bool) {
	if len(e.window) == 0 {
		return 0, false
	}
	return e.window[len(e.window)-1].Close, true
}

// Recompute derives the bands and the oscillator over the current window. It
// is pure given the window and memoizes the result, so repeated calls within
// one cycle are free. Standard deviation is the population form, consistently
// with the volatility helper.
func (e *Engine) Recompute() *Indicators {
	n := len(e.window)
	if e.memo != nil && e.memoLen == n && n > 0 && e.window[n-1].Timestamp.UnixNano() == e.memoStamp {
		return e.memo
	}

	ind := &Indicators{
		UpperBand: nanSlice(n),
		LowerBand: nanSlice(n),
		RSI:       nanSlice(n),
	}

	closes := make([]float64, n)
	for i, c := range e.window {
		closes[i] = c.Close
	}

	for i := smaWindow - 1; i < n; i++ {
		mean, std := meanStd(closes[i-smaWindow+1 : i+1])
		ind.UpperBand[i] = mean + bandWidth*std
		ind.LowerBand[i] = mean - bandWidth*std
	}

	// The oscillator needs smaWindow deltas, so it is defined one index
	// later than the bands.
	for i := smaWindow; i < n; i++ {
		var gain, loss float64
		for j := i - smaWindow + 1; j <= i; j++ {
			d := closes[j] - closes[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		gain /= smaWindow
		loss /= smaWindow
		if loss == 0 {
			// No down moves in the window: saturate rather than propagate
			// a division by zero.
			ind.RSI[i] = 100
			continue
		}
		rs := gain / loss
		ind.RSI[i] = 100 - 100/(1+rs)
	}

	e.memo = ind
	e.memoLen = n
	if n > 0 {
		e.memoStamp = e.window[n-1].Timestamp.UnixNano()
	}
	return ind
}

// Volatility returns the population standard deviation of close-to-close
// returns across the whole window, as a percentage. Returns 0 with fewer than
// two candles.
func (e *Engine) Volatility() float64 {
	n := len(e.window)
	if n < 2 {
		return 0
	}
	rets := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev := e.window[i-1].Close
		if prev == 0 {
			continue
		}
		rets = append(rets, (e.window[i].Close-prev)/prev)
	}
	if len(rets) == 0 {
		return 0
	}
	_, std := meanStd(rets)
	return std * 100
}

func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance)
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
