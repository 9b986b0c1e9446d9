// Package risk holds the pure pre-trade guards shared by the executor and the
// detectors. Nothing here performs I/O or keeps state.
package risk

import "github.com/quantarb/arbot/internal/domain"

// DepthCovers reports whether the cumulative size across the given levels
// reaches amount.
func DepthCovers(levels []domain.PriceLevel, amount float64) bool {
	if amount <= 0 {
		return false
	}
	var cumulative float64
	for _, lvl := range levels {
		cumulative += lvl.Size
		if cumulative >= amount {
			return true
		}
	}
	return false
}

// SufficientDepth reports whether the cumulative ask size in the book covers
// the requested amount. An empty or missing book never has depth.
func SufficientDepth(book *domain.OrderBook, amount float64) bool {
	if book == nil {
		return false
	}
	return DepthCovers(book.Asks, amount)
}

// EstimateSlippagePct walks the ask ladder for the requested amount and
// returns the average fill price's premium over the top ask, as a percentage
// of the top ask. The second return value is false when the ladder cannot
// fill the amount at all.
func EstimateSlippagePct(book *domain.OrderBook, amount float64) (float64, bool) {
	if book == nil || len(book.Asks) == 0 || amount <= 0 {
		return 0, false
	}
	top := book.Asks[0].Price

	var filled, cost float64
	for _, ask := range book.Asks {
		take := ask.Size
		if remaining := amount - filled; take > remaining {
			take = remaining
		}
		filled += take
		cost += take * ask.Price
		if filled >= amount {
			break
		}
	}
	if filled < amount || top == 0 {
		return 0, false
	}
	avg := cost / amount
	return (avg - top) / top * 100, true
}

// TopDepth sums the size of the first n ask levels. It feeds the aggregate
// liquidity figure in the market-conditions event.
func TopDepth(book *domain.OrderBook, n int) float64 {
	if book == nil {
		return 0
	}
	var depth float64
	for i, ask := range book.Asks {
		if i >= n {
			break
		}
		depth += ask.Size
	}
	return depth
}
