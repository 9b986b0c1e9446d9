package domain

import "time"

// PriceLevel is a single price+size entry in an order book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a point-in-time view of the resting orders for one pair on one
// exchange. Bids are sorted descending by price, asks ascending. It is built
// fresh per fetch and never mutated afterwards.
type OrderBook struct {
	Exchange  string
	Pair      string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid returns the highest resting bid, or false when the book is empty on
// the bid side.
func (b *OrderBook) BestBid() (PriceLevel, bool) {
	if b == nil || len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest resting ask, or false when the book is empty on
// the ask side.
func (b *OrderBook) BestAsk() (PriceLevel, bool) {
	if b == nil || len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}

// Candle is a single OHLCV bar.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// MarketCell bundles the data fetched for one (exchange, pair) combination in
// one cycle. Either field may be nil/empty when the corresponding fetch
// exhausted its retries; consumers must treat that as "exchange unavailable
// for this pair this cycle" and skip it.
type MarketCell struct {
	Book    *OrderBook
	Candles []Candle
}

// MarketSnapshot maps pair -> exchange id -> fetched market data. It is
// assembled once per cycle by the fetcher and is read-only afterwards: all
// detectors in a cycle observe the same snapshot.
type MarketSnapshot struct {
	Pairs     map[string]map[string]MarketCell
	FetchedAt time.Time
}

// Cell returns the data for (pair, exchange) and whether a cell exists.
func (s *MarketSnapshot) Cell(pair, exchange string) (MarketCell, bool) {
	byExchange, ok := s.Pairs[pair]
	if !ok {
		return MarketCell{}, false
	}
	cell, ok := byExchange[exchange]
	return cell, ok
}

// Book returns the order book for (pair, exchange), or false when the cell is
// missing or its book fetch failed.
func (s *MarketSnapshot) Book(pair, exchange string) (*OrderBook, bool) {
	cell, ok := s.Cell(pair, exchange)
	if !ok || cell.Book == nil {
		return nil, false
	}
	return cell.Book, true
}

// Empty reports whether every cell in the snapshot is missing both its book
// and its candles, i.e. the whole fetch cycle failed.
func (s *MarketSnapshot) Empty() bool {
	for _, byExchange := range s.Pairs {
		for _, cell := range byExchange {
			if cell.Book != nil || len(cell.Candles) > 0 {
				return false
			}
		}
	}
	return true
}
