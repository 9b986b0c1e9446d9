package gateway

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/quantarb/arbot/internal/domain"
)

// Paper is a simulated exchange used by paper mode and by end-to-end tests.
// It produces deterministic synthetic books and candles (seeded from the
// exchange id and pair) and acknowledges every order without touching the
// network. Small per-exchange price offsets keep occasional cross-exchange
// spreads appearing, so the full detect/execute path gets exercised.
type Paper struct {
	id       string
	takerFee float64
	tick     atomic.Int64
}

// NewPaper creates a paper gateway for the given exchange id and taker fee
// fraction.
func NewPaper(id string, takerFee float64) *Paper {
	return &Paper{id: id, takerFee: takerFee}
}

func (p *Paper) ID() string        { return p.id }
func (p *Paper) TakerFee() float64 { return p.takerFee }

// basePrice derives a stable reference price for a pair, offset slightly per
// exchange so different paper venues disagree.
func (p *Paper) basePrice(pair string) float64 {
	h := fnv.New32a()
	h.Write([]byte(pair))
	base := 100 + float64(h.Sum32()%50000)
	h.Reset()
	h.Write([]byte(p.id + pair))
	offset := (float64(h.Sum32()%200) - 100) / 10000 // within ±1%
	return base * (1 + offset)
}

// FetchOrderBook returns a 5-level synthetic book around a slowly drifting
// mid price.
func (p *Paper) FetchOrderBook(_ context.Context, pair string) (*domain.OrderBook, error) {
	n := p.tick.Add(1)
	mid := p.basePrice(pair) * (1 + 0.001*math.Sin(float64(n)/7))

	book := &domain.OrderBook{
		Exchange:  p.id,
		Pair:      pair,
		Timestamp: time.Now().UTC(),
	}
	for i := 0; i < 5; i++ {
		step := mid * 0.0002 * float64(i+1)
		book.Bids = append(book.Bids, domain.PriceLevel{Price: mid - step, Size: 0.5 * float64(i+1)})
		book.Asks = append(book.Asks, domain.PriceLevel{Price: mid + step, Size: 0.5 * float64(i+1)})
	}
	return book, nil
}

// FetchCandles returns 30 synthetic 5-minute bars ending now.
func (p *Paper) FetchCandles(_ context.Context, pair, _ string) ([]domain.Candle, error) {
	base := p.basePrice(pair)
	now := time.Now().UTC().Truncate(5 * time.Minute)

	candles := make([]domain.Candle, 0, 30)
	for i := 29; i >= 0; i-- {
		c := base * (1 + 0.002*math.Sin(float64(i)/5))
		candles = append(candles, domain.Candle{
			Timestamp: now.Add(-time.Duration(i) * 5 * time.Minute),
			Open:      c * 0.999,
			High:      c * 1.002,
			Low:       c * 0.998,
			Close:     c,
			Volume:    10,
		})
	}
	return candles, nil
}

// PlaceLimitOrder acknowledges the order immediately.
func (p *Paper) PlaceLimitOrder(_ context.Context, pair string, side domain.Side, amount, price float64) (*domain.OrderReceipt, error) {
	return &domain.OrderReceipt{
		OrderID:  uuid.New().String(),
		Exchange: p.id,
		Pair:     pair,
		Side:     side,
		Amount:   amount,
		Price:    price,
		PlacedAt: time.Now().UTC(),
	}, nil
}
