// Package fetcher assembles the per-cycle market snapshot. All
// (exchange, pair) fetches run concurrently; each individual call is wrapped
// in the shared retry policy and degrades to a missing cell on failure, so a
// partially unavailable exchange never aborts a cycle.
package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantarb/arbot/internal/domain"
	"github.com/quantarb/arbot/internal/gateway"
)

// Fetcher builds MarketSnapshots from the gateway registry.
type Fetcher struct {
	registry  *gateway.Registry
	retry     gateway.RetryConfig
	sleep     gateway.Sleeper
	timeframe string
	logger    *slog.Logger
}

// New creates a Fetcher. sleep may be nil to use the wall clock.
func New(registry *gateway.Registry, retry gateway.RetryConfig, sleep gateway.Sleeper, timeframe string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		registry:  registry,
		retry:     retry,
		sleep:     sleep,
		timeframe: timeframe,
		logger:    logger.With(slog.String("component", "fetcher")),
	}
}

// Snapshot fetches the order book and candle series for every
// (exchange, pair) combination concurrently and assembles one immutable
// snapshot. Cells whose fetches exhausted their retries are left empty. The
// caller decides whether an entirely empty snapshot is worth skipping.
func (f *Fetcher) Snapshot(ctx context.Context, exchanges, pairs []string) *domain.MarketSnapshot {
	snap := &domain.MarketSnapshot{
		Pairs:     make(map[string]map[string]domain.MarketCell, len(pairs)),
		FetchedAt: time.Now().UTC(),
	}
	for _, pair := range pairs {
		snap.Pairs[pair] = make(map[string]domain.MarketCell, len(exchanges))
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, exID := range exchanges {
		gw, err := f.registry.Get(exID)
		if err != nil {
			f.logger.Warn("exchange not registered, skipping",
				slog.String("exchange", exID),
			)
			continue
		}
		for _, pair := range pairs {
			gw, exID, pair := gw, exID, pair
			g.Go(func() error {
				book := f.fetchBook(gctx, gw, pair)
				candles := f.fetchCandles(gctx, gw, pair)
				mu.Lock()
				snap.Pairs[pair][exID] = domain.MarketCell{Book: book, Candles: candles}
				mu.Unlock()
				return nil
			})
		}
	}
	// Goroutines only record missing cells, they never return errors.
	_ = g.Wait()
	return snap
}

func (f *Fetcher) fetchBook(ctx context.Context, gw gateway.Gateway, pair string) *domain.OrderBook {
	book, err := gateway.Retry(ctx, f.retry, f.sleep, func(ctx context.Context) (*domain.OrderBook, error) {
		return gw.FetchOrderBook(ctx, pair)
	})
	if err != nil {
		f.logger.Warn("order book fetch failed",
			slog.String("exchange", gw.ID()),
			slog.String("pair", pair),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return book
}

func (f *Fetcher) fetchCandles(ctx context.Context, gw gateway.Gateway, pair string) []domain.Candle {
	candles, err := gateway.Retry(ctx, f.retry, f.sleep, func(ctx context.Context) ([]domain.Candle, error) {
		return gw.FetchCandles(ctx, pair, f.timeframe)
	})
	if err != nil {
		f.logger.Warn("candle fetch failed",
			slog.String("exchange", gw.ID()),
			slog.String("pair", pair),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return candles
}
