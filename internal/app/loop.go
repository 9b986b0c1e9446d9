package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantarb/arbot/internal/domain"
	"github.com/quantarb/arbot/internal/risk"
)

// runLoop is the supervisory scan loop: fetch, ingest, detect, execute,
// sleep, repeat. Cycle pacing lives here, never inside the core components.
// No per-cell or per-opportunity failure may end the loop; a panicking cycle
// is contained, reported, and followed by a longer backoff sleep.
func (a *App) runLoop(ctx context.Context, deps *Dependencies) error {
	exchanges := make([]string, 0, len(a.cfg.Exchanges))
	for _, ex := range a.cfg.Exchanges {
		exchanges = append(exchanges, ex.ID)
	}

	var cycle int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cycle++

		delay := a.cfg.Engine.PollInterval.Duration
		if !a.runCycle(ctx, deps, cycle, exchanges) {
			delay = a.cfg.Engine.ErrorBackoff.Duration
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// runCycle executes one full scan cycle. It returns false when the cycle
// aborted abnormally and the loop should back off before the next attempt.
func (a *App) runCycle(ctx context.Context, deps *Dependencies, cycle int64, exchanges []string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "cycle panicked",
				slog.Int64("cycle", cycle),
				slog.Any("panic", r),
			)
			ok = false
		}
	}()

	deps.Recorder.CycleStart(ctx, cycle)

	snap := deps.Fetcher.Snapshot(ctx, exchanges, a.cfg.Engine.Pairs)
	if snap.Empty() {
		a.logger.WarnContext(ctx, "no market data this cycle, skipping",
			slog.Int64("cycle", cycle),
		)
		return true
	}

	// Feed the indicator engine before detection so the statistical detector
	// sees this cycle's candles. One ingest/recompute per cycle.
	if cell, found := snap.Cell(a.cfg.Statistical.Pair, a.statExchange()); found && len(cell.Candles) > 0 {
		deps.Engine.Ingest(cell.Candles)
		deps.Engine.Recompute()
	}

	deps.Recorder.MarketConditions(ctx, deps.Engine.Volatility(), totalDepth(snap))

	var all []domain.Opportunity
	counts := make(map[domain.OpportunityKind]int, len(deps.Detectors))
	for _, det := range deps.Detectors {
		opps := det.Detect(snap)
		all = append(all, opps...)
		for _, opp := range opps {
			counts[opp.Kind]++
		}
	}

	deps.Executor.ExecuteCycle(ctx, all)
	deps.Recorder.CycleEnd(ctx, cycle, counts)
	return true
}

// statExchange resolves the statistical detector's exchange binding, falling
// back to the first configured exchange as Wire does.
func (a *App) statExchange() string {
	if a.cfg.Statistical.Exchange != "" {
		return a.cfg.Statistical.Exchange
	}
	if len(a.cfg.Exchanges) > 0 {
		return a.cfg.Exchanges[0].ID
	}
	return ""
}

// totalDepth sums the top-5 ask depth across every cell, the aggregate
// liquidity figure for the market-conditions event.
func totalDepth(snap *domain.MarketSnapshot) float64 {
	var depth float64
	for _, byExchange := range snap.Pairs {
		for _, cell := range byExchange {
			depth += risk.TopDepth(cell.Book, 5)
		}
	}
	return depth
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
