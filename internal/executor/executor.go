// Package executor ranks detected opportunities and converts at most one of
// them per scan cycle into placed orders, under the liquidity, slippage and
// cooldown guards.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/quantarb/arbot/internal/domain"
	"github.com/quantarb/arbot/internal/events"
	"github.com/quantarb/arbot/internal/gateway"
	"github.com/quantarb/arbot/internal/risk"
)

// Alerter delivers operator notifications. The notify package satisfies it;
// a nil Alerter disables notifications.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the executor's trading limits.
type Config struct {
	MinProfitPct      float64
	TradeAmount       float64
	MaxTradeAmount    float64
	Cooldown          time.Duration
	SlippageTolerance float64
	// DryRun skips order placement entirely; opportunities are ranked and
	// guarded but no gateway order call is made.
	DryRun bool
}

// Executor is the only mutator of the cooldown state. It must be driven by a
// single goroutine, one ExecuteCycle per scan cycle.
type Executor struct {
	registry *gateway.Registry
	retry    gateway.RetryConfig
	sleep    gateway.Sleeper
	recorder *events.Recorder
	alerter  Alerter
	cfg      Config
	logger   *slog.Logger

	now       func() time.Time
	lastTrade time.Time
}

// New creates an Executor. alerter may be nil; sleep may be nil to use the
// wall clock.
func New(registry *gateway.Registry, retry gateway.RetryConfig, sleep gateway.Sleeper, recorder *events.Recorder, alerter Alerter, cfg Config, logger *slog.Logger) *Executor {
	return &Executor{
		registry: registry,
		retry:    retry,
		sleep:    sleep,
		recorder: recorder,
		alerter:  alerter,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "executor")),
		now:      time.Now,
	}
}

// SetClock replaces the executor's clock. Test hook.
func (e *Executor) SetClock(now func() time.Time) { e.now = now }

// InCooldown reports whether the post-trade idle interval is still running.
func (e *Executor) InCooldown() bool {
	if e.lastTrade.IsZero() {
		return false
	}
	return e.now().Sub(e.lastTrade) < e.cfg.Cooldown
}

// tradeAmount returns the per-cycle order size, capped at the configured
// maximum.
func (e *Executor) tradeAmount() float64 {
	if e.cfg.TradeAmount > e.cfg.MaxTradeAmount {
		return e.cfg.MaxTradeAmount
	}
	return e.cfg.TradeAmount
}

// ExecuteCycle re-filters the opportunities by minimum profit, orders them by
// descending profit, and attempts execution in that order. The first filled
// trade starts the cooldown and ends the cycle; rejected and failed attempts
// fall through to the next candidate. A leg mismatch also ends the cycle,
// since capital is engaged and the operator has to intervene, but starts no
// cooldown. Returns the terminal outcome, or nil when nothing was executed.
func (e *Executor) ExecuteCycle(ctx context.Context, opps []domain.Opportunity) *domain.ExecutionOutcome {
	if len(opps) == 0 {
		return nil
	}
	if e.InCooldown() {
		e.logger.Debug("in cooldown, skipping cycle",
			slog.Int("opportunities", len(opps)),
		)
		return nil
	}

	ranked := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		// Detectors already filter; this re-validates as defense in depth.
		if opp.ProfitPct >= e.cfg.MinProfitPct {
			ranked = append(ranked, opp)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ProfitPct > ranked[j].ProfitPct
	})

	for _, opp := range ranked {
		out := e.execute(ctx, opp)
		e.recorder.Outcome(ctx, out)

		switch out.Status {
		case domain.OutcomeFilled:
			e.lastTrade = e.now()
			return &out
		case domain.OutcomeLegMismatch:
			e.alert(ctx, "leg_mismatch",
				"Unhedged position: sell leg failed",
				fmt.Sprintf("pair=%s buy_order=%s reason=%s", opp.Pair, out.BuyReceipt.OrderID, out.Reason),
			)
			return &out
		}
		// Rejected or failed: try the next-ranked opportunity.
	}
	return nil
}

// execute attempts a single opportunity.
func (e *Executor) execute(ctx context.Context, opp domain.Opportunity) domain.ExecutionOutcome {
	switch opp.Kind {
	case domain.KindCrossExchange:
		return e.executeCrossExchange(ctx, opp)
	case domain.KindStatistical:
		return e.executeStatistical(ctx, opp)
	default:
		// Triangular cycles are detected and reported but not routed to
		// order placement; a 3-leg primitive would be needed first.
		return rejected(opp, "no execution primitive for kind "+string(opp.Kind))
	}
}

// executeCrossExchange places the buy leg, then the sell leg. The buy always
// goes first so a sell-side failure leaves a long position rather than an
// uncovered short.
func (e *Executor) executeCrossExchange(ctx context.Context, opp domain.Opportunity) domain.ExecutionOutcome {
	leg := opp.CrossExchange
	if leg == nil {
		return rejected(opp, "malformed opportunity: missing cross-exchange payload")
	}
	amount := e.tradeAmount()

	buyGw, err := e.registry.Get(leg.BuyExchange)
	if err != nil {
		return rejected(opp, err.Error())
	}
	sellGw, err := e.registry.Get(leg.SellExchange)
	if err != nil {
		return rejected(opp, err.Error())
	}

	book, err := e.fetchBook(ctx, buyGw, opp.Pair)
	if err != nil {
		return rejected(opp, fmt.Sprintf("liquidity check: book unavailable: %v", err))
	}
	if !risk.SufficientDepth(book, amount) {
		e.recorder.Rejection(ctx, opp, "insufficient ask depth")
		return rejected(opp, fmt.Sprintf("insufficient liquidity on %s for %g", leg.BuyExchange, amount))
	}
	if slip, ok := risk.EstimateSlippagePct(book, amount); ok {
		e.logger.Debug("slippage estimate",
			slog.String("pair", opp.Pair),
			slog.String("exchange", leg.BuyExchange),
			slog.Float64("slippage_pct", slip),
		)
	}

	buyLimit := leg.BuyPrice * (1 - e.cfg.SlippageTolerance)
	sellLimit := leg.SellPrice * (1 + e.cfg.SlippageTolerance)

	if e.cfg.DryRun {
		return rejected(opp, "dry run: order placement disabled")
	}

	buyReceipt, err := buyGw.PlaceLimitOrder(ctx, opp.Pair, domain.SideBuy, amount, buyLimit)
	if err != nil || buyReceipt == nil {
		// No sell without a bought position.
		return failed(opp, fmt.Sprintf("buy leg on %s failed: %v", leg.BuyExchange, err))
	}

	sellReceipt, err := sellGw.PlaceLimitOrder(ctx, opp.Pair, domain.SideSell, amount, sellLimit)
	if err != nil || sellReceipt == nil {
		return domain.ExecutionOutcome{
			Opportunity: opp,
			Status:      domain.OutcomeLegMismatch,
			BuyReceipt:  buyReceipt,
			Reason:      fmt.Sprintf("sell leg on %s failed after buy filled: %v", leg.SellExchange, err),
		}
	}

	e.logger.Info("trade executed",
		slog.String("pair", opp.Pair),
		slog.String("buy_exchange", leg.BuyExchange),
		slog.String("sell_exchange", leg.SellExchange),
		slog.Float64("amount", amount),
		slog.Float64("buy_limit", buyLimit),
		slog.Float64("sell_limit", sellLimit),
		slog.Float64("profit_pct", opp.ProfitPct),
	)
	return domain.ExecutionOutcome{
		Opportunity: opp,
		Status:      domain.OutcomeFilled,
		BuyReceipt:  buyReceipt,
		SellReceipt: sellReceipt,
	}
}

// executeStatistical places the single mean-reversion leg under the same
// liquidity and slippage contract as the cross-exchange path.
func (e *Executor) executeStatistical(ctx context.Context, opp domain.Opportunity) domain.ExecutionOutcome {
	sig := opp.Statistical
	if sig == nil {
		return rejected(opp, "malformed opportunity: missing statistical payload")
	}
	amount := e.tradeAmount()

	gw, err := e.registry.Get(sig.Exchange)
	if err != nil {
		return rejected(opp, err.Error())
	}
	book, err := e.fetchBook(ctx, gw, opp.Pair)
	if err != nil {
		return rejected(opp, fmt.Sprintf("liquidity check: book unavailable: %v", err))
	}

	var limit float64
	switch sig.Side {
	case domain.SideBuy:
		if !risk.SufficientDepth(book, amount) {
			e.recorder.Rejection(ctx, opp, "insufficient ask depth")
			return rejected(opp, fmt.Sprintf("insufficient liquidity on %s for %g", sig.Exchange, amount))
		}
		limit = sig.TriggerPrice * (1 - e.cfg.SlippageTolerance)
	case domain.SideSell:
		if !risk.DepthCovers(book.Bids, amount) {
			e.recorder.Rejection(ctx, opp, "insufficient bid depth")
			return rejected(opp, fmt.Sprintf("insufficient liquidity on %s for %g", sig.Exchange, amount))
		}
		limit = sig.TriggerPrice * (1 + e.cfg.SlippageTolerance)
	default:
		return rejected(opp, "malformed opportunity: unknown side")
	}

	if e.cfg.DryRun {
		return rejected(opp, "dry run: order placement disabled")
	}

	receipt, err := gw.PlaceLimitOrder(ctx, opp.Pair, sig.Side, amount, limit)
	if err != nil || receipt == nil {
		return failed(opp, fmt.Sprintf("%s leg on %s failed: %v", sig.Side, sig.Exchange, err))
	}

	e.logger.Info("statistical trade executed",
		slog.String("pair", opp.Pair),
		slog.String("exchange", sig.Exchange),
		slog.String("side", string(sig.Side)),
		slog.Float64("amount", amount),
		slog.Float64("limit", limit),
	)
	out := domain.ExecutionOutcome{Opportunity: opp, Status: domain.OutcomeFilled}
	if sig.Side == domain.SideBuy {
		out.BuyReceipt = receipt
	} else {
		out.SellReceipt = receipt
	}
	return out
}

// fetchBook re-reads the order book right before placement so the liquidity
// gate looks at depth no older than the execution attempt itself.
func (e *Executor) fetchBook(ctx context.Context, gw gateway.Gateway, pair string) (*domain.OrderBook, error) {
	return gateway.Retry(ctx, e.retry, e.sleep, func(ctx context.Context) (*domain.OrderBook, error) {
		return gw.FetchOrderBook(ctx, pair)
	})
}

func (e *Executor) alert(ctx context.Context, event, title, message string) {
	if e.alerter == nil {
		return
	}
	if err := e.alerter.Notify(ctx, event, title, message); err != nil {
		e.logger.Warn("alert delivery failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func rejected(opp domain.Opportunity, reason string) domain.ExecutionOutcome {
	return domain.ExecutionOutcome{Opportunity: opp, Status: domain.OutcomeRejected, Reason: reason}
}

func failed(opp domain.Opportunity, reason string) domain.ExecutionOutcome {
	return domain.ExecutionOutcome{Opportunity: opp, Status: domain.OutcomeFailed, Reason: reason}
}
