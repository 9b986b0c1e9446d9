// Package events records the engine's structured events. Every event is
// logged through the injected slog.Logger and, when a bus is configured,
// published as JSON for external consumers. The engine core depends only on
// this recorder, never on a concrete logging or messaging mechanism.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/quantarb/arbot/internal/domain"
)

// Recorder emits engine events. A nil bus disables publishing; logging always
// happens.
type Recorder struct {
	bus     domain.EventBus
	channel string
	logger  *slog.Logger
}

// NewRecorder creates a Recorder. bus may be nil.
func NewRecorder(bus domain.EventBus, channel string, logger *slog.Logger) *Recorder {
	return &Recorder{
		bus:     bus,
		channel: channel,
		logger:  logger.With(slog.String("component", "events")),
	}
}

// event is the JSON shape published to the bus.
type event struct {
	Type string         `json:"type"`
	Time time.Time      `json:"time"`
	Data map[string]any `json:"data,omitempty"`
}

func (r *Recorder) publish(ctx context.Context, typ string, data map[string]any) {
	if r.bus == nil {
		return
	}
	payload, err := json.Marshal(event{Type: typ, Time: time.Now().UTC(), Data: data})
	if err != nil {
		return
	}
	if err := r.bus.Publish(ctx, r.channel, payload); err != nil {
		r.logger.WarnContext(ctx, "event publish failed",
			slog.String("type", typ),
			slog.String("error", err.Error()),
		)
	}
}

// CycleStart marks the beginning of a scan cycle.
func (r *Recorder) CycleStart(ctx context.Context, cycle int64) {
	r.logger.DebugContext(ctx, "cycle started", slog.Int64("cycle", cycle))
	r.publish(ctx, "cycle_start", map[string]any{"cycle": cycle})
}

// CycleEnd marks the end of a scan cycle with per-detector opportunity counts.
func (r *Recorder) CycleEnd(ctx context.Context, cycle int64, counts map[domain.OpportunityKind]int) {
	attrs := []slog.Attr{slog.Int64("cycle", cycle)}
	data := map[string]any{"cycle": cycle}
	for kind, n := range counts {
		attrs = append(attrs, slog.Int(string(kind), n))
		data[string(kind)] = n
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "cycle finished", attrs...)
	r.publish(ctx, "cycle_end", data)
}

// Rejection records that a pre-trade guard refused an opportunity.
func (r *Recorder) Rejection(ctx context.Context, opp domain.Opportunity, reason string) {
	r.logger.InfoContext(ctx, "opportunity rejected",
		slog.String("opp_id", opp.ID),
		slog.String("kind", string(opp.Kind)),
		slog.String("pair", opp.Pair),
		slog.Float64("profit_pct", opp.ProfitPct),
		slog.String("reason", reason),
	)
	r.publish(ctx, "rejection", map[string]any{
		"opp_id": opp.ID,
		"kind":   string(opp.Kind),
		"pair":   opp.Pair,
		"reason": reason,
	})
}

// Outcome records the final result of an execution attempt. Leg mismatches
// are logged at error level so operators notice the unhedged position.
func (r *Recorder) Outcome(ctx context.Context, out domain.ExecutionOutcome) {
	level := slog.LevelInfo
	if out.Status == domain.OutcomeLegMismatch {
		level = slog.LevelError
	}
	r.logger.LogAttrs(ctx, level, "execution outcome",
		slog.String("opp_id", out.Opportunity.ID),
		slog.String("kind", string(out.Opportunity.Kind)),
		slog.String("pair", out.Opportunity.Pair),
		slog.String("status", string(out.Status)),
		slog.String("reason", out.Reason),
	)
	r.publish(ctx, "execution_outcome", map[string]any{
		"opp_id": out.Opportunity.ID,
		"kind":   string(out.Opportunity.Kind),
		"pair":   out.Opportunity.Pair,
		"status": string(out.Status),
		"reason": out.Reason,
	})
}

// MarketConditions records the per-cycle volatility and aggregate liquidity
// figures.
func (r *Recorder) MarketConditions(ctx context.Context, volatilityPct, liquidity float64) {
	r.logger.InfoContext(ctx, "market conditions",
		slog.Float64("volatility_pct", volatilityPct),
		slog.Float64("liquidity", liquidity),
	)
	r.publish(ctx, "market_conditions", map[string]any{
		"volatility_pct": volatilityPct,
		"liquidity":      liquidity,
	})
}
