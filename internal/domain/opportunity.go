package domain

import "time"

// OpportunityKind tags the detector family that produced an opportunity.
type OpportunityKind string

const (
	KindCrossExchange OpportunityKind = "cross_exchange"
	KindTriangular    OpportunityKind = "triangular"
	KindStatistical   OpportunityKind = "statistical"
)

// Side of a single order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opportunity is a detected, not-yet-executed trade candidate. Kind selects
// which payload field is populated; the shared fields are always set.
// Detectors never emit an opportunity whose ProfitPct is below the configured
// minimum, so anything reaching the executor already carries positive edge.
type Opportunity struct {
	ID         string
	Kind       OpportunityKind
	Pair       string
	ProfitPct  float64
	DetectedAt time.Time

	CrossExchange *CrossExchangeLeg
	Triangular    *TriangularPath
	Statistical   *StatisticalSignal
}

// CrossExchangeLeg describes a two-leg buy-low/sell-high trade across two
// exchanges. Prices are the raw top-of-book quotes; fee adjustment is applied
// when the spread is scored and again when limit prices are computed.
type CrossExchangeLeg struct {
	BuyExchange  string
	SellExchange string
	BuyPrice     float64
	SellPrice    float64
}

// TriangularPath describes a three-leg conversion cycle. Legs[i] is bound to
// Exchanges[i]; the legs need not share one exchange.
type TriangularPath struct {
	Legs       [3]string
	Exchanges  [3]string
	Multiplier float64
}

// StatisticalSignal is a single-leg mean-reversion entry triggered by a band
// breakout on the most recent close.
type StatisticalSignal struct {
	Exchange     string
	Side         Side
	TriggerPrice float64
	Indicator    string
}

// OutcomeStatus classifies how an execution attempt ended.
type OutcomeStatus string

const (
	// OutcomeFilled means every leg was placed successfully.
	OutcomeFilled OutcomeStatus = "filled"
	// OutcomeRejected means a pre-trade guard refused the opportunity and no
	// order was placed.
	OutcomeRejected OutcomeStatus = "rejected"
	// OutcomeFailed means order placement failed before any leg filled.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeLegMismatch means the buy leg filled but the sell leg did not.
	// The position is unhedged and needs operator attention.
	OutcomeLegMismatch OutcomeStatus = "leg_mismatch"
)

// OrderReceipt is the gateway's acknowledgement of a placed limit order.
type OrderReceipt struct {
	OrderID  string
	Exchange string
	Pair     string
	Side     Side
	Amount   float64
	Price    float64
	PlacedAt time.Time
}

// ExecutionOutcome reports how one opportunity fared in the executor. It lives
// only for the duration of a single cycle; persistence is the supervisor's
// concern, not the core's.
type ExecutionOutcome struct {
	Opportunity Opportunity
	Status      OutcomeStatus
	BuyReceipt  *OrderReceipt
	SellReceipt *OrderReceipt
	Reason      string
}
