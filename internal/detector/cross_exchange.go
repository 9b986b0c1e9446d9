package detector

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quantarb/arbot/internal/domain"
)

// FeeSource supplies the taker fee fraction for an exchange id. The gateway
// registry satisfies it.
type FeeSource interface {
	TakerFee(exchange string) float64
}

// CrossExchange compares fee-adjusted top-of-book quotes for each pair across
// every exchange reporting it, and emits a buy-low/sell-high opportunity when
// the net spread clears the minimum profit threshold.
//
// One fee convention is used throughout: the sell side is scored by
// bid*(1-fee), the buy side by ask*(1+fee), and the spread and profit are
// computed on the same fee-adjusted figures. Selecting on adjusted prices but
// scoring on raw ones would overstate the edge by both taker fees.
type CrossExchange struct {
	pairs        []string
	exchanges    []string
	fees         FeeSource
	minProfitPct float64
	logger       *slog.Logger
}

// NewCrossExchange creates the detector. The pairs and exchanges slices fix
// the iteration order, which makes tie-breaking deterministic: the
// first-listed exchange wins a tie.
func NewCrossExchange(pairs, exchanges []string, fees FeeSource, minProfitPct float64, logger *slog.Logger) *CrossExchange {
	return &CrossExchange{
		pairs:        pairs,
		exchanges:    exchanges,
		fees:         fees,
		minProfitPct: minProfitPct,
		logger:       logger.With(slog.String("detector", "cross_exchange")),
	}
}

// Name returns the detector identifier.
func (d *CrossExchange) Name() string { return "cross_exchange" }

// Detect scans every configured pair. Pairs with fewer than two reporting
// exchanges yield nothing.
func (d *CrossExchange) Detect(snap *domain.MarketSnapshot) []domain.Opportunity {
	var opps []domain.Opportunity
	for _, pair := range d.pairs {
		if opp, ok := d.detectPair(snap, pair); ok {
			opps = append(opps, opp)
		}
	}
	return opps
}

func (d *CrossExchange) detectPair(snap *domain.MarketSnapshot, pair string) (domain.Opportunity, bool) {
	var (
		sellEx, buyEx     string
		rawBid, rawAsk    float64
		bestNetBid        float64
		bestGrossAsk      float64
		haveSell, haveBuy bool
		reporting         int
	)

	for _, exID := range d.exchanges {
		book, ok := snap.Book(pair, exID)
		if !ok {
			continue
		}
		bid, bidOK := book.BestBid()
		ask, askOK := book.BestAsk()
		if !bidOK || !askOK {
			continue
		}
		reporting++

		fee := d.fees.TakerFee(exID)
		netBid := bid.Price * (1 - fee)
		grossAsk := ask.Price * (1 + fee)

		// Strict comparison keeps the first-seen exchange on ties.
		if !haveSell || netBid > bestNetBid {
			haveSell, bestNetBid = true, netBid
			sellEx, rawBid = exID, bid.Price
		}
		if !haveBuy || grossAsk < bestGrossAsk {
			haveBuy, bestGrossAsk = true, grossAsk
			buyEx, rawAsk = exID, ask.Price
		}
	}

	if reporting < 2 || !haveSell || !haveBuy || buyEx == sellEx {
		return domain.Opportunity{}, false
	}

	spread := bestNetBid - bestGrossAsk
	if spread <= 0 {
		return domain.Opportunity{}, false
	}
	profitPct := spread / bestGrossAsk * 100
	if profitPct < d.minProfitPct {
		return domain.Opportunity{}, false
	}

	d.logger.Info("cross-exchange spread found",
		slog.String("pair", pair),
		slog.String("buy_exchange", buyEx),
		slog.String("sell_exchange", sellEx),
		slog.Float64("buy_price", rawAsk),
		slog.Float64("sell_price", rawBid),
		slog.Float64("profit_pct", profitPct),
	)

	return domain.Opportunity{
		ID:         uuid.New().String(),
		Kind:       domain.KindCrossExchange,
		Pair:       pair,
		ProfitPct:  profitPct,
		DetectedAt: time.Now().UTC(),
		CrossExchange: &domain.CrossExchangeLeg{
			BuyExchange:  buyEx,
			SellExchange: sellEx,
			BuyPrice:     rawAsk,
			SellPrice:    rawBid,
		},
	}, true
}
