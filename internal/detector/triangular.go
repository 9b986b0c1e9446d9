package detector

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quantarb/arbot/internal/domain"
)

// Triangle is one configured three-leg conversion cycle. Legs[i] is evaluated
// on Exchanges[i]; the exchanges need not match.
type Triangle struct {
	Legs      [3]string
	Exchanges [3]string
}

// Path renders the cycle as "A/B > C/A > C/B" for logging.
func (t Triangle) Path() string {
	return strings.Join(t.Legs[:], " > ")
}

// Triangular evaluates a fixed set of currency triangles against the
// snapshot. A triangle converts one unit of quote currency through
// leg1 (bought at ask), leg2 (bought at ask), and leg3 (sold at bid);
// a theoretical multiplier above the configured threshold marks an edge.
type Triangular struct {
	triangles []Triangle
	// minMultiplier is the cycle-profitability threshold, e.g. 1.005 for a
	// 0.5% edge.
	minMultiplier float64
	logger        *slog.Logger
}

// NewTriangular creates the detector over a fixed triangle set.
func NewTriangular(triangles []Triangle, minMultiplier float64, logger *slog.Logger) *Triangular {
	return &Triangular{
		triangles:     triangles,
		minMultiplier: minMultiplier,
		logger:        logger.With(slog.String("detector", "triangular")),
	}
}

// Name returns the detector identifier.
func (d *Triangular) Name() string { return "triangular" }

// Detect evaluates every configured triangle. A triangle with any missing leg
// is skipped for this cycle.
func (d *Triangular) Detect(snap *domain.MarketSnapshot) []domain.Opportunity {
	var opps []domain.Opportunity
	for _, tri := range d.triangles {
		leg1Ask, ok := bookAsk(snap, tri.Legs[0], tri.Exchanges[0])
		if !ok {
			continue
		}
		leg2Ask, ok := bookAsk(snap, tri.Legs[1], tri.Exchanges[1])
		if !ok {
			continue
		}
		leg3Bid, ok := bookBid(snap, tri.Legs[2], tri.Exchanges[2])
		if !ok {
			continue
		}
		if leg1Ask == 0 || leg2Ask == 0 {
			continue
		}

		multiplier := (1 / leg1Ask) / leg2Ask * leg3Bid
		if multiplier <= d.minMultiplier {
			continue
		}
		profitPct := (multiplier - 1) * 100

		d.logger.Info("triangular cycle found",
			slog.String("path", tri.Path()),
			slog.Float64("multiplier", multiplier),
			slog.Float64("profit_pct", profitPct),
		)

		opps = append(opps, domain.Opportunity{
			ID:         uuid.New().String(),
			Kind:       domain.KindTriangular,
			Pair:       tri.Legs[0],
			ProfitPct:  profitPct,
			DetectedAt: time.Now().UTC(),
			Triangular: &domain.TriangularPath{
				Legs:       tri.Legs,
				Exchanges:  tri.Exchanges,
				Multiplier: multiplier,
			},
		})
	}
	return opps
}

func bookAsk(snap *domain.MarketSnapshot, pair, exchange string) (float64, bool) {
	book, ok := snap.Book(pair, exchange)
	if !ok {
		return 0, false
	}
	ask, ok := book.BestAsk()
	if !ok {
		return 0, false
	}
	return ask.Price, true
}

func bookBid(snap *domain.MarketSnapshot, pair, exchange string) (float64, bool) {
	book, ok := snap.Book(pair, exchange)
	if !ok {
		return 0, false
	}
	bid, ok := book.BestBid()
	if !ok {
		return 0, false
	}
	return bid.Price, true
}
