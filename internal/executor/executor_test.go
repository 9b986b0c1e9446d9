package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quantarb/arbot/internal/domain"
	"github.com/quantarb/arbot/internal/events"
	"github.com/quantarb/arbot/internal/gateway"
)

type placedOrder struct {
	exchange string
	pair     string
	side     domain.Side
	amount   float64
	price    float64
}

// fakeGateway serves a fixed book and scripts order placement. Order calls
// are appended to a log shared across gateways so tests can assert ordering.
type fakeGateway struct {
	id       string
	book     *domain.OrderBook
	bookErr  error
	orderErr error
	placed   *[]placedOrder
}

func (g *fakeGateway) ID() string        { return g.id }
func (g *fakeGateway) TakerFee() float64 { return 0.001 }

func (g *fakeGateway) FetchOrderBook(context.Context, string) (*domain.OrderBook, error) {
	if g.bookErr != nil {
		return nil, g.bookErr
	}
	return g.book, nil
}

func (g *fakeGateway) FetchCandles(context.Context, string, string) ([]domain.Candle, error) {
	return nil, nil
}

func (g *fakeGateway) PlaceLimitOrder(_ context.Context, pair string, side domain.Side, amount, price float64) (*domain.OrderReceipt, error) {
	*g.placed = append(*g.placed, placedOrder{
		exchange: g.id,
		pair:     pair,
		side:     side,
		amount:   amount,
		price:    price,
	})
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return &domain.OrderReceipt{
		OrderID:  uuid.New().String(),
		Exchange: g.id,
		Pair:     pair,
		Side:     side,
		Amount:   amount,
		Price:    price,
		PlacedAt: time.Now().UTC(),
	}, nil
}

type capturedAlert struct {
	event, title, message string
}

type fakeAlerter struct {
	alerts []capturedAlert
}

func (a *fakeAlerter) Notify(_ context.Context, event, title, message string) error {
	a.alerts = append(a.alerts, capturedAlert{event, title, message})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func deepBook(exchange, pair string) *domain.OrderBook {
	return &domain.OrderBook{
		Exchange:  exchange,
		Pair:      pair,
		Bids:      []domain.PriceLevel{{Price: 50100, Size: 5}},
		Asks:      []domain.PriceLevel{{Price: 50000, Size: 5}},
		Timestamp: time.Now().UTC(),
	}
}

func crossOpp(pair string, profitPct float64) domain.Opportunity {
	return domain.Opportunity{
		ID:         uuid.New().String(),
		Kind:       domain.KindCrossExchange,
		Pair:       pair,
		ProfitPct:  profitPct,
		DetectedAt: time.Now().UTC(),
		CrossExchange: &domain.CrossExchangeLeg{
			BuyExchange:  "alpha",
			SellExchange: "beta",
			BuyPrice:     50000,
			SellPrice:    50100,
		},
	}
}

func defaultConfig() Config {
	return Config{
		MinProfitPct:      0.3,
		TradeAmount:       0.01,
		MaxTradeAmount:    0.1,
		Cooldown:          30 * time.Second,
		SlippageTolerance: 0.005,
	}
}

type harness struct {
	executor *Executor
	alerter  *fakeAlerter
	placed   *[]placedOrder
	alpha    *fakeGateway
	beta     *fakeGateway
	clock    time.Time
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	placed := &[]placedOrder{}
	alpha := &fakeGateway{id: "alpha", book: deepBook("alpha", "BTC/USD"), placed: placed}
	beta := &fakeGateway{id: "beta", book: deepBook("beta", "BTC/USD"), placed: placed}
	reg, err := gateway.NewRegistry(alpha, beta)
	require.NoError(t, err)

	alerter := &fakeAlerter{}
	rec := events.NewRecorder(nil, "", testLogger())
	exec := New(reg, gateway.RetryConfig{MaxAttempts: 1}, nil, rec, alerter, cfg, testLogger())

	h := &harness{executor: exec, alerter: alerter, placed: placed, alpha: alpha, beta: beta}
	h.clock = time.Unix(1_700_000_000, 0)
	exec.SetClock(func() time.Time { return h.clock })
	return h
}

func TestExecuteCycleRanksByProfit(t *testing.T) {
	h := newHarness(t, defaultConfig())

	opps := []domain.Opportunity{
		crossOpp("BTC/USD", 0.5),
		crossOpp("ETH/USD", 1.2),
		crossOpp("ETH/BTC", 0.8),
	}
	out := h.executor.ExecuteCycle(context.Background(), opps)

	require.NotNil(t, out)
	require.Equal(t, domain.OutcomeFilled, out.Status)
	require.Equal(t, "ETH/USD", out.Opportunity.Pair, "highest-profit opportunity executes first")

	// One buy, one sell, nothing for the lower-ranked candidates.
	require.Len(t, *h.placed, 2)
	require.Equal(t, "ETH/USD", (*h.placed)[0].pair)
	require.Equal(t, domain.SideBuy, (*h.placed)[0].side)
	require.Equal(t, "alpha", (*h.placed)[0].exchange)
	require.Equal(t, domain.SideSell, (*h.placed)[1].side)
	require.Equal(t, "beta", (*h.placed)[1].exchange)
}

func TestExecuteCycleBuyLegFirstWithSlippageLimits(t *testing.T) {
	h := newHarness(t, defaultConfig())

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.5)})
	require.NotNil(t, out)
	require.Equal(t, domain.OutcomeFilled, out.Status)
	require.NotNil(t, out.BuyReceipt)
	require.NotNil(t, out.SellReceipt)

	require.Len(t, *h.placed, 2)
	buy, sell := (*h.placed)[0], (*h.placed)[1]
	require.Equal(t, 0.01, buy.amount)
	require.InDelta(t, 50000*0.995, buy.price, 1e-9)
	require.InDelta(t, 50100*1.005, sell.price, 1e-9)
}

func TestExecuteCycleRefiltersBelowMinProfit(t *testing.T) {
	h := newHarness(t, defaultConfig())

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.1)})
	require.Nil(t, out)
	require.Empty(t, *h.placed)
}

func TestExecuteCycleCapsTradeAmount(t *testing.T) {
	cfg := defaultConfig()
	cfg.TradeAmount = 0.5
	cfg.MaxTradeAmount = 0.1
	h := newHarness(t, cfg)

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.5)})
	require.NotNil(t, out)
	require.Equal(t, 0.1, (*h.placed)[0].amount)
}

func TestExecuteCycleLiquidityGatePlacesNoOrder(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.alpha.book.Asks = []domain.PriceLevel{{Price: 50000, Size: 0.001}}

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.5)})
	require.Nil(t, out, "rejection is not terminal")
	require.Empty(t, *h.placed)
}

func TestExecuteCycleBuyFailureSkipsSellLeg(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.alpha.orderErr = errors.New("exchange refused order")

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.5)})
	require.Nil(t, out, "a failed attempt is not terminal")

	require.Len(t, *h.placed, 1)
	require.Equal(t, "alpha", (*h.placed)[0].exchange)
	for _, p := range *h.placed {
		require.NotEqual(t, "beta", p.exchange, "no sell without a bought position")
	}
}

func TestExecuteCycleLegMismatchAlertsWithoutCooldown(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.beta.orderErr = errors.New("exchange down")

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.5)})
	require.NotNil(t, out)
	require.Equal(t, domain.OutcomeLegMismatch, out.Status)
	require.NotNil(t, out.BuyReceipt)
	require.Nil(t, out.SellReceipt)

	require.Len(t, h.alerter.alerts, 1)
	require.Equal(t, "leg_mismatch", h.alerter.alerts[0].event)

	// The unhedged position does not start a cooldown.
	require.False(t, h.executor.InCooldown())
}

func TestExecuteCycleCooldownBlocksNextTrade(t *testing.T) {
	h := newHarness(t, defaultConfig())

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.5)})
	require.NotNil(t, out)
	require.True(t, h.executor.InCooldown())

	h.clock = h.clock.Add(10 * time.Second)
	out = h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("ETH/USD", 0.9)})
	require.Nil(t, out)
	require.Len(t, *h.placed, 2, "no new orders inside the cooldown window")

	h.clock = h.clock.Add(25 * time.Second)
	require.False(t, h.executor.InCooldown())
	out = h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("ETH/USD", 0.9)})
	require.NotNil(t, out)
	require.Len(t, *h.placed, 4)
}

func TestExecuteCycleDryRunPlacesNothing(t *testing.T) {
	cfg := defaultConfig()
	cfg.DryRun = true
	h := newHarness(t, cfg)

	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{crossOpp("BTC/USD", 0.5)})
	require.Nil(t, out)
	require.Empty(t, *h.placed)
}

func TestExecuteCycleTriangularIsDetectOnly(t *testing.T) {
	h := newHarness(t, defaultConfig())

	opp := domain.Opportunity{
		ID:        uuid.New().String(),
		Kind:      domain.KindTriangular,
		Pair:      "BTC/USD",
		ProfitPct: 4.0,
		Triangular: &domain.TriangularPath{
			Legs:       [3]string{"BTC/USD", "ETH/BTC", "ETH/USD"},
			Exchanges:  [3]string{"alpha", "beta", "alpha"},
			Multiplier: 1.04,
		},
	}
	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{opp})
	require.Nil(t, out)
	require.Empty(t, *h.placed)
}

func TestExecuteStatisticalSingleLeg(t *testing.T) {
	h := newHarness(t, defaultConfig())

	opp := domain.Opportunity{
		ID:        uuid.New().String(),
		Kind:      domain.KindStatistical,
		Pair:      "BTC/USD",
		ProfitPct: 0.6,
		Statistical: &domain.StatisticalSignal{
			Exchange:     "alpha",
			Side:         domain.SideBuy,
			TriggerPrice: 50000,
			Indicator:    "lowerBand",
		},
	}
	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{opp})
	require.NotNil(t, out)
	require.Equal(t, domain.OutcomeFilled, out.Status)
	require.NotNil(t, out.BuyReceipt)
	require.Nil(t, out.SellReceipt)

	require.Len(t, *h.placed, 1)
	require.InDelta(t, 50000*0.995, (*h.placed)[0].price, 1e-9)
}

func TestExecuteStatisticalSellChecksBidDepth(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.alpha.book.Bids = []domain.PriceLevel{{Price: 50100, Size: 0.001}}

	opp := domain.Opportunity{
		ID:        uuid.New().String(),
		Kind:      domain.KindStatistical,
		Pair:      "BTC/USD",
		ProfitPct: 0.6,
		Statistical: &domain.StatisticalSignal{
			Exchange:     "alpha",
			Side:         domain.SideSell,
			TriggerPrice: 50100,
			Indicator:    "upperBand",
		},
	}
	out := h.executor.ExecuteCycle(context.Background(), []domain.Opportunity{opp})
	require.Nil(t, out)
	require.Empty(t, *h.placed)
}
