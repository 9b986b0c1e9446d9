package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantarb/arbot/internal/domain"
)

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	_, err := NewRegistry(NewPaper("cex", 0.0025), NewPaper("cex", 0.0026))
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate exchange id "cex"`)
}

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry(NewPaper("cex", 0.0025), NewPaper("kraken", 0.0026))
	require.NoError(t, err)

	gw, err := reg.Get("cex")
	require.NoError(t, err)
	require.Equal(t, "cex", gw.ID())

	_, err = reg.Get("binance")
	require.ErrorIs(t, err, domain.ErrUnknownExchange)

	require.Equal(t, []string{"cex", "kraken"}, reg.IDs())
	require.Equal(t, 0.0026, reg.TakerFee("kraken"))
	require.Zero(t, reg.TakerFee("binance"))
}

func TestPaperBookShape(t *testing.T) {
	p := NewPaper("cex", 0.0025)
	book, err := p.FetchOrderBook(context.Background(), "BTC/USD")
	require.NoError(t, err)

	require.Equal(t, "cex", book.Exchange)
	require.Equal(t, "BTC/USD", book.Pair)
	require.Len(t, book.Bids, 5)
	require.Len(t, book.Asks, 5)

	for i := 1; i < 5; i++ {
		require.Less(t, book.Bids[i].Price, book.Bids[i-1].Price, "bids descend")
		require.Greater(t, book.Asks[i].Price, book.Asks[i-1].Price, "asks ascend")
	}
	bid, ok := book.BestBid()
	require.True(t, ok)
	ask, ok := book.BestAsk()
	require.True(t, ok)
	require.Less(t, bid.Price, ask.Price, "book is never crossed")
}

func TestPaperVenuesDisagreeOnPrice(t *testing.T) {
	a := NewPaper("cex", 0.0025)
	b := NewPaper("kraken", 0.0026)
	require.NotEqual(t, a.basePrice("BTC/USD"), b.basePrice("BTC/USD"))
	// The same venue is stable for the same pair.
	require.Equal(t, a.basePrice("BTC/USD"), a.basePrice("BTC/USD"))
}

func TestPaperCandles(t *testing.T) {
	p := NewPaper("cex", 0.0025)
	candles, err := p.FetchCandles(context.Background(), "ETH/USD", "5m")
	require.NoError(t, err)
	require.Len(t, candles, 30)
	for i := 1; i < len(candles); i++ {
		require.True(t, candles[i].Timestamp.After(candles[i-1].Timestamp), "timestamps strictly increase")
	}
	for _, c := range candles {
		require.GreaterOrEqual(t, c.High, c.Close)
		require.LessOrEqual(t, c.Low, c.Close)
	}
}

func TestPaperOrderReceipt(t *testing.T) {
	p := NewPaper("cex", 0.0025)
	receipt, err := p.PlaceLimitOrder(context.Background(), "BTC/USD", domain.SideBuy, 0.01, 50000)
	require.NoError(t, err)
	require.NotEmpty(t, receipt.OrderID)
	require.Equal(t, "cex", receipt.Exchange)
	require.Equal(t, domain.SideBuy, receipt.Side)
	require.Equal(t, 0.01, receipt.Amount)
	require.Equal(t, 50000.0, receipt.Price)
}
