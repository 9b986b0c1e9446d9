// Package gateway defines the port through which the engine talks to
// exchanges. Implementations are expected to handle authentication, signing,
// and transport-level rate limiting themselves; the engine only sees typed
// market data and order receipts.
package gateway

import (
	"context"
	"fmt"
	"sort"

	"github.com/quantarb/arbot/internal/domain"
)

// Gateway is a single exchange client.
type Gateway interface {
	// ID returns the exchange identifier this gateway serves.
	ID() string
	// TakerFee returns the taker fee rate as a fraction (0.001 = 0.1%).
	TakerFee() float64
	FetchOrderBook(ctx context.Context, pair string) (*domain.OrderBook, error)
	FetchCandles(ctx context.Context, pair, timeframe string) ([]domain.Candle, error)
	PlaceLimitOrder(ctx context.Context, pair string, side domain.Side, amount, price float64) (*domain.OrderReceipt, error)
}

// Registry maps a closed set of exchange ids to gateway clients. The set is
// fixed at construction and validated once at startup; lookups for ids
// outside the set return domain.ErrUnknownExchange rather than constructing
// clients dynamically.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry builds a registry from the given clients. Duplicate or empty
// ids are construction errors.
func NewRegistry(clients ...Gateway) (*Registry, error) {
	gws := make(map[string]Gateway, len(clients))
	for _, c := range clients {
		id := c.ID()
		if id == "" {
			return nil, fmt.Errorf("gateway: client with empty exchange id")
		}
		if _, dup := gws[id]; dup {
			return nil, fmt.Errorf("gateway: duplicate exchange id %q", id)
		}
		gws[id] = c
	}
	return &Registry{gateways: gws}, nil
}

// Get returns the gateway for the given exchange id.
func (r *Registry) Get(id string) (Gateway, error) {
	gw, ok := r.gateways[id]
	if !ok {
		return nil, fmt.Errorf("gateway: %q: %w", id, domain.ErrUnknownExchange)
	}
	return gw, nil
}

// IDs returns the registered exchange ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.gateways))
	for id := range r.gateways {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TakerFee returns the taker fee for the given exchange id, or 0 when the id
// is not registered.
func (r *Registry) TakerFee(id string) float64 {
	if gw, ok := r.gateways[id]; ok {
		return gw.TakerFee()
	}
	return 0
}
