// Package marketdata provides a uniform quote/bar query surface over
// interchangeable data providers, selectable at runtime.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zorrobridge/internal/domain"
)

// Provider names.
const (
	FeedIEX = "iex" // primary-venue quotes
	FeedSIP = "sip" // consolidated tape
)

// ErrUnsupportedBarWidth is returned for a bar granularity outside the
// supported set {1, 5, 15, 1440} minutes.
var ErrUnsupportedBarWidth = errors.New("marketdata: unsupported bar width")

// ErrUnknownProvider is returned when a data-source switch names a provider
// the gateway does not hold.
var ErrUnknownProvider = errors.New("marketdata: unknown provider")

// BarsRequest describes a historical bar query.
type BarsRequest struct {
	Symbol string
	Start  time.Time
	End    time.Time
	Width  domain.BarWidth
	Limit  int // max bars, 0 = provider default
}

// Provider is the capability set of one market-data source.
type Provider interface {
	// Name returns the provider identifier (e.g. "iex", "sip").
	Name() string

	// LastQuote returns the current best bid/ask for a symbol.
	LastQuote(ctx context.Context, symbol string) (*domain.Quote, error)

	// LastTrade returns the most recent trade for a symbol.
	LastTrade(ctx context.Context, symbol string) (*domain.Trade, error)

	// Bars returns time-ordered historical bars.
	Bars(ctx context.Context, req BarsRequest) ([]domain.Bar, error)
}

// Gateway multiplexes over the constructed providers. All providers stay
// warm; switching the active one is a reference swap. The active provider
// is never swapped mid-call: the swap mutex guards only the pointer.
type Gateway struct {
	mu        sync.Mutex
	providers map[string]Provider
	active    Provider
	cache     *BarCache // optional write-through bar cache
	log       *slog.Logger
}

// NewGateway creates a Gateway over the given providers. The first provider
// starts active. cache may be nil.
func NewGateway(cache *BarCache, providers ...Provider) *Gateway {
	g := &Gateway{
		providers: make(map[string]Provider, len(providers)),
		cache:     cache,
		log:       slog.Default().With("component", "marketdata"),
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
		if g.active == nil {
			g.active = p
		}
	}
	return g
}

// DefaultFeed returns the provider name the selection policy picks at
// session start: the consolidated tape when an auxiliary data credential is
// present or the session is live; the primary venue otherwise.
func DefaultFeed(hasDataCredential, paper bool) string {
	if hasDataCredential || !paper {
		return FeedSIP
	}
	return FeedIEX
}

// Use switches the active provider. The inactive provider is kept warm.
func (g *Gateway) Use(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.providers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	g.active = p
	g.log.Info("data source switched", "provider", name)
	return nil
}

// Active returns the name of the active provider.
func (g *Gateway) Active() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active.Name()
}

func (g *Gateway) current() Provider {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// LastQuote returns the current best bid/ask from the active provider.
func (g *Gateway) LastQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return g.current().LastQuote(ctx, symbol)
}

// LastTrade returns the most recent trade from the active provider.
func (g *Gateway) LastTrade(ctx context.Context, symbol string) (*domain.Trade, error) {
	return g.current().LastTrade(ctx, symbol)
}

// Bars returns time-ordered historical bars from the active provider.
// Successful results are written through to the bar cache best-effort; a
// cache failure never fails the query.
func (g *Gateway) Bars(ctx context.Context, req BarsRequest) ([]domain.Bar, error) {
	if !req.Width.Valid() {
		return nil, fmt.Errorf("%w: %d minutes", ErrUnsupportedBarWidth, req.Width)
	}

	bars, err := g.current().Bars(ctx, req)
	if err != nil {
		return nil, err
	}

	if g.cache != nil && len(bars) > 0 {
		if cerr := g.cache.Write(bars); cerr != nil {
			g.log.Warn("bar cache write failed", "symbol", req.Symbol, "err", cerr)
		}
	}
	return bars, nil
}
