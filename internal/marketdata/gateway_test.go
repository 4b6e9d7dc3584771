package marketdata

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"zorrobridge/internal/domain"
)

// fakeProvider is a scripted Provider for gateway tests.
type fakeProvider struct {
	name     string
	quote    *domain.Quote
	bars     []domain.Bar
	err      error
	barCalls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) LastQuote(_ context.Context, _ string) (*domain.Quote, error) {
	return f.quote, f.err
}

func (f *fakeProvider) LastTrade(_ context.Context, _ string) (*domain.Trade, error) {
	return nil, f.err
}

func (f *fakeProvider) Bars(_ context.Context, _ BarsRequest) ([]domain.Bar, error) {
	f.barCalls++
	return f.bars, f.err
}

func TestDefaultFeed(t *testing.T) {
	cases := []struct {
		hasCred bool
		paper   bool
		want    string
	}{
		{false, true, FeedIEX},  // paper session, no data credential
		{true, true, FeedSIP},   // auxiliary credential present
		{false, false, FeedSIP}, // live session
		{true, false, FeedSIP},
	}
	for _, c := range cases {
		if got := DefaultFeed(c.hasCred, c.paper); got != c.want {
			t.Errorf("DefaultFeed(%v, %v) = %q, want %q", c.hasCred, c.paper, got, c.want)
		}
	}
}

func TestGatewaySwap(t *testing.T) {
	iex := &fakeProvider{name: FeedIEX, quote: &domain.Quote{BidPrice: 1}}
	sip := &fakeProvider{name: FeedSIP, quote: &domain.Quote{BidPrice: 2}}
	g := NewGateway(nil, iex, sip)

	if g.Active() != FeedIEX {
		t.Fatalf("Active = %q, want %q", g.Active(), FeedIEX)
	}

	q, err := g.LastQuote(context.Background(), "AAPL")
	if err != nil || q.BidPrice != 1 {
		t.Fatalf("LastQuote via iex = %v, %v", q, err)
	}

	if err := g.Use(FeedSIP); err != nil {
		t.Fatalf("Use(sip) returned error: %v", err)
	}
	q, err = g.LastQuote(context.Background(), "AAPL")
	if err != nil || q.BidPrice != 2 {
		t.Fatalf("LastQuote via sip = %v, %v", q, err)
	}

	if err := g.Use("bloomberg"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Use(unknown) = %v, want ErrUnknownProvider", err)
	}
	// Failed switch must not change the active provider.
	if g.Active() != FeedSIP {
		t.Errorf("Active after failed switch = %q, want %q", g.Active(), FeedSIP)
	}
}

func TestGatewayBarsWidthValidation(t *testing.T) {
	p := &fakeProvider{name: FeedIEX}
	g := NewGateway(nil, p)

	_, err := g.Bars(context.Background(), BarsRequest{Symbol: "AAPL", Width: 7})
	if !errors.Is(err, ErrUnsupportedBarWidth) {
		t.Fatalf("Bars(width=7) = %v, want ErrUnsupportedBarWidth", err)
	}
	if p.barCalls != 0 {
		t.Errorf("provider called %d times for invalid width, want 0", p.barCalls)
	}
}

func TestGatewayBarsWriteThrough(t *testing.T) {
	open := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	p := &fakeProvider{
		name: FeedIEX,
		bars: []domain.Bar{{Symbol: "AAPL", Timestamp: open, Close: 10}},
	}
	cache := NewBarCache(t.TempDir())
	g := NewGateway(cache, p)

	bars, err := g.Bars(context.Background(), BarsRequest{
		Symbol: "AAPL",
		Start:  open.Add(-time.Hour),
		End:    open.Add(time.Hour),
		Width:  domain.Bar1Min,
	})
	if err != nil {
		t.Fatalf("Bars returned error: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("Bars returned %d bars, want 1", len(bars))
	}

	cached, err := cache.Read("AAPL", open.Add(-time.Hour), open.Add(time.Hour))
	if err != nil {
		t.Fatalf("cache Read returned error: %v", err)
	}
	if len(cached) != 1 || cached[0].Close != 10 {
		t.Errorf("cached bars = %+v, want the fetched bar", cached)
	}
}

func TestGatewayBarsCacheFailureIgnored(t *testing.T) {
	open := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	p := &fakeProvider{
		name: FeedIEX,
		bars: []domain.Bar{{Symbol: "AAPL", Timestamp: open, Close: 10}},
	}
	// A cache rooted under a regular file cannot create its directories.
	blocked := t.TempDir() + "/blocked"
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	g := NewGateway(NewBarCache(blocked+"/sub"), p)

	bars, err := g.Bars(context.Background(), BarsRequest{
		Symbol: "AAPL",
		Start:  open.Add(-time.Hour),
		End:    open.Add(time.Hour),
		Width:  domain.Bar1Min,
	})
	if err != nil {
		t.Fatalf("Bars must not surface cache failures, got: %v", err)
	}
	if len(bars) != 1 {
		t.Errorf("Bars returned %d bars, want 1", len(bars))
	}
}
