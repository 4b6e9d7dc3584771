package marketdata

import (
	"context"
	"fmt"
	"strings"

	md "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"zorrobridge/internal/domain"
)

// Compile-time interface check.
var _ Provider = (*AlpacaProvider)(nil)

// AlpacaProvider implements Provider against the Alpaca data API. The two
// runtime variants differ only in the feed they query: "iex" serves
// primary-venue quotes, "sip" the consolidated tape.
type AlpacaProvider struct {
	client *md.Client
	feed   md.Feed
	name   string
}

// NewAlpacaProvider creates a provider bound to the given feed ("iex" or
// "sip"). dataURL may be empty to use the SDK default endpoint.
func NewAlpacaProvider(apiKey, apiSecret, dataURL, feed string) *AlpacaProvider {
	opts := md.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaProvider{
		client: md.NewClient(opts),
		feed:   md.Feed(feed),
		name:   feed,
	}
}

// Name returns the feed identifier.
func (p *AlpacaProvider) Name() string { return p.name }

// LastQuote returns the current best bid/ask for a symbol.
func (p *AlpacaProvider) LastQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q, err := p.client.GetLatestQuote(symbol, md.GetLatestQuoteRequest{Feed: p.feed})
	if err != nil {
		return nil, fmt.Errorf("GetLatestQuote %s: %w", symbol, err)
	}
	return &domain.Quote{
		Symbol:    strings.ToUpper(symbol),
		BidPrice:  q.BidPrice,
		BidSize:   int64(q.BidSize),
		AskPrice:  q.AskPrice,
		AskSize:   int64(q.AskSize),
		Timestamp: q.Timestamp,
	}, nil
}

// LastTrade returns the most recent trade for a symbol.
func (p *AlpacaProvider) LastTrade(ctx context.Context, symbol string) (*domain.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tr, err := p.client.GetLatestTrade(symbol, md.GetLatestTradeRequest{Feed: p.feed})
	if err != nil {
		return nil, fmt.Errorf("GetLatestTrade %s: %w", symbol, err)
	}
	return &domain.Trade{
		Symbol:    strings.ToUpper(symbol),
		Price:     tr.Price,
		Size:      int64(tr.Size),
		Timestamp: tr.Timestamp,
	}, nil
}

// Bars returns time-ordered historical bars for a symbol.
func (p *AlpacaProvider) Bars(ctx context.Context, req BarsRequest) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alpacaBars, err := p.client.GetBars(req.Symbol, md.GetBarsRequest{
		TimeFrame:  timeFrame(req.Width),
		Start:      req.Start,
		End:        req.End,
		TotalLimit: req.Limit,
		Feed:       p.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", req.Symbol, err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:     strings.ToUpper(req.Symbol),
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	return bars, nil
}

// timeFrame maps a supported bar width to the SDK timeframe. Callers
// validate the width first; an unexpected value falls back to one minute.
func timeFrame(w domain.BarWidth) md.TimeFrame {
	switch w {
	case domain.Bar1Min:
		return md.OneMin
	case domain.Bar5Min:
		return md.NewTimeFrame(5, md.Min)
	case domain.Bar15Min:
		return md.NewTimeFrame(15, md.Min)
	case domain.Bar1Day:
		return md.OneDay
	}
	return md.OneMin
}
