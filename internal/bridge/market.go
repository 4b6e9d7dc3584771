package bridge

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"zorrobridge/internal/domain"
	"zorrobridge/internal/marketdata"
	"zorrobridge/internal/util"
	"zorrobridge/internal/zorro"
)

// Clock-query retry budget. Short and evenly paced: the host calls this on
// every heartbeat and cannot tolerate a long stall.
const (
	clockRetries    = 10
	clockRetryDelay = 100 * time.Millisecond
)

// Time returns the broker's server time in the host encoding plus the
// market open/closed flag. The clock query is retried on transient
// failure.
func (b *Bridge) Time(ctx context.Context) (zorro.Date, bool, error) {
	if err := b.ready(); err != nil {
		return 0, false, err
	}

	var clock *domain.Clock
	err := util.RetryFixed(ctx, clockRetries, clockRetryDelay, func() error {
		var cerr error
		clock, cerr = b.brokerClient.GetClock(ctx)
		return cerr
	})
	if err != nil {
		return 0, false, fmt.Errorf("server clock: %w", err)
	}
	return zorro.DateFromTime(clock.Timestamp), clock.IsOpen, nil
}

// Balance returns the account's equity and the portion of it that is not
// tied up in positions.
func (b *Bridge) Balance(ctx context.Context) (equity, available float64, err error) {
	if err := b.ready(); err != nil {
		return 0, 0, err
	}
	acct, err := b.brokerClient.GetAccount(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("account snapshot: %w", err)
	}
	return acct.Equity, acct.BuyingPower, nil
}

// AssetInfo is the instrument snapshot handed to the host when it
// subscribes a symbol.
type AssetInfo struct {
	Symbol    string
	Name      string
	Tradable  bool
	Shortable bool
	Price     float64
	Spread    float64
}

// AssetInfo returns tradable metadata plus a current price for a symbol.
// The session price type selects the source: the quote ask or the last
// trade. The spread always comes from the quote.
func (b *Bridge) AssetInfo(ctx context.Context, symbol string) (*AssetInfo, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	asset, err := b.brokerClient.GetAsset(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", symbol, err)
	}

	info := &AssetInfo{
		Symbol:    asset.Symbol,
		Name:      asset.Name,
		Tradable:  asset.Tradable,
		Shortable: asset.Shortable,
	}

	quote, err := b.data.LastQuote(ctx, symbol)
	if err != nil {
		// Metadata without pricing is still useful outside market hours.
		b.diag(fmt.Sprintf("quote for %s unavailable: %v", symbol, err))
		return info, nil
	}
	info.Price = quote.AskPrice
	info.Spread = quote.Spread()

	if b.settings.PriceType == PriceTrade {
		trade, terr := b.data.LastTrade(ctx, symbol)
		if terr != nil {
			b.diag(fmt.Sprintf("last trade for %s unavailable: %v", symbol, terr))
		} else {
			info.Price = trade.Price
		}
	}
	return info, nil
}

// HistoryBar is one bar in the host convention: close-time stamped,
// fractional-day encoded.
type HistoryBar struct {
	Time   zorro.Date
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// History returns time-ordered bars for a symbol. Provider bars are
// open-time stamped; the host wants close-time, so every timestamp is
// shifted forward by one bar width.
func (b *Bridge) History(ctx context.Context, symbol string, start, end time.Time, width domain.BarWidth, limit int) ([]HistoryBar, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	bars, err := b.data.Bars(ctx, marketdata.BarsRequest{
		Symbol: symbol,
		Start:  start,
		End:    end,
		Width:  width,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", symbol, err)
	}

	out := make([]HistoryBar, len(bars))
	for i, bar := range bars {
		out[i] = HistoryBar{
			Time:   zorro.DateFromTime(zorro.BarClose(bar.Timestamp, width)),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
	}
	return out, nil
}

// ExportAssets writes the full active asset list as CSV to path. Returns
// the number of assets written.
func (b *Bridge) ExportAssets(ctx context.Context, path string) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}

	assets, err := b.brokerClient.ListAssets(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing assets: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"symbol", "name", "exchange", "tradable", "marginable", "shortable", "fractional"}); err != nil {
		return 0, err
	}
	for _, a := range assets {
		row := []string{
			a.Symbol, a.Name, a.Exchange,
			strconv.FormatBool(a.Tradable),
			strconv.FormatBool(a.Marginable),
			strconv.FormatBool(a.Shortable),
			strconv.FormatBool(a.Fractional),
		}
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}

	b.log.Info("asset list exported", "path", path, "count", len(assets))
	return len(assets), nil
}
