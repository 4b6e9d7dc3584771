package bridge

import (
	"context"
	"fmt"

	"zorrobridge/internal/domain"
	"zorrobridge/internal/ledger"
	"zorrobridge/internal/marketdata"
)

// Command codes of the host's option-setting surface. The host probes this
// surface freely, so unrecognized codes answer zero rather than failing.
const (
	CmdSetOrderText   = 131 // str: tag applied to subsequent orders
	CmdSetMultiplier  = 132 // num: lot multiplier
	CmdSetPriceType   = 133 // num: 1 = quote ask, 2 = last trade
	CmdSetDiagnostics = 138 // num: diagnostics verbosity
	CmdSetTimeInForce = 140 // num: time-in-force code, see tifFromCode
	CmdSetDataSource  = 141 // num: 0 = iex, 1 = sip
	CmdExportAssets   = 150 // str: CSV output path
)

// tifFromCode maps the host's integer time-in-force codes onto policies.
func tifFromCode(code int64) (domain.TimeInForce, bool) {
	switch code {
	case 0:
		return domain.TIFFOK, true
	case 1:
		return domain.TIFIOC, true
	case 2:
		return domain.TIFGTC, true
	case 3:
		return domain.TIFDay, true
	case 4:
		return domain.TIFOPG, true
	case 5:
		return domain.TIFCLS, true
	}
	return "", false
}

// Command is the generic integer-coded option surface. num and str carry
// the argument; which one matters depends on the code. The return value is
// code-specific; unknown codes return 0 with no error.
func (b *Bridge) Command(ctx context.Context, code int, num int64, str string) (int64, error) {
	switch code {
	case CmdSetOrderText:
		b.tag = ledger.SanitizeTag(str)
		return 1, nil

	case CmdSetMultiplier:
		if num <= 0 {
			return 0, fmt.Errorf("bridge: invalid lot multiplier %d", num)
		}
		b.settings.Multiplier = num
		return 1, nil

	case CmdSetPriceType:
		switch PriceType(num) {
		case PriceQuote, PriceTrade:
			b.settings.PriceType = PriceType(num)
			return 1, nil
		}
		return 0, fmt.Errorf("bridge: unknown price type %d", num)

	case CmdSetDiagnostics:
		b.settings.Diagnostics = int(num)
		return 1, nil

	case CmdSetTimeInForce:
		tif, ok := tifFromCode(num)
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownTimeInForce, num)
		}
		b.settings.TimeInForce = tif
		b.log.Info("time in force set", "tif", tif)
		return 1, nil

	case CmdSetDataSource:
		if err := b.ready(); err != nil {
			return 0, err
		}
		name := marketdata.FeedIEX
		if num != 0 {
			name = marketdata.FeedSIP
		}
		if err := b.data.Use(name); err != nil {
			return 0, err
		}
		return 1, nil

	case CmdExportAssets:
		n, err := b.ExportAssets(ctx, str)
		if err != nil {
			return 0, err
		}
		return int64(n), nil
	}

	// Capability probe for a feature the bridge does not implement.
	return 0, nil
}
