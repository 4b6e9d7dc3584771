package bridge

import (
	"context"
	"fmt"

	"zorrobridge/internal/domain"
	"zorrobridge/internal/journal"
	"zorrobridge/internal/ledger"
)

// CloseResult is the host-visible outcome of a close request. TradeID is
// the id the host should keep tracking afterwards: the original id for a
// cancel or an offsetting close, a fresh id after a replace.
type CloseResult struct {
	TradeID int
	Price   float64
	Qty     int64
	Profit  float64
}

// CloseOrReduce unwinds part or all of a tracked order. delta is in host
// lots; the session lot multiplier converts it to shares, matching the
// scaling applied at submission. limitPrice 0 means market. What unwinding
// means depends on where the order is in its lifecycle:
//
//   - filled: submit an offsetting order on the opposite side (at the
//     limit when one is given) and report the realized profit against the
//     original fill
//   - working, |delta| covering the full quantity: cancel the order
//   - working, |delta| smaller: replace the order with the reduced
//     quantity, repriced to limitPrice when one is given, under a fresh
//     trade id
//
// A terminal order that never filled is not open; closing it is an error.
func (b *Bridge) CloseOrReduce(ctx context.Context, tradeID int, delta int64, limitPrice float64) (*CloseResult, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	rec, err := b.book.Get(tradeID)
	if err != nil {
		return nil, err
	}

	lots := delta
	if lots < 0 {
		lots = -lots
	}
	shares := lots * b.settings.Multiplier
	if shares == 0 || shares > rec.Qty {
		return nil, fmt.Errorf("%w: %d of %d", ErrDeltaExceedsOrder, shares, rec.Qty)
	}

	if rec.Status == domain.StatusFilled {
		return b.closeFilled(ctx, tradeID, rec, lots, limitPrice)
	}
	if rec.Status.Terminal() {
		return nil, fmt.Errorf("%w: trade %d is %s", ErrOrderNotOpen, tradeID, rec.Status)
	}

	if shares == rec.Qty {
		return b.cancelWorking(ctx, tradeID, rec)
	}
	return b.replaceWorking(ctx, tradeID, rec, rec.Qty-shares, limitPrice)
}

// closeFilled submits an offsetting order for the requested lots and
// reports the realized result against the original fill price. The
// returned trade id is the original one; the offset order is not
// separately tracked.
func (b *Bridge) closeFilled(ctx context.Context, tradeID int, rec domain.Order, lots int64, limitPrice float64) (*CloseResult, error) {
	signed := lots
	if rec.Side == domain.Buy {
		signed = -lots // offsetting a long means selling
	}

	fill, err := b.SubmitOrder(ctx, rec.Symbol, signed, 0, limitPrice)
	if err != nil {
		return nil, fmt.Errorf("offsetting trade %d: %w", tradeID, err)
	}
	if fill.TradeID == 0 {
		// The offset produced no fill; the position is unchanged.
		return &CloseResult{TradeID: tradeID}, nil
	}

	profit := (fill.Price - rec.FilledAvgPrice) * float64(fill.Qty)
	if rec.Side == domain.Sell {
		profit = -profit
	}

	closed, _ := b.book.Get(fill.TradeID)
	b.record(ctx, orderEvent(tradeID, &closed, journal.EventClosed))
	b.log.Info("position closed",
		"trade_id", tradeID,
		"symbol", rec.Symbol,
		"qty", fill.Qty,
		"price", fill.Price,
		"profit", profit,
	)
	return &CloseResult{TradeID: tradeID, Price: fill.Price, Qty: fill.Qty, Profit: profit}, nil
}

// cancelWorking cancels the full remaining order.
func (b *Bridge) cancelWorking(ctx context.Context, tradeID int, rec domain.Order) (*CloseResult, error) {
	if err := b.brokerClient.CancelOrder(ctx, rec.BrokerOrderID); err != nil {
		return nil, fmt.Errorf("cancelling trade %d: %w", tradeID, err)
	}
	_ = b.book.Update(tradeID, func(o *domain.Order) {
		o.Status = domain.StatusPendingCancel
	})
	rec.Status = domain.StatusPendingCancel
	b.record(ctx, orderEvent(tradeID, &rec, journal.EventCanceled))
	b.log.Info("order cancelled", "trade_id", tradeID, "order_id", rec.BrokerOrderID)
	return &CloseResult{TradeID: tradeID}, nil
}

// replaceWorking resizes the order down to target shares, repricing it when
// the caller gave a limit. The replacement is a new broker order, so it
// gets a fresh trade id; the old id is marked replaced and stops tracking
// anything live.
func (b *Bridge) replaceWorking(ctx context.Context, tradeID int, rec domain.Order, target int64, limitPrice float64) (*CloseResult, error) {
	if target < rec.FilledQty {
		return nil, fmt.Errorf("%w: target %d, filled %d", ErrReplaceBelowFilled, target, rec.FilledQty)
	}

	if limitPrice == 0 {
		limitPrice = rec.LimitPrice
	}
	newID := b.book.NextID()
	order, err := b.brokerClient.ReplaceOrder(ctx, rec.BrokerOrderID, domain.ReplaceRequest{
		Qty:           target,
		LimitPrice:    limitPrice,
		TimeInForce:   rec.TimeInForce,
		ClientOrderID: ledger.EncodeClientID(newID, b.tag),
	})
	if err != nil {
		return nil, fmt.Errorf("replacing trade %d: %w", tradeID, err)
	}

	b.book.Put(newID, order)
	_ = b.book.Update(tradeID, func(o *domain.Order) {
		o.Status = domain.StatusReplaced
	})
	b.record(ctx, orderEvent(newID, order, journal.EventReplaced))
	b.log.Info("order replaced",
		"trade_id", tradeID,
		"new_trade_id", newID,
		"qty", target,
	)
	return &CloseResult{TradeID: newID}, nil
}
