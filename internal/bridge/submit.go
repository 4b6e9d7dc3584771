package bridge

import (
	"context"
	"fmt"

	"zorrobridge/internal/domain"
	"zorrobridge/internal/journal"
	"zorrobridge/internal/ledger"
)

// Fill is the host-visible outcome of a submission. TradeID 0 means the
// order produced no position to track ("no fill").
type Fill struct {
	TradeID int
	Price   float64
	Qty     int64
}

// SubmitOrder submits a new order. The sign of qty selects the side; the
// magnitude (scaled by the session multiplier) is the share count. A
// non-zero stopDist is a contract violation: stop-distance orders are not
// supported and are never silently downgraded to market orders. limitPrice
// 0 submits a market order.
//
// For immediate time-in-force policies (IOC/FOK) the call blocks until the
// order reaches a terminal state or the fill deadline expires, in which
// case the order is cancelled best-effort and a no-fill result returned.
// All other policies return as soon as the broker accepts the order.
func (b *Bridge) SubmitOrder(ctx context.Context, symbol string, qty int64, stopDist, limitPrice float64) (*Fill, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	if stopDist != 0 {
		return nil, ErrStopOrdersNotSupported
	}

	side := domain.Buy
	amount := qty
	if amount < 0 {
		side = domain.Sell
		amount = -amount
	}
	amount *= b.settings.Multiplier

	orderType := domain.Market
	if limitPrice > 0 {
		orderType = domain.Limit
	}

	tradeID := b.book.NextID()
	req := domain.OrderRequest{
		Symbol:        symbol,
		Qty:           amount,
		Side:          side,
		Type:          orderType,
		TimeInForce:   b.settings.TimeInForce,
		LimitPrice:    limitPrice,
		ClientOrderID: ledger.EncodeClientID(tradeID, b.tag),
	}

	order, err := b.brokerClient.SubmitOrder(ctx, req)
	if err != nil {
		// No ledger entry for a rejected submission.
		b.diag(fmt.Sprintf("order rejected: %s %d %s: %v", side, amount, symbol, err))
		return nil, err
	}

	b.book.Put(tradeID, order)
	b.record(ctx, orderEvent(tradeID, order, journal.EventSubmitted))
	b.log.Info("order submitted",
		"trade_id", tradeID,
		"order_id", order.BrokerOrderID,
		"symbol", symbol,
		"side", side,
		"qty", amount,
		"tif", b.settings.TimeInForce,
	)

	// The submission response may already carry a fill; no polling needed.
	if order.FilledQty > 0 {
		return &Fill{TradeID: tradeID, Price: order.FilledAvgPrice, Qty: order.FilledQty}, nil
	}

	if !b.settings.TimeInForce.Immediate() {
		// Resting policies resolve lazily through the trade-status path.
		return &Fill{TradeID: tradeID}, nil
	}

	return b.resolveFill(ctx, tradeID, order.BrokerOrderID)
}

// resolveFill polls the broker until the order reaches a terminal state or
// the fill deadline expires. The deadline is wall-clock, measured from the
// submission; on expiry the order is cancelled best-effort and a no-fill
// result returned. A failed status poll aborts the loop and returns the
// last known state.
func (b *Bridge) resolveFill(ctx context.Context, tradeID int, brokerOrderID string) (*Fill, error) {
	deadline := b.now().Add(b.settings.FillTimeout)

	for {
		if !b.now().Before(deadline) {
			break
		}
		if err := b.sleep(ctx, b.settings.PollInterval); err != nil {
			return &Fill{TradeID: tradeID}, nil
		}
		b.notifier.Progress(1)

		order, err := b.brokerClient.GetOrder(ctx, brokerOrderID)
		if err != nil {
			// Transient query failure: stop polling, keep the last known state.
			b.diag(fmt.Sprintf("fill poll failed for trade %d: %v", tradeID, err))
			return &Fill{TradeID: tradeID}, nil
		}

		b.refresh(tradeID, order)
		b.record(ctx, orderEvent(tradeID, order, journal.EventPolled))

		if order.Status.Terminal() {
			if order.FilledQty > 0 {
				return &Fill{TradeID: tradeID, Price: order.FilledAvgPrice, Qty: order.FilledQty}, nil
			}
			return &Fill{TradeID: 0}, nil
		}
	}

	// Deadline expired without a terminal state: cancel best-effort. A
	// failed cancel is a diagnostic, never an error.
	if err := b.brokerClient.CancelOrder(ctx, brokerOrderID); err != nil {
		b.diag(fmt.Sprintf("cancel after fill timeout failed for trade %d: %v", tradeID, err))
	}
	_ = b.book.Update(tradeID, func(o *domain.Order) {
		o.Status = domain.StatusPendingCancel
	})
	if rec, err := b.book.Get(tradeID); err == nil {
		b.record(ctx, orderEvent(tradeID, &rec, journal.EventCanceled))
	}
	b.log.Info("fill deadline expired", "trade_id", tradeID, "order_id", brokerOrderID)
	return &Fill{TradeID: 0}, nil
}

// refresh folds a fresh broker snapshot into the ledger record.
func (b *Bridge) refresh(tradeID int, order *domain.Order) {
	_ = b.book.Update(tradeID, func(o *domain.Order) {
		o.Status = order.Status
		o.FilledQty = order.FilledQty
		o.FilledAvgPrice = order.FilledAvgPrice
		o.UpdatedAt = order.UpdatedAt
	})
}

// orderEvent builds a journal row from an order snapshot.
func orderEvent(tradeID int, o *domain.Order, kind string) journal.Event {
	return journal.Event{
		TradeID:       tradeID,
		BrokerOrderID: o.BrokerOrderID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          o.Side,
		Qty:           o.Qty,
		FilledQty:     o.FilledQty,
		AvgPrice:      o.FilledAvgPrice,
		Status:        o.Status,
		Kind:          kind,
	}
}
