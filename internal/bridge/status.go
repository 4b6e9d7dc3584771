package bridge

import (
	"context"
	"fmt"

	"zorrobridge/internal/broker"
	"zorrobridge/internal/domain"
	"zorrobridge/internal/journal"
	"zorrobridge/internal/ledger"
)

// TradeState is a point-in-time view of one tracked trade.
type TradeState struct {
	TradeID   int
	Symbol    string
	Status    domain.OrderStatus
	Qty       int64
	FilledQty int64
	AvgPrice  float64
	Profit    float64 // unrealized, against the current quote; 0 when unfilled
}

// TradeStatus refreshes and returns the state of a trade. An id unknown to
// the session (the host remembers trades across restarts) is reconstructed
// from the broker via its correlation token; a failed refresh of a known
// trade degrades to the last recorded snapshot.
func (b *Bridge) TradeStatus(ctx context.Context, tradeID int) (*TradeState, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	rec, err := b.book.Get(tradeID)
	if err != nil {
		reclaimed, rerr := b.reclaim(ctx, tradeID)
		if rerr != nil {
			return nil, rerr
		}
		rec = *reclaimed
	} else if order, gerr := b.brokerClient.GetOrder(ctx, rec.BrokerOrderID); gerr == nil {
		b.refresh(tradeID, order)
		b.record(ctx, orderEvent(tradeID, order, journal.EventPolled))
		rec = *order
	} else {
		b.diag(fmt.Sprintf("status refresh failed for trade %d: %v", tradeID, gerr))
	}

	state := &TradeState{
		TradeID:   tradeID,
		Symbol:    rec.Symbol,
		Status:    rec.Status,
		Qty:       rec.Qty,
		FilledQty: rec.FilledQty,
		AvgPrice:  rec.FilledAvgPrice,
	}
	if rec.FilledQty > 0 {
		state.Profit = b.unrealized(ctx, rec)
	}
	return state, nil
}

// reclaim rebuilds a ledger entry for a trade id this session has never
// seen, by asking the broker for the order carrying its correlation token.
func (b *Bridge) reclaim(ctx context.Context, tradeID int) (*domain.Order, error) {
	order, err := b.brokerClient.GetOrderByClientID(ctx, ledger.EncodeClientID(tradeID, b.tag))
	if err != nil {
		return nil, fmt.Errorf("reclaiming trade %d: %w", tradeID, err)
	}
	b.book.Claim(tradeID)
	b.book.Put(tradeID, order)
	b.log.Info("trade reclaimed", "trade_id", tradeID, "order_id", order.BrokerOrderID)
	return order, nil
}

// unrealized marks the filled portion to the current quote: against the ask
// for longs, the bid for shorts. A quote failure yields zero, never an
// error.
func (b *Bridge) unrealized(ctx context.Context, rec domain.Order) float64 {
	q, err := b.data.LastQuote(ctx, rec.Symbol)
	if err != nil {
		b.diag(fmt.Sprintf("quote for %s unavailable: %v", rec.Symbol, err))
		return 0
	}
	if rec.Side == domain.Sell {
		return (rec.FilledAvgPrice - q.BidPrice) * float64(rec.FilledQty)
	}
	return (q.AskPrice - rec.FilledAvgPrice) * float64(rec.FilledQty)
}

// Position returns the net signed position for a symbol at the brokerage:
// positive long, negative short, zero when no position exists.
func (b *Bridge) Position(ctx context.Context, symbol string) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	pos, err := b.brokerClient.GetPosition(ctx, symbol)
	if err != nil {
		if broker.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("position for %s: %w", symbol, err)
	}
	return pos.SignedQty(), nil
}
