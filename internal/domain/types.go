// Package domain defines the value types shared across the bridge: orders,
// quotes, bars, positions, and the enumerations that describe them.
package domain

import "time"

// ---------------------------------------------------------------------------
// Enumerations
// ---------------------------------------------------------------------------

// OrderSide is the direction of an order.
type OrderSide string

// Order sides.
const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// Opposite returns the inverse side.
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType distinguishes market from limit orders. Stop and trailing-stop
// orders are not part of the submission surface.
type OrderType string

// Order types.
const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// TimeInForce governs how long an order remains eligible for execution.
type TimeInForce string

// Time-in-force policies.
const (
	TIFDay TimeInForce = "day"
	TIFGTC TimeInForce = "gtc"
	TIFOPG TimeInForce = "opg"
	TIFCLS TimeInForce = "cls"
	TIFIOC TimeInForce = "ioc"
	TIFFOK TimeInForce = "fok"
)

// Immediate reports whether the policy demands resolution at submission
// time rather than letting the order rest.
func (t TimeInForce) Immediate() bool {
	return t == TIFIOC || t == TIFFOK
}

// OrderStatus is the broker-side lifecycle state of an order.
type OrderStatus string

// Order statuses, following the brokerage order lifecycle.
const (
	StatusNew             OrderStatus = "new"
	StatusAccepted        OrderStatus = "accepted"
	StatusPendingNew      OrderStatus = "pending_new"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusPendingCancel   OrderStatus = "pending_cancel"
	StatusCanceled        OrderStatus = "canceled"
	StatusExpired         OrderStatus = "expired"
	StatusRejected        OrderStatus = "rejected"
	StatusReplaced        OrderStatus = "replaced"
	StatusDoneForDay      OrderStatus = "done_for_day"
)

// Terminal reports whether the status is final: the broker will not move
// the order again.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusExpired, StatusRejected,
		StatusReplaced, StatusDoneForDay:
		return true
	}
	return false
}

// BarWidth is a bar granularity in minutes, restricted to the enumerated
// set the host may request.
type BarWidth int

// Supported bar widths.
const (
	Bar1Min  BarWidth = 1
	Bar5Min  BarWidth = 5
	Bar15Min BarWidth = 15
	Bar1Day  BarWidth = 1440
)

// Valid reports whether w is one of the supported granularities.
func (w BarWidth) Valid() bool {
	switch w {
	case Bar1Min, Bar5Min, Bar15Min, Bar1Day:
		return true
	}
	return false
}

// Duration returns the bar width as a time.Duration.
func (w BarWidth) Duration() time.Duration {
	return time.Duration(w) * time.Minute
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderRequest describes a new order to be submitted to the broker.
// Quantity is always a positive share count; the side carries direction.
type OrderRequest struct {
	Symbol        string
	Qty           int64
	Side          OrderSide
	Type          OrderType
	TimeInForce   TimeInForce
	LimitPrice    float64 // 0 = none
	StopPrice     float64 // 0 = none
	ExtendedHours bool
	ClientOrderID string
}

// ReplaceRequest describes an in-place resize of a working order.
type ReplaceRequest struct {
	Qty           int64
	LimitPrice    float64 // 0 = unchanged
	TimeInForce   TimeInForce
	ClientOrderID string
}

// Order is the bridge's current belief about one broker order. The broker
// order id is immutable once set; the client order id is assigned by the
// bridge and globally unique within a session.
type Order struct {
	BrokerOrderID  string
	ClientOrderID  string
	Symbol         string
	Side           OrderSide
	Type           OrderType
	TimeInForce    TimeInForce
	Qty            int64
	FilledQty      int64
	FilledAvgPrice float64
	LimitPrice     float64
	Status         OrderStatus
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Quote is a best bid/ask snapshot for a symbol.
type Quote struct {
	Symbol    string
	BidPrice  float64
	BidSize   int64
	AskPrice  float64
	AskSize   int64
	Timestamp time.Time
}

// Spread returns ask minus bid.
func (q Quote) Spread() float64 { return q.AskPrice - q.BidPrice }

// Trade is a last-trade snapshot for a symbol.
type Trade struct {
	Symbol    string
	Price     float64
	Size      int64
	Timestamp time.Time
}

// Bar is one OHLCV aggregate. Timestamp is the bar open time as delivered
// by the data provider.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// ---------------------------------------------------------------------------
// Account, positions, assets, clock
// ---------------------------------------------------------------------------

// Account is a snapshot of the brokerage account's financial metrics.
type Account struct {
	AccountNumber string
	Equity        float64
	Cash          float64
	BuyingPower   float64
}

// Position is one open position at the brokerage. Qty is always positive;
// Side carries direction.
type Position struct {
	Symbol        string
	Qty           int64
	Side          OrderSide
	AvgEntryPrice float64
	UnrealizedPL  float64
}

// SignedQty returns the position size in the host convention: positive
// for long, negative for short.
func (p Position) SignedQty() int64 {
	if p.Side == Sell {
		return -p.Qty
	}
	return p.Qty
}

// Asset is tradable-instrument metadata.
type Asset struct {
	Symbol     string
	Name       string
	Exchange   string
	Tradable   bool
	Marginable bool
	Shortable  bool
	Easy       bool
	Fractional bool
}

// Clock is the broker's market clock.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}
